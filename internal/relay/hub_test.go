package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/edulive/classmesh/internal/signaling"
)

// newTestClient builds a hub-registered client with no real socket; the
// tests drive the hub's handlers directly and read the Send channel.
func newTestClient(h *Hub, id string) *Client {
	c := &Client{Hub: h, SocketID: id, Send: make(chan *signaling.Envelope, 16)}
	h.handleRegister(c)
	return c
}

// recv pops the next queued envelope or fails the test.
func recv(t *testing.T, c *Client) *signaling.Envelope {
	t.Helper()
	select {
	case env := <-c.Send:
		return env
	default:
		t.Fatalf("no envelope queued for %s", c.SocketID)
		return nil
	}
}

func decode[T any](t *testing.T, env *signaling.Envelope) T {
	t.Helper()
	var p T
	require.NoError(t, env.DecodePayload(&p))
	return p
}

func join(h *Hub, c *Client, roomID, role string) {
	env, _ := signaling.NewEnvelope(signaling.EventJoinRoom,
		signaling.JoinRoomPayload{RoomID: roomID, UserID: "u-" + c.SocketID, Role: role})
	h.dispatch(c, env)
}

func TestRegisterSendsWelcome(t *testing.T) {
	h := NewHub()
	c := newTestClient(h, "s1")

	env := recv(t, c)
	assert.Equal(t, signaling.EventWelcome, env.Event)
	assert.Equal(t, "s1", decode[signaling.WelcomePayload](t, env).SocketID)
}

func TestJoinRoomNotifiesExistingMembers(t *testing.T) {
	h := NewHub()
	a := newTestClient(h, "a")
	b := newTestClient(h, "b")
	recv(t, a) // welcome
	recv(t, b)

	join(h, a, "math-1", "teacher")
	join(h, b, "math-1", "student")

	env := recv(t, a)
	assert.Equal(t, signaling.EventUserJoined, env.Event)
	assert.Equal(t, "b", decode[signaling.PresenceChangePayload](t, env).SocketID)

	// The newcomer is not told about itself.
	assert.Empty(t, b.Send)
}

func TestWhoReturnsFullRoster(t *testing.T) {
	h := NewHub()
	a := newTestClient(h, "a")
	b := newTestClient(h, "b")
	recv(t, a)
	recv(t, b)
	join(h, a, "math-1", "teacher")
	join(h, b, "math-1", "student")
	recv(t, a) // user-joined b

	env, _ := signaling.NewEnvelope(signaling.EventWho, nil)
	h.dispatch(b, env)

	got := recv(t, b)
	assert.Equal(t, signaling.EventRoomUsers, got.Event)
	peers := decode[signaling.RoomUsersPayload](t, got).Peers
	assert.ElementsMatch(t, []string{"a", "b"}, peers)
}

func TestWhoOutsideRoomIgnored(t *testing.T) {
	h := NewHub()
	a := newTestClient(h, "a")
	recv(t, a)

	env, _ := signaling.NewEnvelope(signaling.EventWho, nil)
	h.dispatch(a, env)
	assert.Empty(t, a.Send)
}

func TestOfferRoutedWithSenderRewrite(t *testing.T) {
	h := NewHub()
	a := newTestClient(h, "a")
	b := newTestClient(h, "b")
	recv(t, a)
	recv(t, b)
	join(h, a, "math-1", "student")
	join(h, b, "math-1", "student")
	recv(t, a)

	env, _ := signaling.NewEnvelope(signaling.EventOffer, signaling.DescriptionPayload{
		To:          "b",
		Description: signaling.Description{Type: "offer", SDP: "sdp-a"},
	})
	h.dispatch(a, env)

	got := recv(t, b)
	assert.Equal(t, signaling.EventOffer, got.Event)
	p := decode[signaling.DescriptionPayload](t, got)
	assert.Equal(t, "a", p.From, "relay must stamp the sender")
	assert.Empty(t, p.To)
	assert.Equal(t, "sdp-a", p.Description.SDP)
}

func TestDirectedMessageCannotCrossRooms(t *testing.T) {
	h := NewHub()
	a := newTestClient(h, "a")
	b := newTestClient(h, "b")
	recv(t, a)
	recv(t, b)
	join(h, a, "math-1", "student")
	join(h, b, "science-2", "student")

	env, _ := signaling.NewEnvelope(signaling.EventICECandidate, signaling.CandidatePayload{
		To:        "b",
		Candidate: signaling.Candidate{Candidate: "c"},
	})
	h.dispatch(a, env)
	assert.Empty(t, b.Send)
}

func TestBroadcastFansOutExcludingSender(t *testing.T) {
	h := NewHub()
	clients := []*Client{newTestClient(h, "a"), newTestClient(h, "b"), newTestClient(h, "c")}
	for _, c := range clients {
		recv(t, c)
		join(h, c, "math-1", "student")
	}
	for _, c := range clients {
		for len(c.Send) > 0 {
			<-c.Send // drain user-joined noise
		}
	}

	chat, err := msgpack.Marshal(signaling.ChatPayload{ID: "m1", Text: "hi"})
	require.NoError(t, err)
	env, _ := signaling.NewEnvelope(signaling.EventBroadcast, signaling.BroadcastPayload{
		RoomID:  "math-1",
		Event:   signaling.BroadcastChat,
		Payload: chat,
	})
	h.dispatch(clients[0], env)

	assert.Empty(t, clients[0].Send, "sender must not receive its own broadcast")
	for _, c := range clients[1:] {
		got := recv(t, c)
		assert.Equal(t, signaling.EventBroadcast, got.Event)
		p := decode[signaling.BroadcastPayload](t, got)
		assert.Equal(t, "a", p.From)
		assert.Equal(t, signaling.BroadcastChat, p.Event)
	}
}

func TestKickRequiresTeacher(t *testing.T) {
	h := NewHub()
	teacher := newTestClient(h, "t")
	student := newTestClient(h, "s")
	victim := newTestClient(h, "v")
	recv(t, teacher)
	recv(t, student)
	recv(t, victim)
	join(h, teacher, "math-1", "teacher")
	join(h, student, "math-1", "student")
	join(h, victim, "math-1", "student")
	for _, c := range []*Client{teacher, student, victim} {
		for len(c.Send) > 0 {
			<-c.Send
		}
	}

	// A student cannot kick.
	env, _ := signaling.NewEnvelope(signaling.EventKickUser,
		signaling.KickUserPayload{RoomID: "math-1", TargetID: "v"})
	h.dispatch(student, env)
	assert.Empty(t, victim.Send)

	// The teacher can.
	h.dispatch(teacher, env)
	got := recv(t, victim)
	assert.Equal(t, signaling.EventKicked, got.Event)
	assert.Equal(t, "math-1", decode[signaling.RoomPayload](t, got).RoomID)

	// The remaining members see the departure.
	left := recv(t, teacher)
	assert.Equal(t, signaling.EventUserLeft, left.Event)
	assert.Equal(t, "v", decode[signaling.PresenceChangePayload](t, left).SocketID)
	_, stillThere := h.Rooms["math-1"].Members["v"]
	assert.False(t, stillThere)
}

func TestUnregisterNotifiesRoomAndDeletesEmptyRoom(t *testing.T) {
	h := NewHub()
	a := newTestClient(h, "a")
	b := newTestClient(h, "b")
	recv(t, a)
	recv(t, b)
	join(h, a, "math-1", "student")
	join(h, b, "math-1", "student")
	recv(t, a)

	h.handleUnregister(a)

	got := recv(t, b)
	assert.Equal(t, signaling.EventUserLeft, got.Event)
	assert.Equal(t, "a", decode[signaling.PresenceChangePayload](t, got).SocketID)
	_, registered := h.Clients["a"]
	assert.False(t, registered)

	h.handleUnregister(b)
	assert.Empty(t, h.Rooms, "last member leaving deletes the room")
}

func TestLeaveRoomEvent(t *testing.T) {
	h := NewHub()
	a := newTestClient(h, "a")
	b := newTestClient(h, "b")
	recv(t, a)
	recv(t, b)
	join(h, a, "math-1", "student")
	join(h, b, "math-1", "student")
	recv(t, a)

	env, _ := signaling.NewEnvelope(signaling.EventLeaveRoom, nil)
	h.dispatch(a, env)

	got := recv(t, b)
	assert.Equal(t, signaling.EventUserLeft, got.Event)
	assert.Empty(t, a.RoomID)

	// Still registered: leaving a room is not disconnecting.
	_, registered := h.Clients["a"]
	assert.True(t, registered)
}

func TestMalformedJoinIgnored(t *testing.T) {
	h := NewHub()
	a := newTestClient(h, "a")
	recv(t, a)

	env, _ := signaling.NewEnvelope(signaling.EventJoinRoom, signaling.JoinRoomPayload{})
	h.dispatch(a, env)
	assert.Empty(t, h.Rooms)
}
