package signaling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(t *testing.T, event string, payload any) *Envelope {
	t.Helper()
	env, err := NewEnvelope(event, payload)
	require.NoError(t, err)
	return env
}

func TestDecodeRoster(t *testing.T) {
	ev := decodeEvent(envelope(t, EventRoomUsers, RoomUsersPayload{Peers: []string{"a", "b"}}))
	require.IsType(t, Roster{}, ev)
	assert.Equal(t, []string{"a", "b"}, ev.(Roster).Peers)
}

func TestDecodePresenceChanges(t *testing.T) {
	ev := decodeEvent(envelope(t, EventUserJoined, PresenceChangePayload{SocketID: "x"}))
	assert.Equal(t, PeerJoined{PeerID: "x"}, ev)

	ev = decodeEvent(envelope(t, EventUserLeft, PresenceChangePayload{SocketID: "x"}))
	assert.Equal(t, PeerLeft{PeerID: "x"}, ev)

	// A presence change without a subject is useless.
	assert.Nil(t, decodeEvent(envelope(t, EventUserJoined, PresenceChangePayload{})))
}

func TestDecodeNegotiation(t *testing.T) {
	desc := Description{Type: "offer", SDP: "v=0"}
	ev := decodeEvent(envelope(t, EventOffer, DescriptionPayload{From: "a", Description: desc}))
	assert.Equal(t, Offer{From: "a", Description: desc}, ev)

	ev = decodeEvent(envelope(t, EventAnswer, DescriptionPayload{From: "a", Description: Description{Type: "answer"}}))
	require.IsType(t, Answer{}, ev)

	ev = decodeEvent(envelope(t, EventICECandidate, CandidatePayload{From: "a", Candidate: Candidate{Candidate: "c"}}))
	assert.Equal(t, RemoteCandidate{From: "a", Candidate: Candidate{Candidate: "c"}}, ev)
}

func TestDecodeRejectsMissingSender(t *testing.T) {
	// Directed messages without a sender cannot be attributed to a peer
	// connection and are dropped.
	assert.Nil(t, decodeEvent(envelope(t, EventOffer, DescriptionPayload{Description: Description{Type: "offer"}})))
	assert.Nil(t, decodeEvent(envelope(t, EventAnswer, DescriptionPayload{})))
	assert.Nil(t, decodeEvent(envelope(t, EventICECandidate, CandidatePayload{})))
	assert.Nil(t, decodeEvent(envelope(t, EventBroadcast, BroadcastPayload{Event: BroadcastChat})))
}

func TestDecodeBroadcast(t *testing.T) {
	ev := decodeEvent(envelope(t, EventBroadcast, BroadcastPayload{From: "a", Event: BroadcastMeta}))
	require.IsType(t, AppBroadcast{}, ev)
	b := ev.(AppBroadcast)
	assert.Equal(t, "a", b.From)
	assert.Equal(t, BroadcastMeta, b.Event)
}

func TestDecodeKicked(t *testing.T) {
	ev := decodeEvent(envelope(t, EventKicked, RoomPayload{RoomID: "math-1"}))
	assert.Equal(t, Kicked{RoomID: "math-1"}, ev)
}

func TestDecodeMalformedPayload(t *testing.T) {
	assert.Nil(t, decodeEvent(&Envelope{Event: EventRoomUsers, Payload: []byte{0xc1}}))
}

func TestDecodeUnknownEvent(t *testing.T) {
	assert.Nil(t, decodeEvent(envelope(t, "some-future-event", nil)))
}
