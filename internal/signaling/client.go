package signaling

import (
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	// How long to wait for the relay to assign a connection id.
	welcomeWait = 10 * time.Second
)

// Client manages the websocket connection to the signaling relay.
// It owns exactly one connection for the lifetime of a room session.
type Client struct {
	conn         *websocket.Conn
	relayURL     string
	connectionID string
	events       chan Event
	outgoing     chan *Envelope
	done         chan struct{}
	closed       bool
}

// NewClient creates a new signaling client
func NewClient(relayURL string) *Client {
	return &Client{
		relayURL: relayURL,
		events:   make(chan Event, 32),
		outgoing: make(chan *Envelope, 32),
		done:     make(chan struct{}, 1),
	}
}

// Connect establishes the websocket connection and blocks until the relay
// has assigned this client its connection id.
func (c *Client) Connect() error {
	u, err := url.Parse(c.relayURL)
	if err != nil {
		return fmt.Errorf("invalid relay URL: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.conn = conn
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// The welcome frame must arrive before anything else is useful.
	c.conn.SetReadDeadline(time.Now().Add(welcomeWait))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		c.conn.Close()
		return fmt.Errorf("relay did not assign a connection id: %w", err)
	}
	var env Envelope
	if err := msgpack.Unmarshal(data, &env); err != nil || env.Event != EventWelcome {
		c.conn.Close()
		return fmt.Errorf("unexpected first frame from relay")
	}
	var welcome WelcomePayload
	if err := env.DecodePayload(&welcome); err != nil {
		c.conn.Close()
		return fmt.Errorf("bad welcome payload: %w", err)
	}
	c.connectionID = welcome.SocketID

	go c.readPump()
	go c.writePump()

	return nil
}

// ConnectionID returns the relay-assigned identity of this client.
// Valid only after Connect has returned successfully.
func (c *Client) ConnectionID() string {
	return c.connectionID
}

// readPump reads envelopes from the websocket and surfaces them as typed
// events. A read failure surfaces as a final Disconnected event.
func (c *Client) readPump() {
	defer func() {
		c.conn.Close()
		close(c.events)
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				// Local close, not a relay failure.
			default:
				c.events <- Disconnected{Err: err}
			}
			return
		}

		var env Envelope
		if err := msgpack.Unmarshal(data, &env); err != nil {
			continue
		}
		if ev := decodeEvent(&env); ev != nil {
			c.events <- ev
		}
	}
}

// writePump writes envelopes to the websocket and sends periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env := <-c.outgoing:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			data, err := msgpack.Marshal(env)
			if err != nil {
				continue
			}
			if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// emit queues an envelope for the relay. Delivery is best-effort: a full
// outgoing buffer drops the frame rather than blocking the caller, matching
// the fire-and-forget contract of signaling.
func (c *Client) emit(event string, payload any) {
	env, err := NewEnvelope(event, payload)
	if err != nil {
		return
	}
	select {
	case c.outgoing <- env:
	default:
	}
}

// JoinRoom announces presence in a room.
func (c *Client) JoinRoom(roomID, userID, role string) {
	c.emit(EventJoinRoom, JoinRoomPayload{RoomID: roomID, UserID: userID, Role: role})
}

// LeaveRoom withdraws from a room.
func (c *Client) LeaveRoom(roomID string) {
	c.emit(EventLeaveRoom, RoomPayload{RoomID: roomID})
}

// RequestRoster asks the relay for the full participant list. The response
// arrives asynchronously as a Roster event.
func (c *Client) RequestRoster(roomID string) {
	c.emit(EventWho, RoomPayload{RoomID: roomID})
}

// Broadcast delivers an application event to every other room member.
func (c *Client) Broadcast(roomID, event string, payload any) {
	b, err := msgpack.Marshal(payload)
	if err != nil {
		return
	}
	c.emit(EventBroadcast, BroadcastPayload{RoomID: roomID, Event: event, Payload: b})
}

// SendOffer sends a session offer directed to one peer.
func (c *Client) SendOffer(to string, d Description) {
	c.emit(EventOffer, DescriptionPayload{To: to, Description: d})
}

// SendAnswer sends a session answer directed to one peer.
func (c *Client) SendAnswer(to string, d Description) {
	c.emit(EventAnswer, DescriptionPayload{To: to, Description: d})
}

// SendCandidate sends an ICE candidate directed to one peer.
func (c *Client) SendCandidate(to string, cand Candidate) {
	c.emit(EventICECandidate, CandidatePayload{To: to, Candidate: cand})
}

// Kick asks the relay to remove a participant from the room.
func (c *Client) Kick(roomID, targetID string) {
	c.emit(EventKickUser, KickUserPayload{RoomID: roomID, TargetID: targetID})
}

// Events returns the channel of decoded relay events. The channel is closed
// after a Disconnected event or a local Close.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Close closes the websocket connection and cleans up resources.
func (c *Client) Close() {
	if c.closed {
		return
	}
	c.closed = true

	close(c.done)
}
