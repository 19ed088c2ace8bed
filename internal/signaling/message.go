package signaling

import "github.com/vmihailenco/msgpack/v5"

// Envelope is the frame exchanged with the relay. Every websocket binary
// frame carries exactly one msgpack-encoded Envelope.
type Envelope struct {
	Event   string             `msgpack:"event"`
	Payload msgpack.RawMessage `msgpack:"payload,omitempty"`
}

// Event name constants. The names and payload field names are the contract
// other room participants rely on; the msgpack encoding is ours.
const (
	// relay -> client, sent once after the websocket is established
	EventWelcome = "welcome"

	// client -> relay
	EventJoinRoom  = "join-room"
	EventLeaveRoom = "leave-room"
	EventWho       = "who"
	EventKickUser  = "kick-user"

	// relay -> client
	EventRoomUsers  = "room-users"
	EventUserJoined = "user-joined"
	EventUserLeft   = "user-left"
	EventKicked     = "kicked"

	// both directions (relay rewrites "to" into "from")
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventICECandidate = "ice-candidate"
	EventBroadcast    = "broadcast"
)

// Broadcast sub-events used by the application layer.
const (
	BroadcastMeta     = "meta"
	BroadcastChat     = "chat"
	BroadcastPresence = "presence"
)

// WelcomePayload carries the connection id the relay assigned this client.
type WelcomePayload struct {
	SocketID string `msgpack:"socketId"`
}

// JoinRoomPayload announces presence in a room.
type JoinRoomPayload struct {
	RoomID string `msgpack:"roomId"`
	UserID string `msgpack:"userId"`
	Role   string `msgpack:"role"`
}

// RoomPayload names a room (leave-room, who).
type RoomPayload struct {
	RoomID string `msgpack:"roomId"`
}

// RoomUsersPayload is the full roster snapshot for a room, self included.
type RoomUsersPayload struct {
	Peers []string `msgpack:"peers"`
}

// PresenceChangePayload is a single-peer join/leave notification.
type PresenceChangePayload struct {
	SocketID string `msgpack:"socketId"`
}

// Description is the SDP half of session negotiation.
type Description struct {
	Type string `msgpack:"type"`
	SDP  string `msgpack:"sdp"`
}

// Candidate mirrors an ICE candidate as it crosses the wire.
type Candidate struct {
	Candidate        string  `msgpack:"candidate"`
	SDPMid           *string `msgpack:"sdpMid,omitempty"`
	SDPMLineIndex    *uint16 `msgpack:"sdpMLineIndex,omitempty"`
	UsernameFragment *string `msgpack:"usernameFragment,omitempty"`
}

// DescriptionPayload carries an offer or answer. Clients set To; the relay
// replaces it with From before forwarding.
type DescriptionPayload struct {
	To          string      `msgpack:"to,omitempty"`
	From        string      `msgpack:"from,omitempty"`
	Description Description `msgpack:"description"`
}

// CandidatePayload carries one ICE candidate, addressed like an offer.
type CandidatePayload struct {
	To        string    `msgpack:"to,omitempty"`
	From      string    `msgpack:"from,omitempty"`
	Candidate Candidate `msgpack:"candidate"`
}

// BroadcastPayload is the application-level fan-out envelope. Outgoing
// messages carry RoomID; the relay strips it and stamps From on delivery.
type BroadcastPayload struct {
	RoomID  string             `msgpack:"roomId,omitempty"`
	Event   string             `msgpack:"event"`
	Payload msgpack.RawMessage `msgpack:"payload,omitempty"`
	From    string             `msgpack:"from,omitempty"`
}

// KickUserPayload asks the relay to remove a participant.
type KickUserPayload struct {
	RoomID   string `msgpack:"roomId"`
	TargetID string `msgpack:"targetId"`
}

// MetaPayload announces a display name to the room.
type MetaPayload struct {
	Name string `msgpack:"name"`
}

// ChatPayload is one chat message.
type ChatPayload struct {
	ID   string `msgpack:"id"`
	Text string `msgpack:"text"`
	User string `msgpack:"user"`
}

// PresencePayload lists the connection ids a participant believes present.
type PresencePayload struct {
	IDs []string `msgpack:"ids"`
}

// NewEnvelope encodes payload and wraps it with the event name.
func NewEnvelope(event string, payload any) (*Envelope, error) {
	if payload == nil {
		return &Envelope{Event: event}, nil
	}
	b, err := msgpack.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{Event: event, Payload: b}, nil
}

// DecodePayload decodes the envelope payload into the provided struct.
func (e *Envelope) DecodePayload(v any) error {
	return msgpack.Unmarshal(e.Payload, v)
}
