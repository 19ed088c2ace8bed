package signaling

import "github.com/vmihailenco/msgpack/v5"

// Event is a decoded relay event delivered to the session. Concrete types:
// Roster, PeerJoined, PeerLeft, Offer, Answer, RemoteCandidate,
// AppBroadcast, Kicked, Disconnected.
type Event any

// Roster is a full snapshot of who the relay believes is in the room,
// self included.
type Roster struct {
	Peers []string
}

// PeerJoined reports a single newcomer.
type PeerJoined struct {
	PeerID string
}

// PeerLeft reports a single departure.
type PeerLeft struct {
	PeerID string
}

// Offer is a session offer from a peer.
type Offer struct {
	From        string
	Description Description
}

// Answer is a session answer from a peer.
type Answer struct {
	From        string
	Description Description
}

// RemoteCandidate is an ICE candidate from a peer.
type RemoteCandidate struct {
	From      string
	Candidate Candidate
}

// AppBroadcast is an application-level message relayed from a peer
// (chat, meta, presence).
type AppBroadcast struct {
	From    string
	Event   string
	Payload msgpack.RawMessage
}

// Kicked means the relay forcibly removed this client from the room.
type Kicked struct {
	RoomID string
}

// Disconnected is the terminal event: the relay connection is gone.
type Disconnected struct {
	Err error
}

// decodeEvent maps a wire envelope onto a typed event. Malformed frames
// decode to nil and are dropped; signaling is best-effort and the periodic
// roster reconciliation recovers from anything missed.
func decodeEvent(env *Envelope) Event {
	switch env.Event {

	case EventRoomUsers:
		var p RoomUsersPayload
		if env.DecodePayload(&p) != nil {
			return nil
		}
		return Roster{Peers: p.Peers}

	case EventUserJoined:
		var p PresenceChangePayload
		if env.DecodePayload(&p) != nil || p.SocketID == "" {
			return nil
		}
		return PeerJoined{PeerID: p.SocketID}

	case EventUserLeft:
		var p PresenceChangePayload
		if env.DecodePayload(&p) != nil || p.SocketID == "" {
			return nil
		}
		return PeerLeft{PeerID: p.SocketID}

	case EventOffer:
		var p DescriptionPayload
		if env.DecodePayload(&p) != nil || p.From == "" {
			return nil
		}
		return Offer{From: p.From, Description: p.Description}

	case EventAnswer:
		var p DescriptionPayload
		if env.DecodePayload(&p) != nil || p.From == "" {
			return nil
		}
		return Answer{From: p.From, Description: p.Description}

	case EventICECandidate:
		var p CandidatePayload
		if env.DecodePayload(&p) != nil || p.From == "" {
			return nil
		}
		return RemoteCandidate{From: p.From, Candidate: p.Candidate}

	case EventBroadcast:
		var p BroadcastPayload
		if env.DecodePayload(&p) != nil || p.From == "" {
			return nil
		}
		return AppBroadcast{From: p.From, Event: p.Event, Payload: p.Payload}

	case EventKicked:
		var p RoomPayload
		if env.DecodePayload(&p) != nil {
			return nil
		}
		return Kicked{RoomID: p.RoomID}

	default:
		return nil
	}
}
