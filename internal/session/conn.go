package session

import (
	"github.com/edulive/classmesh/internal/media"
	"github.com/edulive/classmesh/internal/signaling"
)

// Transport is the slice of the signaling client the session consumes.
// Every send is fire-and-forget: signaling is best-effort and the periodic
// roster reconciliation self-heals anything lost.
type Transport interface {
	ConnectionID() string
	JoinRoom(roomID, userID, role string)
	LeaveRoom(roomID string)
	RequestRoster(roomID string)
	Broadcast(roomID, event string, payload any)
	SendOffer(to string, d signaling.Description)
	SendAnswer(to string, d signaling.Description)
	SendCandidate(to string, c signaling.Candidate)
	Kick(roomID, targetID string)
	Events() <-chan signaling.Event
	Close()
}

// MediaConn is one media connection to one remote peer. Exactly one exists
// per known peer at any time.
type MediaConn interface {
	media.TrackHost

	// CreateOffer generates a session offer and applies it locally.
	CreateOffer() (signaling.Description, error)

	// HandleOffer applies a remote offer and returns the local answer.
	HandleOffer(d signaling.Description) (signaling.Description, error)

	// HandleAnswer applies a remote answer.
	HandleAnswer(d signaling.Description) error

	// AddCandidate applies a remote ICE candidate.
	AddCandidate(c signaling.Candidate) error

	// OnCandidate registers the sink for locally gathered candidates.
	OnCandidate(fn func(signaling.Candidate))

	// OnRemoteTrack fires when inbound media arrives; the stream id
	// identifies the remote stream.
	OnRemoteTrack(fn func(streamID string))

	Close() error
}

// ConnFactory creates a fresh media connection.
type ConnFactory func() (MediaConn, error)
