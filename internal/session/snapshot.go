package session

import "sort"

// ChatMessage is one entry in the session chat log.
type ChatMessage struct {
	ID     string
	Sender string
	Text   string
}

// Participant is the observable view of one remote peer.
type Participant struct {
	ID          string
	DisplayName string
	State       PeerState
	// HasMedia reports whether inbound media has arrived.
	HasMedia bool
}

// Snapshot is the full observable state of a session at one point in time.
// The room view consumes these; it never reaches into the session directly.
type Snapshot struct {
	ConnectionID string
	RoomID       string

	Participants []Participant
	Chat         []ChatMessage

	MicrophoneEnabled bool
	CameraEnabled     bool
	ScreenShareActive bool

	Closed bool
	// Reason is non-nil when the session ended on a fatal condition
	// (kicked, relay lost) rather than a local close.
	Reason error
}

// snapshot builds an immutable copy of the observable state. Only called
// from the event loop.
func (s *Session) snapshot() Snapshot {
	parts := make([]Participant, 0, len(s.peers))
	for id, p := range s.peers {
		name := p.DisplayName
		if name == "" {
			name = s.names[id]
		}
		parts = append(parts, Participant{
			ID:          id,
			DisplayName: name,
			State:       p.State,
			HasMedia:    p.RemoteStreamID != "",
		})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].ID < parts[j].ID })

	chat := make([]ChatMessage, len(s.chat))
	copy(chat, s.chat)

	return Snapshot{
		ConnectionID:      s.transport.ConnectionID(),
		RoomID:            s.roomID,
		Participants:      parts,
		Chat:              chat,
		MicrophoneEnabled: s.pipeline.MicrophoneEnabled(),
		CameraEnabled:     s.pipeline.CameraEnabled(),
		ScreenShareActive: s.pipeline.ScreenShareActive(),
		Closed:            s.down,
		Reason:            s.closeReason,
	}
}
