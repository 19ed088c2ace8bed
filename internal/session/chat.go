package session

import (
	"strings"

	"github.com/google/uuid"

	"github.com/edulive/classmesh/internal/signaling"
)

// sendChat appends to the local log optimistically and broadcasts the
// message with a locally unique id. Empty or whitespace-only text is a
// no-op, not an error.
func (s *Session) sendChat(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	id := uuid.NewString()
	s.seen[id] = struct{}{}
	s.chat = append(s.chat, ChatMessage{ID: id, Sender: s.identity.DisplayName, Text: text})

	s.transport.Broadcast(s.roomID, signaling.BroadcastChat, signaling.ChatPayload{
		ID:   id,
		Text: text,
		User: s.identity.DisplayName,
	})
}

// receiveChat deduplicates inbound broadcasts against the seen set, which
// also catches self-originated messages echoing back through the relay.
func (s *Session) receiveChat(from string, p signaling.ChatPayload) {
	if p.Text == "" {
		return
	}

	id := p.ID
	if id == "" {
		id = from + "-" + p.Text
	}
	if _, dup := s.seen[id]; dup {
		return
	}
	s.seen[id] = struct{}{}

	sender := p.User
	if sender == "" {
		sender = s.names[from]
	}
	if sender == "" {
		sender = "User"
	}
	s.chat = append(s.chat, ChatMessage{ID: id, Sender: sender, Text: p.Text})
}
