package session

import (
	"log/slog"

	"github.com/edulive/classmesh/internal/signaling"
)

// reconcile converges the local peer set onto a relay-reported present set.
// Both the roster-snapshot path and the lighter presence-broadcast path end
// up here. The add and remove sets are fully computed before any teardown is
// applied, so a reconciliation never transiently recreates a connection it
// is closing in the same pass.
func (s *Session) reconcile(ids []string) {
	self := s.transport.ConnectionID()

	present := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" || id == self {
			continue
		}
		present[id] = struct{}{}
	}

	var stale []string
	for id := range s.peers {
		if _, ok := present[id]; !ok {
			stale = append(stale, id)
		}
	}

	var missing []string
	for id := range present {
		if _, ok := s.peers[id]; !ok {
			missing = append(missing, id)
		}
	}

	for _, id := range stale {
		s.removePeer(id)
	}
	for _, id := range missing {
		s.maybeOffer(s.addPeer(id))
	}
}

// handlePeerJoined reacts to an explicit join event. Duplicate joins for an
// already-known peer never create a second connection.
func (s *Session) handlePeerJoined(id string) {
	if id == "" || id == s.transport.ConnectionID() {
		return
	}
	if _, known := s.peers[id]; known {
		return
	}
	s.maybeOffer(s.addPeer(id))
}

// addPeer creates the peer entry together with its media connection, keeping
// the two sets in 1:1 correspondence. Returns nil when the connection could
// not be created; the next reconciliation retries.
func (s *Session) addPeer(id string) *Peer {
	if p, ok := s.peers[id]; ok {
		return p
	}

	conn, err := s.newConn()
	if err != nil {
		slog.Error("create media connection", "peer", id, "err", err)
		return nil
	}

	peer := &Peer{ID: id, Conn: conn, State: StateNew, DisplayName: s.names[id]}
	s.peers[id] = peer

	// Connection callbacks arrive on foreign goroutines; route them back
	// into the event loop and ignore them once the peer was replaced.
	conn.OnCandidate(func(c signaling.Candidate) {
		s.post(func() {
			if cur, ok := s.peers[id]; ok && cur == peer {
				s.transport.SendCandidate(id, c)
			}
		})
	})
	conn.OnRemoteTrack(func(streamID string) {
		s.post(func() {
			if cur, ok := s.peers[id]; ok && cur == peer {
				cur.RemoteStreamID = streamID
				cur.State = StateConnected
			}
		})
	})

	if err := s.pipeline.AttachTo(conn); err != nil {
		slog.Warn("attach local tracks", "peer", id, "err", err)
	}

	return peer
}

// maybeOffer starts negotiation when this side is the designated initiator.
// The pair's initiator is deterministic: the lexicographically smaller
// connection id offers, which removes the simultaneous-offer race entirely.
func (s *Session) maybeOffer(p *Peer) {
	if p == nil || p.State != StateNew {
		return
	}
	if s.transport.ConnectionID() >= p.ID {
		return
	}

	desc, err := p.Conn.CreateOffer()
	if err != nil {
		slog.Warn("create offer", "peer", p.ID, "err", err)
		return
	}
	s.transport.SendOffer(p.ID, desc)
	p.State = StateOfferSent
}

// removePeer closes and drops exactly one peer. Close errors are swallowed;
// departure must always win.
func (s *Session) removePeer(id string) {
	p, ok := s.peers[id]
	if !ok {
		return
	}
	delete(s.peers, id)

	if p.Conn != nil {
		if err := p.Conn.Close(); err != nil {
			slog.Debug("close connection", "peer", id, "err", err)
		}
		p.Conn = nil
	}
	p.State = StateClosed
}
