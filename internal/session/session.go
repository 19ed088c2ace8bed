package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/edulive/classmesh/internal/media"
	"github.com/edulive/classmesh/internal/signaling"
	"github.com/vmihailenco/msgpack/v5"
)

const defaultRosterInterval = 15 * time.Second

// Identity is the local participant, supplied by the hosting application.
// Immutable for the session's lifetime. Role is an opaque string; the relay
// recognizes "teacher" for kicks.
type Identity struct {
	UserID      string
	DisplayName string
	Role        string
}

// Config wires a Session together.
type Config struct {
	RoomID    string
	Identity  Identity
	Transport Transport
	NewConn   ConnFactory
	Pipeline  *media.Pipeline

	// OnUpdate receives a state snapshot after every processed event.
	OnUpdate func(Snapshot)

	// OnClose fires when the session terminates on a fatal condition
	// (kicked, relay lost). The hosting view must close itself.
	OnClose func(error)

	// RosterInterval is the self-healing period; zero means the default.
	RosterInterval time.Duration
}

// Session is the aggregate root for one classroom instance. All mutable
// state (peers, chat log, media flags) is owned by a single event loop;
// relay events and local commands are delivered into that loop over
// channels, so no locking is needed and every handler runs to completion
// before the next one starts.
type Session struct {
	roomID    string
	identity  Identity
	transport Transport
	newConn   ConnFactory
	pipeline  *media.Pipeline

	peers map[string]*Peer
	names map[string]string
	chat  []ChatMessage
	seen  map[string]struct{}

	commands chan func()
	closed   chan struct{}

	down        bool
	closeReason error

	rosterEvery time.Duration
	onUpdate    func(Snapshot)
	onClose     func(error)
}

func New(cfg Config) *Session {
	interval := cfg.RosterInterval
	if interval <= 0 {
		interval = defaultRosterInterval
	}
	return &Session{
		roomID:      cfg.RoomID,
		identity:    cfg.Identity,
		transport:   cfg.Transport,
		newConn:     cfg.NewConn,
		pipeline:    cfg.Pipeline,
		peers:       make(map[string]*Peer),
		names:       make(map[string]string),
		seen:        make(map[string]struct{}),
		commands:    make(chan func(), 128),
		closed:      make(chan struct{}),
		rosterEvery: interval,
		onUpdate:    cfg.OnUpdate,
		onClose:     cfg.OnClose,
	}
}

// Start acquires local media, announces presence and launches the event
// loop. A media acquisition failure is fatal: the session never begins.
func (s *Session) Start() error {
	if err := s.pipeline.Acquire(); err != nil {
		return err
	}

	s.transport.JoinRoom(s.roomID, s.identity.UserID, s.identity.Role)
	s.transport.Broadcast(s.roomID, signaling.BroadcastMeta, signaling.MetaPayload{Name: s.identity.DisplayName})
	s.transport.RequestRoster(s.roomID)

	go s.loop()
	return nil
}

// loop is the single goroutine that owns all session state.
func (s *Session) loop() {
	ticker := time.NewTicker(s.rosterEvery)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-s.transport.Events():
			if !ok {
				s.shutdown(ErrRelayLost)
			} else {
				s.dispatch(ev)
			}

		case fn := <-s.commands:
			fn()

		case <-ticker.C:
			s.selfHeal()
		}

		s.notify()
		if s.down {
			return
		}
	}
}

// dispatch routes one relay event to its handler.
func (s *Session) dispatch(ev signaling.Event) {
	switch e := ev.(type) {

	case signaling.Roster:
		s.reconcile(e.Peers)

	case signaling.PeerJoined:
		s.handlePeerJoined(e.PeerID)

	case signaling.PeerLeft:
		s.removePeer(e.PeerID)

	case signaling.Offer:
		s.handleOffer(e.From, e.Description)

	case signaling.Answer:
		s.handleAnswer(e.From, e.Description)

	case signaling.RemoteCandidate:
		s.handleCandidate(e.From, e.Candidate)

	case signaling.AppBroadcast:
		s.handleBroadcast(e)

	case signaling.Kicked:
		if e.RoomID == s.roomID {
			s.shutdown(ErrKicked)
		}

	case signaling.Disconnected:
		s.shutdown(fmt.Errorf("%w: %v", ErrRelayLost, e.Err))
	}
}

// handleOffer drives the answering side. An offer from an unknown peer
// creates the connection first; an offer that the existing connection cannot
// take (a local offer is outstanding) replaces the negotiation state with a
// fresh connection instead of being rejected.
func (s *Session) handleOffer(from string, d signaling.Description) {
	p, ok := s.peers[from]
	if !ok {
		p = s.addPeer(from)
		if p == nil {
			return
		}
	}
	p.State = StateOfferReceived

	answer, err := p.Conn.HandleOffer(d)
	if err != nil {
		slog.Debug("replacing negotiation state", "peer", from, "err", err)
		s.removePeer(from)
		if p = s.addPeer(from); p == nil {
			return
		}
		p.State = StateOfferReceived
		if answer, err = p.Conn.HandleOffer(d); err != nil {
			// Still broken; the next roster reconciliation rebuilds it.
			return
		}
	}

	s.transport.SendAnswer(from, answer)
	p.State = StateAnswerSent
}

// handleAnswer applies an answer to the matching connection. An answer with
// no matching connection is dropped silently.
func (s *Session) handleAnswer(from string, d signaling.Description) {
	p, ok := s.peers[from]
	if !ok || p.Conn == nil {
		return
	}
	if err := p.Conn.HandleAnswer(d); err != nil {
		slog.Debug("dropping answer", "peer", from, "err", err)
	}
}

// handleCandidate applies a candidate to the named peer's connection.
// Candidates for unknown peers are dropped.
func (s *Session) handleCandidate(from string, c signaling.Candidate) {
	p, ok := s.peers[from]
	if !ok || p.Conn == nil {
		return
	}
	if err := p.Conn.AddCandidate(c); err != nil {
		slog.Debug("dropping candidate", "peer", from, "err", err)
	}
}

// handleBroadcast routes application-level sub-events.
func (s *Session) handleBroadcast(b signaling.AppBroadcast) {
	switch b.Event {

	case signaling.BroadcastMeta:
		var p signaling.MetaPayload
		if msgpack.Unmarshal(b.Payload, &p) != nil || p.Name == "" {
			return
		}
		s.names[b.From] = p.Name
		if peer, ok := s.peers[b.From]; ok {
			peer.DisplayName = p.Name
		}

	case signaling.BroadcastChat:
		var p signaling.ChatPayload
		if msgpack.Unmarshal(b.Payload, &p) != nil {
			return
		}
		s.receiveChat(b.From, p)

	case signaling.BroadcastPresence:
		var p signaling.PresencePayload
		if msgpack.Unmarshal(b.Payload, &p) != nil {
			return
		}
		s.reconcile(p.IDs)
	}
}

// selfHeal re-requests the roster and re-announces presence, bounding the
// time any leaked or missing connection can persist.
func (s *Session) selfHeal() {
	s.transport.RequestRoster(s.roomID)

	ids := make([]string, 0, len(s.peers)+1)
	ids = append(ids, s.transport.ConnectionID())
	for id := range s.peers {
		ids = append(ids, id)
	}
	s.transport.Broadcast(s.roomID, signaling.BroadcastPresence, signaling.PresencePayload{IDs: ids})
}

// post delivers a command into the event loop, or drops it if the session
// is already closed.
func (s *Session) post(fn func()) {
	select {
	case s.commands <- fn:
	case <-s.closed:
	}
}

// SetMicrophone toggles the audio track; no renegotiation.
func (s *Session) SetMicrophone(on bool) {
	s.post(func() { s.pipeline.SetMicrophoneEnabled(on) })
}

// SetCamera toggles the video track; no renegotiation.
func (s *Session) SetCamera(on bool) {
	s.post(func() { s.pipeline.SetCameraEnabled(on) })
}

// SendChat appends a message optimistically and broadcasts it.
func (s *Session) SendChat(text string) {
	s.post(func() { s.sendChat(text) })
}

// StartScreenShare substitutes the screen track on every open connection.
// Silently a no-op when capture is unavailable or declined.
func (s *Session) StartScreenShare() {
	s.post(s.startScreenShare)
}

// StopScreenShare restores the camera track everywhere.
func (s *Session) StopScreenShare() {
	s.post(func() { s.pipeline.StopScreenShare(s.trackHosts()) })
}

// KickPeer asks the relay to remove a participant; only meaningful for the
// teacher role, and the relay enforces that again.
func (s *Session) KickPeer(id string) {
	s.post(func() {
		if s.identity.Role == "teacher" {
			s.transport.Kick(s.roomID, id)
		}
	})
}

// Close tears the session down from the hosting view.
func (s *Session) Close() {
	s.post(func() { s.shutdown(nil) })
}

// Done is closed once the session has fully shut down.
func (s *Session) Done() <-chan struct{} {
	return s.closed
}

func (s *Session) startScreenShare() {
	s.pipeline.StartScreenShare(s.trackHosts(), func() {
		// Capture ended outside the app; revert on the event loop.
		s.post(func() { s.pipeline.StopScreenShare(s.trackHosts()) })
	})
}

func (s *Session) trackHosts() []media.TrackHost {
	hosts := make([]media.TrackHost, 0, len(s.peers))
	for _, p := range s.peers {
		hosts = append(hosts, p.Conn)
	}
	return hosts
}

// shutdown runs every teardown step independently and swallows per-step
// errors so one failing step never prevents the others.
func (s *Session) shutdown(reason error) {
	if s.down {
		return
	}
	s.down = true
	s.closeReason = reason

	for id, p := range s.peers {
		if p.Conn != nil {
			if err := p.Conn.Close(); err != nil {
				slog.Debug("close connection during teardown", "peer", id, "err", err)
			}
			p.Conn = nil
		}
		p.State = StateClosed
		delete(s.peers, id)
	}

	s.pipeline.StopAll()
	s.transport.LeaveRoom(s.roomID)
	s.transport.Close()

	close(s.closed)

	if reason != nil && s.onClose != nil {
		s.onClose(reason)
	}
}

func (s *Session) notify() {
	if s.onUpdate != nil {
		s.onUpdate(s.snapshot())
	}
}

// runPending drains queued commands without blocking. The event loop does
// this implicitly; tests drive handlers directly and call it explicitly.
func (s *Session) runPending() {
	for {
		select {
		case fn := <-s.commands:
			fn()
		default:
			return
		}
	}
}
