package session

import (
	"sync"

	pion "github.com/pion/webrtc/v4"

	"github.com/edulive/classmesh/internal/config"
	"github.com/edulive/classmesh/internal/signaling"
)

// pionConn adapts a pion peer connection to the MediaConn interface.
type pionConn struct {
	pc *pion.PeerConnection

	mu            sync.Mutex
	onCandidate   func(signaling.Candidate)
	onRemoteTrack func(string)
}

// NewPionFactory builds media connections from the configured ICE servers.
func NewPionFactory(cfg *config.Config) ConnFactory {
	return func() (MediaConn, error) {
		iceServers := []pion.ICEServer{{URLs: cfg.GetSTUNServers()}}

		turnServers := cfg.GetTURNServers()
		if turnServers != nil {
			username, password := cfg.GetTURNCredentials()
			iceServers = append(iceServers, pion.ICEServer{
				URLs:       turnServers,
				Username:   username,
				Credential: password,
			})
		}

		policy := pion.ICETransportPolicyAll
		if turnServers != nil && cfg.ForceRelay {
			policy = pion.ICETransportPolicyRelay
		}

		pc, err := pion.NewPeerConnection(pion.Configuration{
			ICEServers:         iceServers,
			ICETransportPolicy: policy,
		})
		if err != nil {
			return nil, err
		}

		c := &pionConn{pc: pc}

		pc.OnICECandidate(func(cand *pion.ICECandidate) {
			if cand == nil {
				return
			}
			c.mu.Lock()
			fn := c.onCandidate
			c.mu.Unlock()
			if fn != nil {
				fn(fromICEInit(cand.ToJSON()))
			}
		})

		pc.OnTrack(func(track *pion.TrackRemote, _ *pion.RTPReceiver) {
			c.mu.Lock()
			fn := c.onRemoteTrack
			c.mu.Unlock()
			if fn != nil {
				fn(track.StreamID())
			}
		})

		return c, nil
	}
}

func (c *pionConn) CreateOffer() (signaling.Description, error) {
	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return signaling.Description{}, err
	}
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return signaling.Description{}, err
	}
	return signaling.Description{Type: offer.Type.String(), SDP: offer.SDP}, nil
}

func (c *pionConn) HandleOffer(d signaling.Description) (signaling.Description, error) {
	remote := pion.SessionDescription{Type: pion.NewSDPType(d.Type), SDP: d.SDP}
	if err := c.pc.SetRemoteDescription(remote); err != nil {
		return signaling.Description{}, err
	}

	answer, err := c.pc.CreateAnswer(nil)
	if err != nil {
		return signaling.Description{}, err
	}
	if err := c.pc.SetLocalDescription(answer); err != nil {
		return signaling.Description{}, err
	}
	return signaling.Description{Type: answer.Type.String(), SDP: answer.SDP}, nil
}

func (c *pionConn) HandleAnswer(d signaling.Description) error {
	remote := pion.SessionDescription{Type: pion.NewSDPType(d.Type), SDP: d.SDP}
	return c.pc.SetRemoteDescription(remote)
}

func (c *pionConn) AddCandidate(cand signaling.Candidate) error {
	return c.pc.AddICECandidate(toICEInit(cand))
}

func (c *pionConn) AddLocalTrack(track pion.TrackLocal) error {
	_, err := c.pc.AddTrack(track)
	return err
}

// ReplaceVideoTrack swaps the outbound video at the sender level, without
// renegotiation.
func (c *pionConn) ReplaceVideoTrack(track pion.TrackLocal) error {
	for _, sender := range c.pc.GetSenders() {
		t := sender.Track()
		if t == nil || t.Kind() != pion.RTPCodecTypeVideo {
			continue
		}
		return sender.ReplaceTrack(track)
	}
	return nil
}

func (c *pionConn) OnCandidate(fn func(signaling.Candidate)) {
	c.mu.Lock()
	c.onCandidate = fn
	c.mu.Unlock()
}

func (c *pionConn) OnRemoteTrack(fn func(string)) {
	c.mu.Lock()
	c.onRemoteTrack = fn
	c.mu.Unlock()
}

func (c *pionConn) Close() error {
	return c.pc.Close()
}

func toICEInit(c signaling.Candidate) pion.ICECandidateInit {
	return pion.ICECandidateInit{
		Candidate:        c.Candidate,
		SDPMid:           c.SDPMid,
		SDPMLineIndex:    c.SDPMLineIndex,
		UsernameFragment: c.UsernameFragment,
	}
}

func fromICEInit(c pion.ICECandidateInit) signaling.Candidate {
	return signaling.Candidate{
		Candidate:        c.Candidate,
		SDPMid:           c.SDPMid,
		SDPMLineIndex:    c.SDPMLineIndex,
		UsernameFragment: c.UsernameFragment,
	}
}
