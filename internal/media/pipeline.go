package media

import (
	"fmt"
	"log/slog"

	"github.com/pion/webrtc/v4"
)

// TrackHost is the slice of a peer connection the pipeline needs: somewhere
// to attach local tracks and to swap the outbound video track.
type TrackHost interface {
	AddLocalTrack(track webrtc.TrackLocal) error
	ReplaceVideoTrack(track webrtc.TrackLocal) error
}

// Pipeline owns the local capture tracks and fans them out to peer
// connections. Mute state lives here as explicit booleans; toggling flips
// track.enabled and never renegotiates.
//
// The pipeline is mutated only from the session event loop, so it carries
// no locking of its own beyond what the tracks do internally.
type Pipeline struct {
	device Device

	mic    Track
	camera Track
	screen Track

	micEnabled   bool
	camEnabled   bool
	screenActive bool
}

func NewPipeline(device Device) *Pipeline {
	return &Pipeline{device: device}
}

// Acquire requests microphone and camera tracks. The camera prefers the
// front-facing constraint and falls back to an unconstrained request.
// Failure here is fatal to starting the session.
func (p *Pipeline) Acquire() error {
	cam, err := p.device.CaptureCamera(FacingFront)
	if err != nil {
		cam, err = p.device.CaptureCamera(FacingAny)
	}
	if err != nil {
		return fmt.Errorf("%w: camera: %v", ErrAcquisition, err)
	}

	mic, err := p.device.CaptureMicrophone()
	if err != nil {
		cam.Stop()
		return fmt.Errorf("%w: microphone: %v", ErrAcquisition, err)
	}

	p.camera = cam
	p.mic = mic
	p.micEnabled = true
	p.camEnabled = true
	return nil
}

// AttachTo adds the local outbound tracks to a newly created connection.
// While a screen share is active, late joiners still get the camera track
// first; the next share cycle corrects them. Known gap, kept deliberately.
func (p *Pipeline) AttachTo(host TrackHost) error {
	if p.mic != nil {
		if err := host.AddLocalTrack(p.mic.Local()); err != nil {
			return err
		}
	}
	if p.camera != nil {
		if err := host.AddLocalTrack(p.camera.Local()); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) MicrophoneEnabled() bool { return p.micEnabled }
func (p *Pipeline) CameraEnabled() bool     { return p.camEnabled }
func (p *Pipeline) ScreenShareActive() bool { return p.screenActive }

// SetMicrophoneEnabled toggles the audio track. Effective immediately for
// all peers; a no-op when no track exists (e.g. after teardown).
func (p *Pipeline) SetMicrophoneEnabled(on bool) {
	p.micEnabled = on
	if p.mic != nil {
		p.mic.SetEnabled(on)
	}
}

// SetCameraEnabled toggles the video track the same way.
func (p *Pipeline) SetCameraEnabled(on bool) {
	p.camEnabled = on
	if p.camera != nil {
		p.camera.SetEnabled(on)
	}
}

// StartScreenShare captures a screen track and substitutes it for the
// outbound video on every open connection. Unavailable or declined capture
// is a silent no-op and returns false. The onEnded callback fires when the
// capture ends on its own (user stops sharing outside the app).
func (p *Pipeline) StartScreenShare(hosts []TrackHost, onEnded func()) bool {
	if p.screenActive {
		return false
	}
	screen, err := p.device.CaptureScreen()
	if err != nil {
		slog.Debug("screen capture unavailable", "err", err)
		return false
	}

	p.screen = screen
	p.screenActive = true
	screen.OnEnded(onEnded)

	for _, host := range hosts {
		if err := host.ReplaceVideoTrack(screen.Local()); err != nil {
			slog.Debug("screen track substitution failed", "err", err)
		}
	}
	return true
}

// StopScreenShare restores the camera track on every open connection and
// stops the screen track. Safe with zero hosts and safe when no share is
// active.
func (p *Pipeline) StopScreenShare(hosts []TrackHost) {
	if !p.screenActive {
		return
	}
	p.screenActive = false

	if p.camera != nil {
		for _, host := range hosts {
			if err := host.ReplaceVideoTrack(p.camera.Local()); err != nil {
				slog.Debug("camera track restore failed", "err", err)
			}
		}
	}
	if p.screen != nil {
		p.screen.Stop()
		p.screen = nil
	}
}

// StopAll stops every local track. Each stop is attempted independently;
// errors inside teardown are swallowed by the tracks themselves.
func (p *Pipeline) StopAll() {
	for _, t := range []Track{p.mic, p.camera, p.screen} {
		if t != nil {
			t.Stop()
		}
	}
	p.mic, p.camera, p.screen = nil, nil, nil
	p.screenActive = false
}
