package media

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	pionmedia "github.com/pion/webrtc/v4/pkg/media"
)

// Sample is a raw media sample fed into a SampleTrack.
type Sample = pionmedia.Sample

var (
	// ErrAcquisition means no capture device could provide local media.
	// Fatal to starting a session.
	ErrAcquisition = errors.New("media acquisition failed")

	// ErrScreenUnavailable means screen capture is not supported or was
	// declined. Never fatal; StartScreenShare turns it into a no-op.
	ErrScreenUnavailable = errors.New("screen capture unavailable")
)

// TrackKind distinguishes audio and video tracks.
type TrackKind string

const (
	KindAudio TrackKind = "audio"
	KindVideo TrackKind = "video"
)

// CameraFacing is the capture constraint for camera tracks.
type CameraFacing string

const (
	// FacingFront prefers the user-facing camera.
	FacingFront CameraFacing = "user"

	// FacingAny places no constraint on the camera.
	FacingAny CameraFacing = ""
)

// Track is one local capture track. Muting is modeled as an explicit enabled
// flag, never as track removal, so re-enabling needs no renegotiation.
type Track interface {
	ID() string
	Kind() TrackKind
	Enabled() bool
	SetEnabled(bool)
	// Stop ends capture for good. Safe to call more than once.
	Stop()
	// OnEnded registers a callback for the track ending on its own,
	// e.g. the user stopping a screen share outside the app.
	OnEnded(func())
	// Local exposes the track for attachment to peer connections.
	Local() webrtc.TrackLocal
}

// Device produces capture tracks. The session core never touches capture
// hardware directly, which keeps the pipeline testable without devices.
type Device interface {
	CaptureMicrophone() (Track, error)
	CaptureCamera(facing CameraFacing) (Track, error)
	CaptureScreen() (Track, error)
}

// SampleTrack is a pion-backed Track fed by the host application through
// WriteSample. Samples written while the track is disabled are dropped,
// which is what mute means on the wire.
type SampleTrack struct {
	local *webrtc.TrackLocalStaticSample
	kind  TrackKind

	mu      sync.Mutex
	enabled bool
	stopped bool
	onEnded func()
}

// NewSampleTrack builds an enabled track with the given codec capability.
func NewSampleTrack(kind TrackKind, codec webrtc.RTPCodecCapability, streamID string) (*SampleTrack, error) {
	local, err := webrtc.NewTrackLocalStaticSample(codec, uuid.NewString(), streamID)
	if err != nil {
		return nil, err
	}
	return &SampleTrack{local: local, kind: kind, enabled: true}, nil
}

func (t *SampleTrack) ID() string      { return t.local.ID() }
func (t *SampleTrack) Kind() TrackKind { return t.kind }

func (t *SampleTrack) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

func (t *SampleTrack) SetEnabled(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = on
}

func (t *SampleTrack) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *SampleTrack) OnEnded(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onEnded = fn
}

// End marks the track as ended by its source and fires the OnEnded callback
// once. The screen-share driver calls this when the user stops sharing.
func (t *SampleTrack) End() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	fn := t.onEnded
	t.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (t *SampleTrack) Local() webrtc.TrackLocal { return t.local }

// WriteSample forwards a media sample unless the track is muted or stopped.
func (t *SampleTrack) WriteSample(sample Sample) error {
	t.mu.Lock()
	ok := t.enabled && !t.stopped
	t.mu.Unlock()
	if !ok {
		return nil
	}
	return t.local.WriteSample(sample)
}
