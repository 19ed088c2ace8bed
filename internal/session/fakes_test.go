package session

import (
	"fmt"

	"github.com/pion/webrtc/v4"

	"github.com/edulive/classmesh/internal/media"
	"github.com/edulive/classmesh/internal/signaling"
)

// --- transport fake ---

type directedDesc struct {
	to   string
	desc signaling.Description
}

type directedCand struct {
	to   string
	cand signaling.Candidate
}

type broadcastRec struct {
	event   string
	payload any
}

type fakeTransport struct {
	id string

	joins      []string
	leaves     []string
	rosterReqs int
	broadcasts []broadcastRec
	offers     []directedDesc
	answers    []directedDesc
	candidates []directedCand
	kicks      [][2]string
	closed     bool

	events chan signaling.Event
}

func newFakeTransport(id string) *fakeTransport {
	return &fakeTransport{id: id, events: make(chan signaling.Event, 32)}
}

func (t *fakeTransport) ConnectionID() string { return t.id }

func (t *fakeTransport) JoinRoom(roomID, userID, role string) {
	t.joins = append(t.joins, roomID)
}

func (t *fakeTransport) LeaveRoom(roomID string) {
	t.leaves = append(t.leaves, roomID)
}

func (t *fakeTransport) RequestRoster(roomID string) { t.rosterReqs++ }

func (t *fakeTransport) Broadcast(roomID, event string, payload any) {
	t.broadcasts = append(t.broadcasts, broadcastRec{event: event, payload: payload})
}

func (t *fakeTransport) SendOffer(to string, d signaling.Description) {
	t.offers = append(t.offers, directedDesc{to: to, desc: d})
}

func (t *fakeTransport) SendAnswer(to string, d signaling.Description) {
	t.answers = append(t.answers, directedDesc{to: to, desc: d})
}

func (t *fakeTransport) SendCandidate(to string, c signaling.Candidate) {
	t.candidates = append(t.candidates, directedCand{to: to, cand: c})
}

func (t *fakeTransport) Kick(roomID, targetID string) {
	t.kicks = append(t.kicks, [2]string{roomID, targetID})
}

func (t *fakeTransport) Events() <-chan signaling.Event { return t.events }

func (t *fakeTransport) Close() { t.closed = true }

// --- media connection fake ---

type fakeConn struct {
	seq    int
	closed bool

	closeErr       error
	offerErr       error
	handleOfferErr error

	attached []webrtc.TrackLocal
	replaced []webrtc.TrackLocal

	handledOffers  []signaling.Description
	handledAnswers []signaling.Description
	candidates     []signaling.Candidate

	onCandidate   func(signaling.Candidate)
	onRemoteTrack func(string)
}

func (c *fakeConn) CreateOffer() (signaling.Description, error) {
	if c.offerErr != nil {
		return signaling.Description{}, c.offerErr
	}
	return signaling.Description{Type: "offer", SDP: fmt.Sprintf("offer-sdp-%d", c.seq)}, nil
}

func (c *fakeConn) HandleOffer(d signaling.Description) (signaling.Description, error) {
	if c.handleOfferErr != nil {
		return signaling.Description{}, c.handleOfferErr
	}
	c.handledOffers = append(c.handledOffers, d)
	return signaling.Description{Type: "answer", SDP: fmt.Sprintf("answer-sdp-%d", c.seq)}, nil
}

func (c *fakeConn) HandleAnswer(d signaling.Description) error {
	c.handledAnswers = append(c.handledAnswers, d)
	return nil
}

func (c *fakeConn) AddCandidate(cand signaling.Candidate) error {
	c.candidates = append(c.candidates, cand)
	return nil
}

func (c *fakeConn) AddLocalTrack(t webrtc.TrackLocal) error {
	c.attached = append(c.attached, t)
	return nil
}

func (c *fakeConn) ReplaceVideoTrack(t webrtc.TrackLocal) error {
	c.replaced = append(c.replaced, t)
	return nil
}

func (c *fakeConn) OnCandidate(fn func(signaling.Candidate)) { c.onCandidate = fn }
func (c *fakeConn) OnRemoteTrack(fn func(streamID string))   { c.onRemoteTrack = fn }

func (c *fakeConn) Close() error {
	c.closed = true
	return c.closeErr
}

type fakeFactory struct {
	conns []*fakeConn
	err   error
}

func (f *fakeFactory) new() (MediaConn, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := &fakeConn{seq: len(f.conns)}
	f.conns = append(f.conns, c)
	return c, nil
}

// open returns the factory's conns that are still open.
func (f *fakeFactory) open() []*fakeConn {
	var out []*fakeConn
	for _, c := range f.conns {
		if !c.closed {
			out = append(out, c)
		}
	}
	return out
}

// --- media device fake ---

type fakeTrack struct {
	kind    media.TrackKind
	enabled bool
	stopped bool
	onEnded func()
	local   webrtc.TrackLocal
}

func newFakeTrack(kind media.TrackKind) *fakeTrack {
	mime := webrtc.MimeTypeVP8
	if kind == media.KindAudio {
		mime = webrtc.MimeTypeOpus
	}
	local, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: mime}, string(kind)+"-track", "test-stream")
	if err != nil {
		panic(err)
	}
	return &fakeTrack{kind: kind, enabled: true, local: local}
}

func (t *fakeTrack) ID() string               { return t.local.ID() }
func (t *fakeTrack) Kind() media.TrackKind    { return t.kind }
func (t *fakeTrack) Enabled() bool            { return t.enabled }
func (t *fakeTrack) SetEnabled(on bool)       { t.enabled = on }
func (t *fakeTrack) Stop()                    { t.stopped = true }
func (t *fakeTrack) OnEnded(fn func())        { t.onEnded = fn }
func (t *fakeTrack) Local() webrtc.TrackLocal { return t.local }

// end simulates the capture source ending on its own.
func (t *fakeTrack) end() {
	if t.onEnded != nil {
		t.onEnded()
	}
}

type fakeDevice struct {
	mic    *fakeTrack
	camera *fakeTrack
	screen *fakeTrack

	frontFails bool
	noDevices  bool
	noScreen   bool

	cameraRequests []media.CameraFacing
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		mic:    newFakeTrack(media.KindAudio),
		camera: newFakeTrack(media.KindVideo),
		screen: newFakeTrack(media.KindVideo),
	}
}

func (d *fakeDevice) CaptureMicrophone() (media.Track, error) {
	if d.noDevices {
		return nil, media.ErrAcquisition
	}
	return d.mic, nil
}

func (d *fakeDevice) CaptureCamera(facing media.CameraFacing) (media.Track, error) {
	d.cameraRequests = append(d.cameraRequests, facing)
	if d.noDevices {
		return nil, media.ErrAcquisition
	}
	if d.frontFails && facing == media.FacingFront {
		return nil, media.ErrAcquisition
	}
	return d.camera, nil
}

func (d *fakeDevice) CaptureScreen() (media.Track, error) {
	if d.noScreen {
		return nil, media.ErrScreenUnavailable
	}
	return d.screen, nil
}

// --- harness ---

type testEnv struct {
	sess      *Session
	transport *fakeTransport
	factory   *fakeFactory
	device    *fakeDevice
	closedErr []error
}

// newTestEnv builds a session whose handlers the tests drive directly,
// without the background loop.
func newTestEnv(selfID string) *testEnv {
	env := &testEnv{
		transport: newFakeTransport(selfID),
		factory:   &fakeFactory{},
		device:    newFakeDevice(),
	}
	pipeline := media.NewPipeline(env.device)
	if err := pipeline.Acquire(); err != nil {
		panic(err)
	}

	env.sess = New(Config{
		RoomID:    "room-1",
		Identity:  Identity{UserID: "u1", DisplayName: "Alice", Role: "teacher"},
		Transport: env.transport,
		NewConn:   env.factory.new,
		Pipeline:  pipeline,
		OnClose:   func(err error) { env.closedErr = append(env.closedErr, err) },
	})
	return env
}
