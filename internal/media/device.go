package media

import (
	"fmt"

	"github.com/pion/webrtc/v4"
)

// DefaultDevice is the stock Device: it hands out sample tracks the host
// application feeds (opus audio, VP8 video). Screen capture needs a display
// grabber this process does not have, so CaptureScreen reports unavailable
// and screen sharing degrades to a no-op.
type DefaultDevice struct {
	// StreamID groups the tracks into one stream on the remote side.
	StreamID string
}

func (d *DefaultDevice) streamID() string {
	if d.StreamID == "" {
		return "classmesh"
	}
	return d.StreamID
}

func (d *DefaultDevice) CaptureMicrophone() (Track, error) {
	t, err := NewSampleTrack(KindAudio, webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, d.streamID())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAcquisition, err)
	}
	return t, nil
}

func (d *DefaultDevice) CaptureCamera(facing CameraFacing) (Track, error) {
	t, err := NewSampleTrack(KindVideo, webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, d.streamID())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAcquisition, err)
	}
	return t, nil
}

func (d *DefaultDevice) CaptureScreen() (Track, error) {
	return nil, ErrScreenUnavailable
}
