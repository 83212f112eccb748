package segment

import (
	"fmt"

	"github.com/maxhawkins/go-webrtcvad"
)

// WebRTCVAD adapts the webrtcvad voice-activity detector to the VAD
// interface. Aggressiveness modes range from 1 (least) to 3 (most).
type WebRTCVAD struct {
	vad *webrtcvad.VAD
}

// NewWebRTCVAD creates a webrtcvad instance with the given aggressiveness
func NewWebRTCVAD(mode int) (*WebRTCVAD, error) {
	if mode < 1 || mode > 3 {
		return nil, fmt.Errorf("vad mode must be 1-3, got %d", mode)
	}

	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create vad: %w", err)
	}

	if err := v.SetMode(mode); err != nil {
		return nil, fmt.Errorf("failed to set vad mode %d: %w", mode, err)
	}

	return &WebRTCVAD{vad: v}, nil
}

// IsSpeech reports whether the chunk contains speech
func (w *WebRTCVAD) IsSpeech(chunk []byte, sampleRate int) (bool, error) {
	return w.vad.Process(sampleRate, chunk)
}
