package segment

import (
	"errors"
	"strings"
	"testing"

	"github.com/SmartopiaHub/rhasspy-rpizero/internal/audio"
	"github.com/SmartopiaHub/rhasspy-rpizero/internal/config"
)

// stubVAD returns a fixed classification regardless of input
type stubVAD struct {
	speech bool
	err    error
}

func (s *stubVAD) IsSpeech(chunk []byte, sampleRate int) (bool, error) {
	return s.speech, s.err
}

// toneChunk builds 480 samples alternating +amp and -amp (30 ms at 16 kHz)
func toneChunk(amp int16) []byte {
	samples := make([]int16, 480)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = amp
		} else {
			samples[i] = -amp
		}
	}
	return audio.Int16ToBytes(samples)
}

func silentChunk() []byte {
	return make([]byte, 960)
}

// segmenterConfig returns a valid segmenter configuration for the given
// silence method
func segmenterConfig(method string) config.SegmenterConfig {
	return config.SegmenterConfig{
		SilenceMethod:            method,
		VADMode:                  3,
		MaxTimeout:               20,
		MinSeconds:               1,
		SpeechSeconds:            0.3,
		SilenceSeconds:           0.5,
		BeforeSeconds:            0.5,
		MaxCurrentRatioThreshold: 2,
		CurrentEnergyThreshold:   1000,
	}
}

func TestNewDetectorRequiresVAD(t *testing.T) {
	_, err := NewDetector(segmenterConfig(config.SilenceVADOnly), 16000, nil)
	if err == nil {
		t.Fatalf("Expected error for VAD method without a VAD primitive")
	}
	if !strings.Contains(err.Error(), "requires a VAD primitive") {
		t.Errorf("Expected VAD requirement error, got: %v", err)
	}
}

func TestDetectorCurrentEnergy(t *testing.T) {
	d, err := NewDetector(segmenterConfig(config.SilenceCurrentOnly), 16000, nil)
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}

	silent, err := d.IsSilence(silentChunk())
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if !silent {
		t.Errorf("Expected silent chunk to be classified as silence")
	}

	silent, err = d.IsSilence(toneChunk(8000))
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if silent {
		t.Errorf("Expected loud chunk to be classified as speech")
	}
}

func TestDetectorRatioCalibration(t *testing.T) {
	d, err := NewDetector(segmenterConfig(config.SilenceRatioOnly), 16000, nil)
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}

	// The first loud chunk sets the ceiling, so its ratio is 1 and it
	// classifies as speech
	silent, err := d.IsSilence(toneChunk(8000))
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if silent {
		t.Errorf("Expected calibration chunk to be classified as speech")
	}

	// A much quieter chunk after calibration has a large ratio
	silent, err = d.IsSilence(toneChunk(100))
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if !silent {
		t.Errorf("Expected quiet chunk after calibration to be classified as silence")
	}

	// Forgetting the calibration makes the quiet chunk the new ceiling
	d.ResetCalibration()
	silent, err = d.IsSilence(toneChunk(100))
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if silent {
		t.Errorf("Expected quiet chunk to be classified as speech after reset")
	}
}

func TestDetectorZeroEnergyRatio(t *testing.T) {
	d, err := NewDetector(segmenterConfig(config.SilenceRatioOnly), 16000, nil)
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}

	// Calibrate on a loud chunk first
	if _, err := d.IsSilence(toneChunk(8000)); err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}

	// A chunk with zero energy produces ratio 0 and therefore counts as
	// speech, matching the original recorder behavior
	silent, err := d.IsSilence(silentChunk())
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if silent {
		t.Errorf("Expected zero-energy chunk to be classified as speech under the ratio check")
	}
}

func TestDetectorFixedMaxEnergy(t *testing.T) {
	cfg := segmenterConfig(config.SilenceRatioOnly)
	cfg.MaxEnergy = 20000

	d, err := NewDetector(cfg, 16000, nil)
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}

	// With a fixed ceiling even the first quiet chunk classifies as
	// silence, no calibration pass needed
	silent, err := d.IsSilence(toneChunk(100))
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if !silent {
		t.Errorf("Expected quiet chunk to be classified as silence under a fixed ceiling")
	}
}

func TestDetectorANDComposition(t *testing.T) {
	tests := []struct {
		name       string
		vadSpeech  bool
		chunk      []byte
		wantSilent bool
	}{
		{"both silent", false, silentChunk(), true},
		{"vad hears speech", true, silentChunk(), false},
		{"energy hears speech", false, toneChunk(8000), false},
		{"both hear speech", true, toneChunk(8000), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDetector(segmenterConfig(config.SilenceVADAndCurrent), 16000, &stubVAD{speech: tt.vadSpeech})
			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}

			silent, err := d.IsSilence(tt.chunk)
			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			if silent != tt.wantSilent {
				t.Errorf("IsSilence = %v, want %v", silent, tt.wantSilent)
			}
		})
	}
}

func TestDetectorVADError(t *testing.T) {
	d, err := NewDetector(segmenterConfig(config.SilenceVADOnly), 16000, &stubVAD{err: errors.New("bad frame")})
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}

	if _, err := d.IsSilence(silentChunk()); err == nil {
		t.Errorf("Expected VAD error to propagate")
	}
}
