package segment

import (
	"fmt"

	"github.com/SmartopiaHub/rhasspy-rpizero/internal/audio"
	"github.com/SmartopiaHub/rhasspy-rpizero/internal/config"
)

// VAD is the voice-activity-detection primitive consumed by the detector.
// Chunks must be 10, 20 or 30 ms of 16-bit mono PCM at the given rate.
type VAD interface {
	IsSpeech(chunk []byte, sampleRate int) (bool, error)
}

// Detector classifies individual audio chunks as speech or silence by
// AND-composing the sub-checks enabled by the configured silence method:
// a chunk is silence only when every enabled sub-check reports silence.
type Detector struct {
	useVAD     bool
	useRatio   bool
	useCurrent bool

	vad        VAD
	sampleRate int

	// Ratio check calibration. When no fixed ceiling is configured the
	// maximum energy is learned from the loudest chunk seen so far.
	maxEnergy        float64
	fixedMaxEnergy   float64
	dynamicMaxEnergy bool

	ratioThreshold   float64
	currentThreshold float64
}

// NewDetector creates a silence detector for the configured method. The
// VAD primitive is required for VAD-based methods and ignored otherwise.
func NewDetector(cfg config.SegmenterConfig, sampleRate int, vad VAD) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Detector{
		useVAD:           cfg.UseVAD(),
		useRatio:         cfg.UseRatio(),
		useCurrent:       cfg.UseCurrent(),
		vad:              vad,
		sampleRate:       sampleRate,
		fixedMaxEnergy:   cfg.MaxEnergy,
		maxEnergy:        cfg.MaxEnergy,
		dynamicMaxEnergy: cfg.MaxEnergy <= 0,
		ratioThreshold:   cfg.MaxCurrentRatioThreshold,
		currentThreshold: cfg.CurrentEnergyThreshold,
	}

	if d.useVAD && vad == nil {
		return nil, fmt.Errorf("silence_method '%s' requires a VAD primitive", cfg.SilenceMethod)
	}

	return d, nil
}

// IsSilence reports whether chunk contains only silence
func (d *Detector) IsSilence(chunk []byte) (bool, error) {
	allSilence := true

	if d.useVAD {
		speech, err := d.vad.IsSpeech(chunk, d.sampleRate)
		if err != nil {
			return false, fmt.Errorf("vad: %w", err)
		}
		allSilence = allSilence && !speech
	}

	if d.useRatio || d.useCurrent {
		energy := audio.DebiasedEnergy(chunk)

		if d.useRatio {
			if d.dynamicMaxEnergy && energy > d.maxEnergy {
				d.maxEnergy = energy
			}

			// A zero-energy chunk yields ratio 0 and is therefore
			// classified as non-silence. Carried over from the original
			// recorder; arguably wrong, but changing it would alter
			// phrase boundaries in deployed setups.
			var ratio float64
			if energy > 0 {
				ratio = d.maxEnergy / energy
			}
			allSilence = allSilence && (ratio > d.ratioThreshold)
		}

		if d.useCurrent {
			allSilence = allSilence && (energy < d.currentThreshold)
		}
	}

	return allSilence, nil
}

// ResetCalibration forgets the learned maximum energy. Called at the
// start of each recording session so calibration never leaks between
// attempts; fixed ceilings are unaffected.
func (d *Detector) ResetCalibration() {
	if d.dynamicMaxEnergy {
		d.maxEnergy = 0
	} else {
		d.maxEnergy = d.fixedMaxEnergy
	}
}
