package wake

import (
	"fmt"
	"strings"

	porcupine "github.com/Picovoice/porcupine/binding/go/v3"

	"github.com/SmartopiaHub/rhasspy-rpizero/internal/config"
)

// builtinKeywords maps config keyword names to Porcupine built-ins
var builtinKeywords = map[string]porcupine.BuiltInKeyword{
	"alexa":       porcupine.ALEXA,
	"americano":   porcupine.AMERICANO,
	"blueberry":   porcupine.BLUEBERRY,
	"bumblebee":   porcupine.BUMBLEBEE,
	"computer":    porcupine.COMPUTER,
	"grapefruit":  porcupine.GRAPEFRUIT,
	"grasshopper": porcupine.GRASSHOPPER,
	"hey google":  porcupine.HEY_GOOGLE,
	"hey siri":    porcupine.HEY_SIRI,
	"jarvis":      porcupine.JARVIS,
	"ok google":   porcupine.OK_GOOGLE,
	"picovoice":   porcupine.PICOVOICE,
	"porcupine":   porcupine.PORCUPINE,
	"terminator":  porcupine.TERMINATOR,
}

// Detector listens for configured wake words in fixed-length PCM frames.
// Frame length and sample rate are dictated by the underlying engine.
type Detector struct {
	engine   porcupine.Porcupine
	keywords []string
}

// NewDetector creates a Porcupine-backed wake-word detector
func NewDetector(cfg config.WakeConfig) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	builtins, err := resolveKeywords(cfg.Keywords)
	if err != nil {
		return nil, err
	}

	d := &Detector{
		engine: porcupine.Porcupine{
			AccessKey:       cfg.AccessKey,
			BuiltInKeywords: builtins,
		},
		keywords: cfg.Keywords,
	}

	if err := d.engine.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize wake engine: %w", err)
	}

	return d, nil
}

// resolveKeywords validates keyword names against the built-in set
func resolveKeywords(names []string) ([]porcupine.BuiltInKeyword, error) {
	builtins := make([]porcupine.BuiltInKeyword, 0, len(names))
	for _, name := range names {
		kw, ok := builtinKeywords[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown wake keyword '%s'", name)
		}
		builtins = append(builtins, kw)
	}
	return builtins, nil
}

// FrameLength returns the number of samples per detection frame
func (d *Detector) FrameLength() int {
	return porcupine.FrameLength
}

// SampleRate returns the sample rate required by the engine
func (d *Detector) SampleRate() int {
	return porcupine.SampleRate
}

// Process scans one frame of samples. It returns the index of the
// detected keyword, or a negative value when none matched.
func (d *Detector) Process(frame []int16) (int, error) {
	index, err := d.engine.Process(frame)
	if err != nil {
		return -1, fmt.Errorf("wake engine process: %w", err)
	}
	return index, nil
}

// Keyword returns the configured keyword name for a detection index
func (d *Detector) Keyword(index int) string {
	if index < 0 || index >= len(d.keywords) {
		return ""
	}
	return d.keywords[index]
}

// Close releases the engine resources
func (d *Detector) Close() error {
	return d.engine.Delete()
}
