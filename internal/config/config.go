package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Silence detection methods. Each method enables a subset of the three
// sub-checks (VAD, max/current energy ratio, current energy); a chunk is
// silence only when every enabled sub-check agrees.
const (
	SilenceVADOnly       = "vad_only"
	SilenceRatioOnly     = "ratio_only"
	SilenceCurrentOnly   = "current_only"
	SilenceVADAndRatio   = "vad_and_ratio"
	SilenceVADAndCurrent = "vad_and_current"
	SilenceAll           = "all"
)

// Config represents the complete satellite configuration
type Config struct {
	Audio     AudioConfig     `yaml:"audio"`
	Segmenter SegmenterConfig `yaml:"segmenter"`
	Wake      WakeConfig      `yaml:"wake"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Sounds    SoundsConfig    `yaml:"sounds"`
	HTTP      HTTPConfig      `yaml:"http"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// AudioConfig contains microphone stream parameters
type AudioConfig struct {
	SampleRate      int `yaml:"sample_rate"`       // Hz
	SampleWidth     int `yaml:"sample_width"`      // bytes per sample
	Channels        int `yaml:"channels"`          // mono only
	ChunkSize       int `yaml:"chunk_size"`        // bytes per analysis chunk
	FramesPerBuffer int `yaml:"frames_per_buffer"` // portaudio buffer size
}

// SegmenterConfig contains voice-command segmentation parameters
type SegmenterConfig struct {
	SilenceMethod  string  `yaml:"silence_method"`
	VADMode        int     `yaml:"vad_mode"`        // webrtcvad aggressiveness, 1-3
	MaxTimeout     int     `yaml:"max_timeout"`     // seconds, session iteration ceiling
	SkipSeconds    float64 `yaml:"skip_seconds"`    // audio discarded after wake
	MinSeconds     float64 `yaml:"min_seconds"`     // minimum phrase duration
	MaxSeconds     float64 `yaml:"max_seconds"`     // maximum recording duration, 0 disables
	SpeechSeconds  float64 `yaml:"speech_seconds"`  // speech confirmation window
	SilenceSeconds float64 `yaml:"silence_seconds"` // end-of-phrase silence window
	BeforeSeconds  float64 `yaml:"before_seconds"`  // pre-roll kept before phrase onset

	// Energy thresholds. MaxEnergy of 0 enables auto-calibration for the
	// ratio check; the other two are required by the methods that use them.
	MaxEnergy                float64 `yaml:"max_energy"`
	MaxCurrentRatioThreshold float64 `yaml:"max_current_ratio_threshold"`
	CurrentEnergyThreshold   float64 `yaml:"current_energy_threshold"`
}

// WakeConfig contains wake-word detection configuration
type WakeConfig struct {
	AccessKey string   `yaml:"access_key"`
	Keywords  []string `yaml:"keywords"`
}

// UpstreamConfig contains speech-to-text and intent service configuration
type UpstreamConfig struct {
	SiteID  string `yaml:"site_id"`
	ASRURL  string `yaml:"asr_url"`
	NLUURL  string `yaml:"nlu_url"`
	Timeout int    `yaml:"timeout"` // seconds
}

// SoundsConfig contains feedback sound configuration
type SoundsConfig struct {
	WakeWAV   string `yaml:"wake_wav"`   // played after wake detection
	IntentWAV string `yaml:"intent_wav"` // played after intent recognition
	Device    string `yaml:"device"`     // ALSA device passed to aplay -D
}

// HTTPConfig contains monitoring HTTP server configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Default returns a configuration preloaded with the satellite defaults:
// 16 kHz 16-bit mono audio in 30 ms chunks, VAD-only silence detection.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleRate:      16000,
			SampleWidth:     2,
			Channels:        1,
			ChunkSize:       960,
			FramesPerBuffer: 1024,
		},
		Segmenter: SegmenterConfig{
			SilenceMethod:  SilenceVADOnly,
			VADMode:        3,
			MaxTimeout:     20,
			SkipSeconds:    0,
			MinSeconds:     1,
			MaxSeconds:     30,
			SpeechSeconds:  0.3,
			SilenceSeconds: 0.5,
			BeforeSeconds:  0.5,
		},
		Wake: WakeConfig{
			Keywords: []string{"bumblebee"},
		},
		Upstream: UpstreamConfig{
			Timeout: 10,
		},
		HTTP: HTTPConfig{
			Address: "0.0.0.0",
			Port:    8700,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Segmenter.Validate(); err != nil {
		return fmt.Errorf("segmenter config: %w", err)
	}

	if err := c.Wake.Validate(); err != nil {
		return fmt.Errorf("wake config: %w", err)
	}

	if err := c.Upstream.Validate(); err != nil {
		return fmt.Errorf("upstream config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", a.SampleRate)
	}

	if a.SampleWidth != 2 {
		return fmt.Errorf("sample_width must be 2 (16-bit PCM), got %d", a.SampleWidth)
	}

	if a.Channels != 1 {
		return fmt.Errorf("channels must be 1 (mono), got %d", a.Channels)
	}

	if a.ChunkSize <= 0 || a.ChunkSize%a.SampleWidth != 0 {
		return fmt.Errorf("chunk_size must be a positive multiple of sample_width, got %d", a.ChunkSize)
	}

	if a.FramesPerBuffer <= 0 {
		return fmt.Errorf("frames_per_buffer must be positive, got %d", a.FramesPerBuffer)
	}

	// webrtcvad accepts only 10, 20 or 30 ms frames
	chunkMs := a.ChunkMillis()
	if chunkMs != 10 && chunkMs != 20 && chunkMs != 30 {
		return fmt.Errorf("sample_rate and chunk_size must make for 10, 20, or 30 ms chunks, got %g ms", chunkMs)
	}

	return nil
}

// Validate validates segmenter configuration
func (s *SegmenterConfig) Validate() error {
	method := s.SilenceMethod
	switch method {
	case SilenceVADOnly, SilenceRatioOnly, SilenceCurrentOnly,
		SilenceVADAndRatio, SilenceVADAndCurrent, SilenceAll:
	default:
		return fmt.Errorf("unknown silence_method '%s'", method)
	}

	if s.UseVAD() && (s.VADMode < 1 || s.VADMode > 3) {
		return fmt.Errorf("vad_mode must be 1-3, got %d", s.VADMode)
	}

	if s.UseRatio() && s.MaxCurrentRatioThreshold <= 0 {
		return fmt.Errorf("max_current_ratio_threshold is required for silence_method '%s'", method)
	}

	if s.UseCurrent() && s.CurrentEnergyThreshold <= 0 {
		return fmt.Errorf("current_energy_threshold is required for silence_method '%s'", method)
	}

	if s.MaxTimeout < 1 {
		return fmt.Errorf("max_timeout must be at least 1 second, got %d", s.MaxTimeout)
	}

	if s.SkipSeconds < 0 {
		return fmt.Errorf("skip_seconds cannot be negative, got %f", s.SkipSeconds)
	}

	if s.MinSeconds <= 0 {
		return fmt.Errorf("min_seconds must be positive, got %f", s.MinSeconds)
	}

	if s.MaxSeconds < 0 {
		return fmt.Errorf("max_seconds cannot be negative, got %f", s.MaxSeconds)
	}

	if s.MaxSeconds > 0 && s.MaxSeconds <= s.MinSeconds {
		return fmt.Errorf("max_seconds (%f) must be greater than min_seconds (%f)", s.MaxSeconds, s.MinSeconds)
	}

	if s.SpeechSeconds <= 0 {
		return fmt.Errorf("speech_seconds must be positive, got %f", s.SpeechSeconds)
	}

	if s.SilenceSeconds <= 0 {
		return fmt.Errorf("silence_seconds must be positive, got %f", s.SilenceSeconds)
	}

	if s.BeforeSeconds < 0 {
		return fmt.Errorf("before_seconds cannot be negative, got %f", s.BeforeSeconds)
	}

	return nil
}

// Validate validates wake-word configuration
func (w *WakeConfig) Validate() error {
	if w.AccessKey == "" {
		return fmt.Errorf("access_key cannot be empty")
	}

	if len(w.Keywords) == 0 {
		return fmt.Errorf("at least one keyword is required")
	}

	return nil
}

// Validate validates upstream service configuration
func (u *UpstreamConfig) Validate() error {
	if u.SiteID == "" {
		return fmt.Errorf("site_id cannot be empty")
	}

	if u.ASRURL == "" {
		return fmt.Errorf("asr_url cannot be empty")
	}

	if u.NLUURL == "" {
		return fmt.Errorf("nlu_url cannot be empty")
	}

	if u.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", u.Timeout)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// ChunkMillis returns the duration of one analysis chunk in milliseconds
func (a *AudioConfig) ChunkMillis() float64 {
	samples := a.ChunkSize / a.SampleWidth
	return 1000 * float64(samples) / float64(a.SampleRate)
}

// ChunkSeconds returns the duration of one analysis chunk in seconds
func (a *AudioConfig) ChunkSeconds() float64 {
	samples := a.ChunkSize / a.SampleWidth
	return float64(samples) / float64(a.SampleRate)
}

// BytesPerSecond returns the PCM byte rate of the audio stream
func (a *AudioConfig) BytesPerSecond() int {
	return a.SampleRate * a.SampleWidth * a.Channels
}

// UseVAD reports whether the configured method includes the VAD sub-check
func (s *SegmenterConfig) UseVAD() bool {
	switch s.SilenceMethod {
	case SilenceVADOnly, SilenceVADAndRatio, SilenceVADAndCurrent, SilenceAll:
		return true
	}
	return false
}

// UseRatio reports whether the configured method includes the energy-ratio sub-check
func (s *SegmenterConfig) UseRatio() bool {
	switch s.SilenceMethod {
	case SilenceRatioOnly, SilenceVADAndRatio, SilenceAll:
		return true
	}
	return false
}

// UseCurrent reports whether the configured method includes the current-energy sub-check
func (s *SegmenterConfig) UseCurrent() bool {
	switch s.SilenceMethod {
	case SilenceCurrentOnly, SilenceVADAndCurrent, SilenceAll:
		return true
	}
	return false
}

// GetTimeoutDuration returns the upstream request timeout as a time.Duration
func (u *UpstreamConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(u.Timeout) * time.Second
}

// GetMaxTimeoutDuration returns the session iteration ceiling as a time.Duration
func (s *SegmenterConfig) GetMaxTimeoutDuration() time.Duration {
	return time.Duration(s.MaxTimeout) * time.Second
}
