package satellite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SmartopiaHub/rhasspy-rpizero/internal/audio"
	"github.com/SmartopiaHub/rhasspy-rpizero/internal/config"
	"github.com/SmartopiaHub/rhasspy-rpizero/internal/metrics"
	"github.com/SmartopiaHub/rhasspy-rpizero/internal/segment"
)

// WakeDetector is the wake-word engine consumed by the loop
type WakeDetector interface {
	FrameLength() int
	SampleRate() int
	Process(frame []int16) (int, error)
	Keyword(index int) string
}

// CommandRecorder records one voice command from the audio source
type CommandRecorder interface {
	Record(ctx context.Context, src audio.Source) (*segment.VoiceCommand, error)
}

// Upstream forwards captured commands to the remote services
type Upstream interface {
	Transcribe(ctx context.Context, wavData []byte) (string, error)
	Recognize(ctx context.Context, text string) (json.RawMessage, error)
}

// SoundPlayer plays feedback sounds
type SoundPlayer interface {
	Play(path string) error
}

// Loop alternates between wake-word listening and command recording on a
// single goroutine; the microphone is the only shared resource and both
// phases read it sequentially.
type Loop struct {
	audioCfg config.AudioConfig
	sounds   config.SoundsConfig
	logger   *slog.Logger

	mic      audio.Source
	wake     WakeDetector
	recorder CommandRecorder
	upstream Upstream
	player   SoundPlayer
	metrics  *metrics.Metrics

	// Statistics
	wakeDetections uint64
	commandsSent   uint64
	recordExpiries uint64
	recordFailures uint64
	sourceFaults   uint64
	lastWake       time.Time
	lastTranscript string

	mu sync.RWMutex
}

// LoopStats represents satellite loop statistics
type LoopStats struct {
	WakeDetections uint64    `json:"wake_detections"`
	CommandsSent   uint64    `json:"commands_sent"`
	RecordExpiries uint64    `json:"record_expiries"`
	RecordFailures uint64    `json:"record_failures"`
	SourceFaults   uint64    `json:"source_faults"`
	LastWake       time.Time `json:"last_wake"`
	LastTranscript string    `json:"last_transcript"`
}

// NewLoop wires the satellite loop together. The wake detector dictates
// the sample rate; a mismatch with the audio configuration is fatal.
func NewLoop(audioCfg config.AudioConfig, sounds config.SoundsConfig, logger *slog.Logger,
	mic audio.Source, wake WakeDetector, recorder CommandRecorder, upstream Upstream,
	player SoundPlayer, m *metrics.Metrics) (*Loop, error) {

	if wake.SampleRate() != audioCfg.SampleRate {
		return nil, fmt.Errorf("wake engine needs %d Hz audio but the stream is %d Hz",
			wake.SampleRate(), audioCfg.SampleRate)
	}

	return &Loop{
		audioCfg: audioCfg,
		sounds:   sounds,
		logger:   logger,
		mic:      mic,
		wake:     wake,
		recorder: recorder,
		upstream: upstream,
		player:   player,
		metrics:  m,
	}, nil
}

// Run blocks until ctx is cancelled or the microphone dies during wake
// listening. Cancellation is only observed between microphone reads.
func (l *Loop) Run(ctx context.Context) error {
	frame := make([]byte, l.wake.FrameLength()*l.audioCfg.SampleWidth)

	l.logger.Info("listening for wake word")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := l.mic.Read(frame); err != nil {
			return fmt.Errorf("microphone read during wake listening: %w", err)
		}

		index, err := l.wake.Process(audio.BytesToInt16(frame))
		if err != nil {
			l.logger.Error("wake engine error", slog.String("error", err.Error()))
			continue
		}

		if index < 0 {
			continue
		}

		keyword := l.wake.Keyword(index)
		l.logger.Info("wake word detected", slog.String("keyword", keyword))
		l.recordWakeDetection(keyword)

		if err := l.player.Play(l.sounds.WakeWAV); err != nil {
			l.logger.Debug("wake sound skipped", slog.String("error", err.Error()))
		}

		l.handleCommand(ctx)

		l.logger.Info("listening for wake word")
	}
}

// handleCommand records one voice command and forwards it upstream.
// Every failure path returns the loop to wake listening; nothing here is
// allowed to crash the process.
func (l *Loop) handleCommand(ctx context.Context) {
	if l.metrics != nil {
		l.metrics.RecordRecordingStarted()
	}

	cmd, err := l.recorder.Record(ctx, l.mic)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		l.logger.Error("recording aborted by source fault", slog.String("error", err.Error()))
		l.recordSourceFault()
		return
	}

	if cmd == nil {
		l.logger.Info("recording expired without a phrase")
		l.recordExpiry()
		return
	}

	duration := commandDuration(cmd)

	if cmd.Result != segment.ResultSuccess {
		l.logger.Info("recording timed out",
			slog.Float64("duration_seconds", duration),
			slog.Int("events", len(cmd.Events)),
		)
		l.recordFailure(duration)
		return
	}

	l.logger.Info("voice command captured",
		slog.Float64("duration_seconds", duration),
		slog.Int("audio_bytes", len(cmd.AudioData)),
		slog.Int("events", len(cmd.Events)),
	)
	if l.metrics != nil {
		l.metrics.RecordRecordingSucceeded(duration, len(cmd.AudioData))
	}

	l.forwardCommand(ctx, cmd)
}

// forwardCommand encodes the command audio and runs the ASR and NLU
// requests. Upstream failures are reported to the operator and the
// command is dropped; there is no retry.
func (l *Loop) forwardCommand(ctx context.Context, cmd *segment.VoiceCommand) {
	wavData, err := audio.EncodeWAV(cmd.AudioData, l.audioCfg.SampleRate, l.audioCfg.SampleWidth, l.audioCfg.Channels)
	if err != nil {
		l.logger.Error("failed to encode command audio", slog.String("error", err.Error()))
		return
	}

	asrStart := time.Now()
	text, err := l.upstream.Transcribe(ctx, wavData)
	if l.metrics != nil {
		l.metrics.RecordASRRequest(time.Since(asrStart).Seconds(), err != nil)
	}
	if err != nil {
		l.logger.Error("speech-to-text failed", slog.String("error", err.Error()))
		return
	}

	l.logger.Info("command transcribed", slog.String("text", text))

	nluStart := time.Now()
	intent, err := l.upstream.Recognize(ctx, text)
	if l.metrics != nil {
		l.metrics.RecordNLURequest(time.Since(nluStart).Seconds(), err != nil)
	}
	if err != nil {
		l.logger.Error("intent recognition failed", slog.String("error", err.Error()))
		return
	}

	l.logger.Info("intent recognized", slog.String("intent", string(intent)))
	l.recordCommandSent(text)

	if err := l.player.Play(l.sounds.IntentWAV); err != nil {
		l.logger.Debug("intent sound skipped", slog.String("error", err.Error()))
	}
}

// commandDuration returns the session duration from the last event
func commandDuration(cmd *segment.VoiceCommand) float64 {
	if len(cmd.Events) == 0 {
		return 0
	}
	return cmd.Events[len(cmd.Events)-1].Time
}

// Statistics methods
func (l *Loop) recordWakeDetection(keyword string) {
	l.mu.Lock()
	l.wakeDetections++
	l.lastWake = time.Now()
	l.mu.Unlock()

	if l.metrics != nil {
		l.metrics.RecordWakeDetection(keyword)
	}
}

func (l *Loop) recordCommandSent(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.commandsSent++
	l.lastTranscript = text
}

func (l *Loop) recordExpiry() {
	l.mu.Lock()
	l.recordExpiries++
	l.mu.Unlock()

	if l.metrics != nil {
		l.metrics.RecordRecordingExpired()
	}
}

func (l *Loop) recordFailure(duration float64) {
	l.mu.Lock()
	l.recordFailures++
	l.mu.Unlock()

	if l.metrics != nil {
		l.metrics.RecordRecordingFailed(duration)
	}
}

func (l *Loop) recordSourceFault() {
	l.mu.Lock()
	l.sourceFaults++
	l.mu.Unlock()

	if l.metrics != nil {
		l.metrics.RecordSourceFault()
	}
}

// GetStats returns current loop statistics
func (l *Loop) GetStats() LoopStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return LoopStats{
		WakeDetections: l.wakeDetections,
		CommandsSent:   l.commandsSent,
		RecordExpiries: l.recordExpiries,
		RecordFailures: l.recordFailures,
		SourceFaults:   l.sourceFaults,
		LastWake:       l.lastWake,
		LastTranscript: l.lastTranscript,
	}
}
