package segment

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/SmartopiaHub/rhasspy-rpizero/internal/audio"
	"github.com/SmartopiaHub/rhasspy-rpizero/internal/config"
)

// Recorder records one voice command at a time from a live audio source.
// It owns all mutable session state and is not safe for concurrent use;
// state is rebuilt from configuration at the start of every Record call,
// so nothing leaks between recording attempts.
type Recorder struct {
	detector *Detector
	logger   *slog.Logger

	// Immutable, derived once from configuration
	chunkSize       int
	chunkSeconds    float64
	maxIterations   int
	skipChunks      int
	speechChunks    int
	minPhraseChunks int
	silenceChunks   int
	beforeChunks    int
	maxChunks       int // 0 disables the duration budget

	// Session state, reset per Record call
	pending     []byte // partial-chunk accumulator
	preRoll     *chunkRing
	phrase      bytes.Buffer
	events      []Event
	elapsed     float64
	skipLeft    int
	speechLeft  int
	minLeft     int
	silenceLeft int
	maxLeft     int
	firstChunk  bool
	lastSpeech  bool
	inPhrase    bool
	afterPhrase bool
}

// NewRecorder creates a recorder for the given audio format and
// segmentation parameters. Construction fails fast on any configuration
// the engine cannot honor at run time.
func NewRecorder(audioCfg config.AudioConfig, segCfg config.SegmenterConfig, detector *Detector, logger *slog.Logger) (*Recorder, error) {
	if err := audioCfg.Validate(); err != nil {
		return nil, err
	}

	if err := segCfg.Validate(); err != nil {
		return nil, err
	}

	if detector == nil {
		return nil, fmt.Errorf("detector is required")
	}

	chunkSeconds := audioCfg.ChunkSeconds()

	r := &Recorder{
		detector:        detector,
		logger:          logger,
		chunkSize:       audioCfg.ChunkSize,
		chunkSeconds:    chunkSeconds,
		maxIterations:   int(math.Ceil(float64(segCfg.MaxTimeout*audioCfg.BytesPerSecond()) / float64(audioCfg.ChunkSize))),
		skipChunks:      chunksFor(segCfg.SkipSeconds, chunkSeconds),
		speechChunks:    chunksFor(segCfg.SpeechSeconds, chunkSeconds),
		minPhraseChunks: chunksFor(segCfg.MinSeconds, chunkSeconds),
		silenceChunks:   chunksFor(segCfg.SilenceSeconds, chunkSeconds),
		beforeChunks:    chunksFor(segCfg.BeforeSeconds, chunkSeconds),
	}

	if segCfg.MaxSeconds > 0 {
		r.maxChunks = chunksFor(segCfg.MaxSeconds, chunkSeconds)
	}

	r.preRoll = newChunkRing(r.beforeChunks)
	r.reset()

	return r, nil
}

// chunksFor converts a duration in seconds to a whole number of chunks
func chunksFor(seconds, chunkSeconds float64) int {
	return int(math.Ceil(seconds / chunkSeconds))
}

// reset rebuilds all session state from configuration
func (r *Recorder) reset() {
	r.pending = r.pending[:0]
	r.preRoll.reset()
	r.phrase.Reset()
	r.events = nil
	r.elapsed = 0
	r.skipLeft = r.skipChunks
	r.speechLeft = r.speechChunks
	r.minLeft = 0
	r.silenceLeft = 0
	r.maxLeft = r.maxChunks
	r.firstChunk = true
	r.lastSpeech = false
	r.inPhrase = false
	r.afterPhrase = false
	r.detector.ResetCalibration()
}

// Record drives the engine against src until a terminal result is
// reached or the iteration ceiling derived from max_timeout expires.
// A nil command with a nil error means the ceiling expired without a
// phrase; a non-nil error is a source fault and the session is void.
// Cancellation is only observed between chunk reads.
func (r *Recorder) Record(ctx context.Context, src audio.Source) (*VoiceCommand, error) {
	r.reset()

	buf := make([]byte, r.chunkSize)
	for i := 0; i < r.maxIterations; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := src.Read(buf); err != nil {
			return nil, fmt.Errorf("audio source read: %w", err)
		}

		cmd, err := r.ProcessAudio(buf)
		if err != nil {
			return nil, err
		}
		if cmd != nil {
			return cmd, nil
		}
	}

	r.logger.Debug("recording session expired without a phrase",
		slog.Int("iterations", r.maxIterations),
		slog.Float64("elapsed_seconds", r.elapsed),
	)
	return nil, nil
}

// ProcessAudio feeds raw audio of any length into the engine. Complete
// chunks are processed in arrival order; a partial remainder is retained
// for the next call. Returns the terminal command as soon as one chunk
// produces it, leaving any unprocessed audio behind.
func (r *Recorder) ProcessAudio(data []byte) (*VoiceCommand, error) {
	r.pending = append(r.pending, data...)

	offset := 0
	for len(r.pending)-offset >= r.chunkSize {
		chunk := r.pending[offset : offset+r.chunkSize]
		offset += r.chunkSize

		cmd, err := r.processChunk(chunk)
		if err != nil {
			return nil, err
		}
		if cmd != nil {
			r.pending = append(r.pending[:0], r.pending[offset:]...)
			return cmd, nil
		}
	}

	r.pending = append(r.pending[:0], r.pending[offset:]...)
	return nil, nil
}

// processChunk runs one chunk through the phrase state machine
func (r *Recorder) processChunk(chunk []byte) (*VoiceCommand, error) {
	// Initial settle time after wake detection
	if r.skipLeft > 0 {
		r.skipLeft--
		return nil, nil
	}

	// The first post-wake chunk is unreliable on cheap microphones;
	// drop it without classification.
	if r.firstChunk {
		r.firstChunk = false
		return nil, nil
	}

	if r.inPhrase {
		r.phrase.Write(chunk)
	} else {
		r.preRoll.push(chunk)
	}

	r.elapsed += r.chunkSeconds

	// Maximum recording duration budget
	if r.maxChunks > 0 {
		r.maxLeft--
		if r.maxLeft <= 0 {
			r.appendEvent(EventTimeout)
			return &VoiceCommand{
				Result: ResultFailure,
				Events: r.events,
			}, nil
		}
	}

	silent, err := r.detector.IsSilence(chunk)
	if err != nil {
		return nil, fmt.Errorf("silence detection: %w", err)
	}
	speech := !silent

	if !speech && !r.inPhrase {
		// Any amount of silence before the phrase is tolerated
		r.appendEvent(EventSilence)
		return nil, nil
	}

	// Edge-triggered transition events
	if speech && !r.lastSpeech {
		r.appendEvent(EventSpeech)
	} else if !speech && r.lastSpeech {
		r.appendEvent(EventSilence)
	}
	r.lastSpeech = speech

	switch {
	case speech && r.speechLeft > 0:
		// Still confirming that this is actual speech
		r.speechLeft--

	case speech && !r.inPhrase:
		// Start of phrase
		r.appendEvent(EventStarted)
		r.inPhrase = true
		r.afterPhrase = false
		r.minLeft = r.minPhraseChunks

	case r.inPhrase && r.minLeft > 0:
		// Inside the enforced minimum window; silence here does not
		// end the phrase
		r.minLeft--

	case !speech:
		switch {
		case !r.inPhrase:
			// False start, forget the partial confirmation
			r.speechLeft = r.speechChunks

		case r.afterPhrase && r.silenceLeft > 0:
			r.silenceLeft--

		case r.afterPhrase:
			// Phrase complete
			r.appendEvent(EventStopped)
			pre := r.preRoll.bytes()
			out := make([]byte, 0, len(pre)+r.phrase.Len())
			out = append(out, pre...)
			out = append(out, r.phrase.Bytes()...)
			return &VoiceCommand{
				Result:    ResultSuccess,
				AudioData: out,
				Events:    r.events,
			}, nil

		default:
			// Minimum satisfied, wait out the silence confirmation window
			r.afterPhrase = true
			r.silenceLeft = r.silenceChunks
		}
	}

	return nil, nil
}

func (r *Recorder) appendEvent(t EventType) {
	r.events = append(r.events, Event{Type: t, Time: r.elapsed})
}

// ChunkSize returns the analysis chunk size in bytes
func (r *Recorder) ChunkSize() int {
	return r.chunkSize
}
