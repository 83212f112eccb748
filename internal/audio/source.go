package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Source is a blocking stream of 16-bit mono PCM at a fixed sample rate.
// Read fills p entirely before returning; a short read is an error.
type Source interface {
	Read(p []byte) error
}

// Microphone captures live audio from the default input device. Reads of
// arbitrary length are served from an internal buffer refilled one
// portaudio buffer at a time; input overflow is tolerated so that slow
// consumers lose audio instead of crashing the recording loop.
type Microphone struct {
	stream  *portaudio.Stream
	frames  []int16
	pending []byte

	mu     sync.Mutex
	closed bool
}

// NewMicrophone opens the default input device for 16-bit mono capture.
// Callers own the portaudio lifecycle: Initialize before, Terminate after.
func NewMicrophone(sampleRate, channels, framesPerBuffer int) (*Microphone, error) {
	if channels != 1 {
		return nil, fmt.Errorf("only mono capture is supported, got %d channels", channels)
	}

	m := &Microphone{
		frames: make([]int16, framesPerBuffer),
	}

	stream, err := portaudio.OpenDefaultStream(channels, 0, float64(sampleRate), framesPerBuffer, m.frames)
	if err != nil {
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start input stream: %w", err)
	}

	m.stream = stream
	return m, nil
}

// Read blocks until p is completely filled with captured PCM bytes
func (m *Microphone) Read(p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errors.New("microphone is closed")
	}

	for len(m.pending) < len(p) {
		if err := m.stream.Read(); err != nil {
			// Overflow means the device dropped frames while we were
			// busy; the captured buffer is still valid.
			if !errors.Is(err, portaudio.InputOverflowed) {
				return fmt.Errorf("portaudio read: %w", err)
			}
		}
		m.pending = append(m.pending, Int16ToBytes(m.frames)...)
	}

	copy(p, m.pending[:len(p)])
	m.pending = append(m.pending[:0], m.pending[len(p):]...)
	return nil
}

// Close stops and releases the capture stream
func (m *Microphone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	if err := m.stream.Stop(); err != nil {
		m.stream.Close()
		return fmt.Errorf("failed to stop input stream: %w", err)
	}
	return m.stream.Close()
}

// Int16ToBytes converts PCM samples to little-endian bytes
func Int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// BytesToInt16 converts little-endian PCM bytes to samples
func BytesToInt16(data []byte) []int16 {
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return out
}
