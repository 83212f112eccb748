package audio

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
)

func TestEncodeWAV(t *testing.T) {
	pcm := pcmChunk(16000, 4000) // one second at 16 kHz

	wav, err := EncodeWAV(pcm, 16000, 2, 1)
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}

	if len(wav) != 44+len(pcm) {
		t.Errorf("Expected %d bytes, got %d", 44+len(pcm), len(wav))
	}

	if string(wav[0:4]) != "RIFF" {
		t.Errorf("Expected RIFF magic, got %q", wav[0:4])
	}
	if string(wav[8:12]) != "WAVE" {
		t.Errorf("Expected WAVE format, got %q", wav[8:12])
	}

	sampleRate := binary.LittleEndian.Uint32(wav[24:28])
	if sampleRate != 16000 {
		t.Errorf("Expected sample rate 16000 in header, got %d", sampleRate)
	}

	byteRate := binary.LittleEndian.Uint32(wav[28:32])
	if byteRate != 32000 {
		t.Errorf("Expected byte rate 32000 in header, got %d", byteRate)
	}

	dataSize := binary.LittleEndian.Uint32(wav[40:44])
	if int(dataSize) != len(pcm) {
		t.Errorf("Expected data size %d in header, got %d", len(pcm), dataSize)
	}
}

func TestEncodeWAVValidation(t *testing.T) {
	tests := []struct {
		name        string
		pcm         []byte
		sampleRate  int
		sampleWidth int
		channels    int
		errorMsg    string
	}{
		{"empty audio", nil, 16000, 2, 1, "cannot encode empty audio"},
		{"zero sample rate", []byte{0, 0}, 0, 2, 1, "sample rate must be positive"},
		{"unsupported sample width", []byte{0, 0}, 16000, 1, 1, "sample width must be 2 bytes"},
		{"zero channels", []byte{0, 0}, 16000, 2, 0, "channel count must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeWAV(tt.pcm, tt.sampleRate, tt.sampleWidth, tt.channels)
			if err == nil {
				t.Fatalf("Expected error but got none")
			}
			if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
			}
		})
	}
}

func TestWAVRoundTrip(t *testing.T) {
	pcm := pcmChunk(4800, 2500)

	wav, err := EncodeWAV(pcm, 16000, 2, 1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, sampleRate, err := DecodeWAV(wav)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if sampleRate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", sampleRate)
	}
	if !bytes.Equal(decoded, pcm) {
		t.Errorf("Decoded PCM differs from original: %d bytes vs %d bytes", len(decoded), len(pcm))
	}
}

func TestDecodeWAVErrors(t *testing.T) {
	valid, err := EncodeWAV(pcmChunk(480, 1000), 16000, 2, 1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	badMagic := append([]byte{}, valid...)
	copy(badMagic[0:4], "JUNK")

	tests := []struct {
		name     string
		data     []byte
		errorMsg string
	}{
		{"too short", []byte{1, 2, 3}, "WAV data too short"},
		{"bad magic", badMagic, "missing RIFF header"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeWAV(tt.data)
			if err == nil {
				t.Fatalf("Expected error but got none")
			}
			if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
			}
		})
	}
}

func TestWAVDuration(t *testing.T) {
	pcm := make([]byte, 32000) // one second of 16-bit mono at 16 kHz
	wav, err := EncodeWAV(pcm, 16000, 2, 1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	duration, err := WAVDuration(wav)
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if duration != 1.0 {
		t.Errorf("Expected 1 second, got %g", duration)
	}
}
