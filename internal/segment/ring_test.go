package segment

import (
	"bytes"
	"testing"
)

func TestChunkRingEviction(t *testing.T) {
	r := newChunkRing(2)

	r.push([]byte{1})
	r.push([]byte{2})
	r.push([]byte{3})

	if got := r.bytes(); !bytes.Equal(got, []byte{2, 3}) {
		t.Errorf("Expected oldest chunk to be evicted, got %v", got)
	}
}

func TestChunkRingCopiesChunks(t *testing.T) {
	r := newChunkRing(1)

	chunk := []byte{1, 2, 3}
	r.push(chunk)
	chunk[0] = 99

	if got := r.bytes(); !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("Expected ring to hold a copy, got %v", got)
	}
}

func TestChunkRingZeroCapacity(t *testing.T) {
	r := newChunkRing(0)

	r.push([]byte{1})

	if got := r.bytes(); len(got) != 0 {
		t.Errorf("Expected zero-capacity ring to discard everything, got %v", got)
	}
}

func TestChunkRingReset(t *testing.T) {
	r := newChunkRing(3)

	r.push([]byte{1})
	r.push([]byte{2})
	r.reset()

	if got := r.bytes(); len(got) != 0 {
		t.Errorf("Expected empty ring after reset, got %v", got)
	}

	r.push([]byte{7})
	if got := r.bytes(); !bytes.Equal(got, []byte{7}) {
		t.Errorf("Expected ring to accept chunks after reset, got %v", got)
	}
}
