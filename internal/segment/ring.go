package segment

// chunkRing is a bounded ring buffer of audio chunks used for pre-roll.
// Pushing onto a full ring evicts the oldest chunk.
type chunkRing struct {
	chunks [][]byte
	head   int // index of the oldest chunk
	size   int
}

func newChunkRing(capacity int) *chunkRing {
	return &chunkRing{
		chunks: make([][]byte, capacity),
	}
}

// push stores a copy of chunk, evicting the oldest entry when full.
// A zero-capacity ring discards everything.
func (r *chunkRing) push(chunk []byte) {
	if len(r.chunks) == 0 {
		return
	}

	stored := make([]byte, len(chunk))
	copy(stored, chunk)

	if r.size < len(r.chunks) {
		r.chunks[(r.head+r.size)%len(r.chunks)] = stored
		r.size++
		return
	}

	r.chunks[r.head] = stored
	r.head = (r.head + 1) % len(r.chunks)
}

// bytes concatenates the buffered chunks in chronological order
func (r *chunkRing) bytes() []byte {
	var total int
	for i := 0; i < r.size; i++ {
		total += len(r.chunks[(r.head+i)%len(r.chunks)])
	}

	out := make([]byte, 0, total)
	for i := 0; i < r.size; i++ {
		out = append(out, r.chunks[(r.head+i)%len(r.chunks)]...)
	}
	return out
}

// reset drops all buffered chunks
func (r *chunkRing) reset() {
	for i := range r.chunks {
		r.chunks[i] = nil
	}
	r.head = 0
	r.size = 0
}
