package audio

import (
	"encoding/binary"
	"math"
)

// DebiasedEnergy computes the RMS loudness of a 16-bit mono PCM chunk with
// its DC offset removed. The bias is estimated as the negated RMS of the
// chunk, added back sample-wise with saturation, and the RMS of the result
// is returned. Values above roughly 30 usually indicate actual audio.
func DebiasedEnergy(chunk []byte) float64 {
	bias := -rms(chunk)
	debiased := make([]byte, len(chunk)&^1)
	for i := 0; i+1 < len(chunk); i += 2 {
		sample := int(int16(binary.LittleEndian.Uint16(chunk[i:])))
		binary.LittleEndian.PutUint16(debiased[i:], uint16(saturate16(sample+bias)))
	}
	return float64(rms(debiased))
}

// rms returns the root-mean-square of 16-bit little-endian samples,
// truncated to an integer.
func rms(chunk []byte) int {
	n := len(chunk) / 2
	if n == 0 {
		return 0
	}

	var sumSquares float64
	for i := 0; i+1 < len(chunk); i += 2 {
		sample := float64(int16(binary.LittleEndian.Uint16(chunk[i:])))
		sumSquares += sample * sample
	}
	return int(math.Sqrt(sumSquares / float64(n)))
}

// saturate16 clamps v to the signed 16-bit range.
func saturate16(v int) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
