package audio

import (
	"testing"
)

// pcmChunk builds a chunk of n samples alternating +amp and -amp
func pcmChunk(n int, amp int16) []byte {
	samples := make([]int16, n)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = amp
		} else {
			samples[i] = -amp
		}
	}
	return Int16ToBytes(samples)
}

func TestDebiasedEnergySilence(t *testing.T) {
	chunk := make([]byte, 960)

	if got := DebiasedEnergy(chunk); got != 0 {
		t.Errorf("Expected zero energy for silent chunk, got %g", got)
	}
}

func TestDebiasedEnergyEmptyChunk(t *testing.T) {
	if got := DebiasedEnergy(nil); got != 0 {
		t.Errorf("Expected zero energy for empty chunk, got %g", got)
	}
}

func TestDebiasedEnergyRemovesDCOffset(t *testing.T) {
	// A constant positive offset carries no audio information and must
	// cancel out entirely
	samples := make([]int16, 480)
	for i := range samples {
		samples[i] = 1000
	}

	if got := DebiasedEnergy(Int16ToBytes(samples)); got != 0 {
		t.Errorf("Expected zero energy for pure DC offset, got %g", got)
	}
}

func TestDebiasedEnergyLoudSignal(t *testing.T) {
	// Alternating +-8000 has RMS 8000; after the -8000 bias the positive
	// samples land on 0 and the negative ones on -16000, for a debiased
	// RMS of 16000/sqrt(2) truncated to an integer
	chunk := pcmChunk(480, 8000)

	if got := DebiasedEnergy(chunk); got != 11313 {
		t.Errorf("Expected energy 11313 for +-8000 square wave, got %g", got)
	}
}

func TestDebiasedEnergyOrdersByLoudness(t *testing.T) {
	quiet := DebiasedEnergy(pcmChunk(480, 100))
	loud := DebiasedEnergy(pcmChunk(480, 8000))

	if quiet <= 0 {
		t.Errorf("Expected positive energy for quiet signal, got %g", quiet)
	}
	if loud <= quiet {
		t.Errorf("Expected loud energy (%g) to exceed quiet energy (%g)", loud, quiet)
	}
}

func TestSaturate16(t *testing.T) {
	tests := []struct {
		in   int
		want int16
	}{
		{0, 0},
		{32767, 32767},
		{32768, 32767},
		{-32768, -32768},
		{-40000, -32768},
		{-100, -100},
	}

	for _, tt := range tests {
		if got := saturate16(tt.in); got != tt.want {
			t.Errorf("saturate16(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestInt16BytesRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345}

	got := BytesToInt16(Int16ToBytes(samples))
	if len(got) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(got))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, samples[i], got[i])
		}
	}
}
