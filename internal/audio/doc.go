// Package audio provides PCM utilities shared by the satellite: debiased
// RMS energy measurement, WAV container encoding, and the blocking
// microphone source backed by portaudio.
package audio
