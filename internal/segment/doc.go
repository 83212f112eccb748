// Package segment implements the voice-command segmentation engine: it
// consumes fixed-size PCM chunks from a live source, classifies each one
// as speech or silence, and tracks phrase boundaries through a state
// machine with pre-roll, speech-confirmation, minimum-duration and
// silence-confirmation windows.
package segment
