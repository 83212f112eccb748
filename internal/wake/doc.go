// Package wake wraps the Picovoice Porcupine engine behind a small
// frame-oriented detector interface.
package wake
