// Package satellite runs the outer voice-trigger loop: wait for a wake
// word, record one voice command, then forward it to the speech and
// intent services.
package satellite
