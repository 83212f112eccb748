// Package upstream provides the HTTP client for the remote speech-to-text
// and intent-recognition services.
package upstream
