// Package metrics defines the Prometheus instrumentation for the
// voice-trigger satellite.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the satellite
type Metrics struct {
	// Wake-word metrics
	WakeDetections *prometheus.CounterVec

	// Recording session metrics
	RecordingsStarted   prometheus.Counter
	RecordingsSucceeded prometheus.Counter
	RecordingsFailed    prometheus.Counter
	RecordingsExpired   prometheus.Counter
	SourceFaults        prometheus.Counter
	RecordingDuration   prometheus.Histogram
	CommandAudioBytes   prometheus.Histogram

	// Upstream metrics
	ASRRequests prometheus.Counter
	ASRFailures prometheus.Counter
	ASRDuration prometheus.Histogram
	NLURequests prometheus.Counter
	NLUFailures prometheus.Counter
	NLUDuration prometheus.Histogram

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		WakeDetections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "satellite_wake_detections_total",
			Help: "Total number of wake-word detections",
		}, []string{"keyword"}),

		RecordingsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "satellite_recordings_started_total",
			Help: "Total number of recording sessions started",
		}),
		RecordingsSucceeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "satellite_recordings_succeeded_total",
			Help: "Total number of recording sessions that captured a phrase",
		}),
		RecordingsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "satellite_recordings_failed_total",
			Help: "Total number of recording sessions ended by the duration budget",
		}),
		RecordingsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "satellite_recordings_expired_total",
			Help: "Total number of recording sessions ended by the iteration ceiling",
		}),
		SourceFaults: promauto.NewCounter(prometheus.CounterOpts{
			Name: "satellite_source_faults_total",
			Help: "Total number of recording sessions aborted by audio source faults",
		}),
		RecordingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "satellite_recording_duration_seconds",
			Help:    "Duration of recording sessions in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s to ~2 minutes
		}),
		CommandAudioBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "satellite_command_audio_bytes",
			Help:    "Size of captured command audio in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 12), // 1KB to ~4MB
		}),

		ASRRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "satellite_asr_requests_total",
			Help: "Total number of speech-to-text requests sent",
		}),
		ASRFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "satellite_asr_failures_total",
			Help: "Total number of failed speech-to-text requests",
		}),
		ASRDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "satellite_asr_duration_seconds",
			Help:    "Duration of speech-to-text requests",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~2 minutes
		}),
		NLURequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "satellite_nlu_requests_total",
			Help: "Total number of intent-recognition requests sent",
		}),
		NLUFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "satellite_nlu_failures_total",
			Help: "Total number of failed intent-recognition requests",
		}),
		NLUDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "satellite_nlu_duration_seconds",
			Help:    "Duration of intent-recognition requests",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "satellite_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "satellite_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}
}

// RecordWakeDetection increments the wake detections counter for a keyword
func (m *Metrics) RecordWakeDetection(keyword string) {
	m.WakeDetections.WithLabelValues(keyword).Inc()
}

// RecordRecordingStarted increments the recordings started counter
func (m *Metrics) RecordRecordingStarted() {
	m.RecordingsStarted.Inc()
}

// RecordRecordingSucceeded records a successful recording session
func (m *Metrics) RecordRecordingSucceeded(durationSeconds float64, audioBytes int) {
	m.RecordingsSucceeded.Inc()
	m.RecordingDuration.Observe(durationSeconds)
	m.CommandAudioBytes.Observe(float64(audioBytes))
}

// RecordRecordingFailed records a session ended by the duration budget
func (m *Metrics) RecordRecordingFailed(durationSeconds float64) {
	m.RecordingsFailed.Inc()
	m.RecordingDuration.Observe(durationSeconds)
}

// RecordRecordingExpired records a session ended by the iteration ceiling
func (m *Metrics) RecordRecordingExpired() {
	m.RecordingsExpired.Inc()
}

// RecordSourceFault records a session aborted by an audio source fault
func (m *Metrics) RecordSourceFault() {
	m.SourceFaults.Inc()
}

// RecordASRRequest records a speech-to-text request outcome
func (m *Metrics) RecordASRRequest(durationSeconds float64, failed bool) {
	m.ASRRequests.Inc()
	m.ASRDuration.Observe(durationSeconds)
	if failed {
		m.ASRFailures.Inc()
	}
}

// RecordNLURequest records an intent-recognition request outcome
func (m *Metrics) RecordNLURequest(durationSeconds float64, failed bool) {
	m.NLURequests.Inc()
	m.NLUDuration.Observe(durationSeconds)
	if failed {
		m.NLUFailures.Inc()
	}
}

// RecordHTTPRequest records an HTTP API request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}
