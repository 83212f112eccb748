package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SmartopiaHub/rhasspy-rpizero/internal/config"
	"github.com/SmartopiaHub/rhasspy-rpizero/internal/metrics"
	"github.com/SmartopiaHub/rhasspy-rpizero/internal/satellite"
	"github.com/SmartopiaHub/rhasspy-rpizero/internal/upstream"
)

// HTTPServer provides HTTP API endpoints for monitoring the satellite
type HTTPServer struct {
	server   *http.Server
	logger   *slog.Logger
	config   *config.Config
	loop     *satellite.Loop
	upstream *upstream.Client
	metrics  *metrics.Metrics

	// Server state
	startTime time.Time
	mu        sync.RWMutex
}

// NewHTTPServer creates a new HTTP API server
func NewHTTPServer(cfg config.HTTPConfig, logger *slog.Logger,
	appConfig *config.Config, loop *satellite.Loop, client *upstream.Client, m *metrics.Metrics) *HTTPServer {

	h := &HTTPServer{
		logger:    logger,
		config:    appConfig,
		loop:      loop,
		upstream:  client,
		metrics:   m,
		startTime: time.Now(),
	}

	// Create HTTP server with routes
	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	// Health check endpoint
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))

	// Statistics endpoints
	mux.HandleFunc("/stats", h.withMetrics("/stats", h.handleStats))
	mux.HandleFunc("/stats/upstream", h.withMetrics("/stats/upstream", h.handleUpstreamStats))

	// Configuration endpoint
	mux.HandleFunc("/config", h.withMetrics("/config", h.handleConfig))

	// Prometheus metrics endpoint (no metrics needed for metrics endpoint)
	mux.Handle("/metrics", promhttp.Handler())

	// Root endpoint with API documentation
	mux.HandleFunc("/", h.withMetrics("/", h.handleRoot))
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		// Response writer wrapper to capture status code
		ww := &responseWriter{ResponseWriter: w, statusCode: 200}

		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)

		h.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP API server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")

	return h.server.Shutdown(ctx)
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(h.startTime)
	loopStats := h.loop.GetStats()
	upstreamStats := h.upstream.GetStats()

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    uptime.String(),
		"service": map[string]interface{}{
			"name":    "rhasspy-rpizero",
			"version": "1.0.0",
		},
		"components": map[string]interface{}{
			"satellite": map[string]interface{}{
				"status":          "running",
				"wake_detections": loopStats.WakeDetections,
				"commands_sent":   loopStats.CommandsSent,
				"source_faults":   loopStats.SourceFaults,
			},
			"upstream": map[string]interface{}{
				"status":        "running",
				"asr_requests":  upstreamStats.ASRRequests,
				"asr_failures":  upstreamStats.ASRFailures,
				"nlu_requests":  upstreamStats.NLURequests,
				"nlu_failures":  upstreamStats.NLUFailures,
				"last_activity": upstreamStats.LastActivity,
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleStats implements the /stats endpoint
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(h.startTime)

	stats := map[string]interface{}{
		"uptime":    uptime.String(),
		"timestamp": time.Now().UTC(),
		"satellite": h.loop.GetStats(),
		"upstream":  h.upstream.GetStats(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// handleUpstreamStats implements the /stats/upstream endpoint
func (h *HTTPServer) handleUpstreamStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := h.upstream.GetStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// handleConfig implements the /config endpoint
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Return sanitized configuration (remove sensitive data)
	sanitizedConfig := map[string]interface{}{
		"audio": map[string]interface{}{
			"sample_rate":       h.config.Audio.SampleRate,
			"sample_width":      h.config.Audio.SampleWidth,
			"channels":          h.config.Audio.Channels,
			"chunk_size":        h.config.Audio.ChunkSize,
			"frames_per_buffer": h.config.Audio.FramesPerBuffer,
		},
		"segmenter": map[string]interface{}{
			"silence_method":  h.config.Segmenter.SilenceMethod,
			"vad_mode":        h.config.Segmenter.VADMode,
			"max_timeout":     h.config.Segmenter.MaxTimeout,
			"skip_seconds":    h.config.Segmenter.SkipSeconds,
			"min_seconds":     h.config.Segmenter.MinSeconds,
			"max_seconds":     h.config.Segmenter.MaxSeconds,
			"speech_seconds":  h.config.Segmenter.SpeechSeconds,
			"silence_seconds": h.config.Segmenter.SilenceSeconds,
			"before_seconds":  h.config.Segmenter.BeforeSeconds,
		},
		"wake": map[string]interface{}{
			"keywords": h.config.Wake.Keywords,
			// Note: access key is intentionally omitted for security
		},
		"upstream": map[string]interface{}{
			"site_id": h.config.Upstream.SiteID,
			"asr_url": h.config.Upstream.ASRURL,
			"nlu_url": h.config.Upstream.NLUURL,
			"timeout": h.config.Upstream.Timeout,
		},
		"logging": map[string]interface{}{
			"level":  h.config.Logging.Level,
			"format": h.config.Logging.Format,
			"output": h.config.Logging.Output,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sanitizedConfig)
}

// handleRoot implements the / endpoint with API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	apiDoc := map[string]interface{}{
		"service": "Rhasspy Raspberry Pi Zero Satellite",
		"version": "1.0.0",
		"endpoints": map[string]interface{}{
			"GET /":               "API documentation",
			"GET /health":         "Service health check",
			"GET /stats":          "Get satellite statistics",
			"GET /stats/upstream": "Get upstream client statistics",
			"GET /config":         "Get service configuration",
			"GET /metrics":        "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apiDoc)
}
