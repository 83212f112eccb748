package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/SmartopiaHub/rhasspy-rpizero/internal/audio"
	"github.com/SmartopiaHub/rhasspy-rpizero/internal/config"
	"github.com/SmartopiaHub/rhasspy-rpizero/internal/metrics"
	"github.com/SmartopiaHub/rhasspy-rpizero/internal/satellite"
	"github.com/SmartopiaHub/rhasspy-rpizero/internal/segment"
	"github.com/SmartopiaHub/rhasspy-rpizero/internal/server"
	"github.com/SmartopiaHub/rhasspy-rpizero/internal/sound"
	"github.com/SmartopiaHub/rhasspy-rpizero/internal/upstream"
	"github.com/SmartopiaHub/rhasspy-rpizero/internal/wake"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "rhasspy-rpizero"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	// Log service startup
	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary (without sensitive data)
	logger.Info("Configuration loaded",
		slog.Int("sample_rate", cfg.Audio.SampleRate),
		slog.Int("chunk_size", cfg.Audio.ChunkSize),
		slog.String("silence_method", cfg.Segmenter.SilenceMethod),
		slog.Int("max_timeout", cfg.Segmenter.MaxTimeout),
		slog.Any("keywords", cfg.Wake.Keywords),
		slog.String("asr_url", cfg.Upstream.ASRURL),
		slog.String("nlu_url", cfg.Upstream.NLUURL),
		slog.String("site_id", cfg.Upstream.SiteID),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// Initialize audio capture
	if err := portaudio.Initialize(); err != nil {
		logger.Error("Failed to initialize portaudio", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer portaudio.Terminate()

	mic, err := audio.NewMicrophone(cfg.Audio.SampleRate, cfg.Audio.Channels, cfg.Audio.FramesPerBuffer)
	if err != nil {
		logger.Error("Failed to open microphone", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer mic.Close()
	logger.Info("Microphone opened",
		slog.Int("sample_rate", cfg.Audio.SampleRate),
		slog.Int("frames_per_buffer", cfg.Audio.FramesPerBuffer),
	)

	// Initialize wake-word detector
	wakeDetector, err := wake.NewDetector(cfg.Wake)
	if err != nil {
		logger.Error("Failed to create wake detector", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer wakeDetector.Close()
	logger.Info("Wake detector initialized",
		slog.Any("keywords", cfg.Wake.Keywords),
		slog.Int("frame_length", wakeDetector.FrameLength()),
	)

	// Initialize silence detection
	var vad segment.VAD
	if cfg.Segmenter.UseVAD() {
		webrtc, err := segment.NewWebRTCVAD(cfg.Segmenter.VADMode)
		if err != nil {
			logger.Error("Failed to create VAD", slog.String("error", err.Error()))
			os.Exit(1)
		}
		vad = webrtc
	}

	silenceDetector, err := segment.NewDetector(cfg.Segmenter, cfg.Audio.SampleRate, vad)
	if err != nil {
		logger.Error("Failed to create silence detector", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize command recorder
	recorder, err := segment.NewRecorder(cfg.Audio, cfg.Segmenter, silenceDetector, logger)
	if err != nil {
		logger.Error("Failed to create recorder", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Command recorder initialized",
		slog.String("silence_method", cfg.Segmenter.SilenceMethod),
		slog.Float64("min_seconds", cfg.Segmenter.MinSeconds),
		slog.Float64("silence_seconds", cfg.Segmenter.SilenceSeconds),
	)

	// Initialize upstream client
	client, err := upstream.NewClient(upstream.Config{
		ASRURL:  cfg.Upstream.ASRURL,
		NLUURL:  cfg.Upstream.NLUURL,
		SiteID:  cfg.Upstream.SiteID,
		Timeout: cfg.Upstream.GetTimeoutDuration(),
	})
	if err != nil {
		logger.Error("Failed to create upstream client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer client.Close()
	logger.Info("Upstream client initialized",
		slog.String("asr_url", cfg.Upstream.ASRURL),
		slog.String("nlu_url", cfg.Upstream.NLUURL),
	)

	// Initialize feedback sound player
	player := sound.NewPlayer(cfg.Sounds.Device, logger)

	// Initialize satellite loop
	loop, err := satellite.NewLoop(cfg.Audio, cfg.Sounds, logger,
		mic, wakeDetector, recorder, client, player, appMetrics)
	if err != nil {
		logger.Error("Failed to create satellite loop", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize HTTP API server (if enabled)
	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpServer = server.NewHTTPServer(cfg.HTTP, logger, cfg, loop, client, appMetrics)
		if err := httpServer.Start(); err != nil {
			logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("HTTP API server started",
			slog.String("address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
		)
	}

	// Run the voice loop in the background
	loopErr := make(chan error, 1)
	go func() {
		loopErr <- loop.Run(ctx)
	}()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...")

	// Wait for shutdown signal or loop failure
	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-loopErr:
		if err != nil && err != context.Canceled {
			logger.Error("Voice loop failed", slog.String("error", err.Error()))
		}
	}

	logger.Info("Starting graceful shutdown...")
	cancel()

	// Stop HTTP server first (stop accepting new requests)
	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
		}
	}

	// Get final statistics
	stats := loop.GetStats()
	logger.Info("Final satellite statistics",
		slog.Uint64("wake_detections", stats.WakeDetections),
		slog.Uint64("commands_sent", stats.CommandsSent),
		slog.Uint64("record_expiries", stats.RecordExpiries),
		slog.Uint64("record_failures", stats.RecordFailures),
		slog.Uint64("source_faults", stats.SourceFaults),
	)

	logger.Info("Service stopped")
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default fallback
	}

	// Configure handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info for debug level
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		// Default to text format
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
