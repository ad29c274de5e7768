package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/lexiqai/speech-insights/internal/analytics"
	"github.com/lexiqai/speech-insights/internal/api"
	"github.com/lexiqai/speech-insights/internal/audio"
	"github.com/lexiqai/speech-insights/internal/comparison"
	"github.com/lexiqai/speech-insights/internal/config"
	"github.com/lexiqai/speech-insights/internal/observability"
	"github.com/lexiqai/speech-insights/internal/pipeline"
	"github.com/lexiqai/speech-insights/internal/render"
	"github.com/lexiqai/speech-insights/internal/transcript"
)

const readinessInterval = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	profile, err := config.LoadProfile(cfg.AnalysisProfile)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load analysis profile")
	}

	transcriber, err := transcript.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create transcriber")
	}

	ffmpeg := audio.NewFFmpegDecoder(cfg.FFmpegPath, cfg.DecodeSampleRate)
	decoder := &audio.AutoDecoder{WAV: &audio.WAVDecoder{}, FFmpeg: ffmpeg}

	p := pipeline.New(pipeline.Options{
		Transcriber:       transcriber,
		Decoder:           decoder,
		Analyzer:          analytics.New(profile),
		Comparer:          comparison.New(profile),
		Renderer:          render.NewPNG(),
		UploadDir:         cfg.UploadDirectory(),
		TranscriptPreview: profile.Output.TranscriptPreview,
		Extensions:        cfg.Extensions(),
	})

	logger.Info().
		Str("port", cfg.Port).
		Str("grpc_port", cfg.GRPCPort).
		Str("transcriber", transcriber.Name()).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Speech Insights Service starting")

	// Create HTTP server
	mux := http.NewServeMux()
	api.NewHandler(p, cfg.MaxUploadMB<<20).Register(mux)

	// Health check endpoint
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	checks := map[string]observability.HealthCheckFunc{
		"transcriber": func(ctx context.Context) (bool, error) {
			if err := transcriber.Ping(ctx); err != nil {
				return false, err
			}
			return true, nil
		},
		"ffmpeg": func(ctx context.Context) (bool, error) {
			if err := ffmpeg.Available(ctx); err != nil {
				return false, err
			}
			return true, nil
		},
	}
	mux.HandleFunc("/ready", observability.ReadinessHandler(checks))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// Transcription can take minutes, so write timeouts are generous
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      observability.RequestLogger(api.Recover(mux)),
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: time.Duration(cfg.WhisperTimeout)*time.Second + 5*time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("http://localhost:%s/analyze", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// gRPC health service mirroring /ready
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to listen for gRPC")
	}
	go func() {
		logger.Info().Str("port", cfg.GRPCPort).Msg("gRPC health server listening")
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error().Err(err).Msg("gRPC server stopped")
		}
	}()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go watchReadiness(ctx, logger, healthServer, checks)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	stop()
	healthServer.Shutdown()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	grpcServer.GracefulStop()

	logger.Info().Msg("Server exited gracefully")
}

// watchReadiness keeps the gRPC serving status in line with the readiness checks
func watchReadiness(ctx context.Context, logger zerolog.Logger, hs *health.Server, checks map[string]observability.HealthCheckFunc) {
	ticker := time.NewTicker(readinessInterval)
	defer ticker.Stop()

	var last healthpb.HealthCheckResponse_ServingStatus
	for {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, ready := observability.CheckDependencies(checkCtx, checks)
		cancel()

		status := healthpb.HealthCheckResponse_NOT_SERVING
		if ready {
			status = healthpb.HealthCheckResponse_SERVING
		}
		if status != last {
			logger.Info().Str("status", status.String()).Msg("Readiness changed")
			last = status
		}
		hs.SetServingStatus("", status)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
