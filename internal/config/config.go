package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Transcription providers
const (
	ProviderWhisper  = "whisper"
	ProviderDeepgram = "deepgram"
)

// Config holds all configuration for the speech insights service
type Config struct {
	// Server configuration
	Port     string `envconfig:"PORT" default:"8080"`
	GRPCPort string `envconfig:"GRPC_PORT" default:"9090"` // grpc.health.v1 server

	// Upload handling
	UploadDir         string `envconfig:"UPLOAD_DIR" default:""`                  // Empty means os.TempDir()
	MaxUploadMB       int64  `envconfig:"MAX_UPLOAD_MB" default:"100"`            // Multipart body limit
	AllowedExtensions string `envconfig:"ALLOWED_EXTENSIONS" default:".mp3,.wav"` // Used by /analyze_multi

	// Transcription collaborator
	TranscriberProvider       string `envconfig:"TRANSCRIBER_PROVIDER" default:"whisper"` // whisper, deepgram
	TranscriberMaxConcurrency int    `envconfig:"TRANSCRIBER_MAX_CONCURRENCY" default:"1"`

	// Whisper sidecar (HTTP multipart, returns segments)
	WhisperURL     string `envconfig:"WHISPER_URL" default:"http://localhost:9000"`
	WhisperTimeout int    `envconfig:"WHISPER_TIMEOUT" default:"300"` // seconds

	// Deepgram prerecorded API configuration
	DeepgramAPIKey   string `envconfig:"DEEPGRAM_API_KEY" default:""`
	DeepgramModel    string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"`
	DeepgramLanguage string `envconfig:"DEEPGRAM_LANGUAGE" default:"en"`

	// Audio decoding
	FFmpegPath       string `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	DecodeSampleRate int    `envconfig:"DECODE_SAMPLE_RATE" default:"22050"` // Rate requested from ffmpeg

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // seconds
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"` // milliseconds

	// Analysis profile (optional YAML overriding analytics constants)
	AnalysisProfile string `envconfig:"ANALYSIS_PROFILE" default:""`

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.TranscriberProvider {
	case ProviderWhisper:
		if c.WhisperURL == "" {
			return fmt.Errorf("WHISPER_URL is required for the whisper provider")
		}
	case ProviderDeepgram:
		if c.DeepgramAPIKey == "" {
			return fmt.Errorf("DEEPGRAM_API_KEY is required for the deepgram provider")
		}
	default:
		return fmt.Errorf("unknown TRANSCRIBER_PROVIDER %q", c.TranscriberProvider)
	}
	if c.TranscriberMaxConcurrency < 1 {
		return fmt.Errorf("TRANSCRIBER_MAX_CONCURRENCY must be at least 1")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// Extensions returns the normalized allow-list of upload extensions
func (c *Config) Extensions() []string {
	var out []string
	for _, ext := range strings.Split(c.AllowedExtensions, ",") {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

// UploadDirectory returns the directory for transient upload files
func (c *Config) UploadDirectory() string {
	if c.UploadDir == "" {
		return os.TempDir()
	}
	return c.UploadDir
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
