package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/speech-insights/internal/config"
	"github.com/lexiqai/speech-insights/internal/observability"
	"github.com/lexiqai/speech-insights/internal/resilience"
)

// WhisperClient talks to a Whisper sidecar that accepts a multipart upload on
// /transcribe and answers with the full text plus timestamped segments.
type WhisperClient struct {
	baseURL        string
	httpClient     *http.Client
	retryConfig    *resilience.RetryConfig
	circuitBreaker *resilience.CircuitBreaker
}

type whisperResponse struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

// NewWhisperClient creates a Whisper sidecar client
func NewWhisperClient(cfg *config.Config) *WhisperClient {
	return &WhisperClient{
		baseURL:    strings.TrimRight(cfg.WhisperURL, "/"),
		httpClient: &http.Client{Timeout: time.Duration(cfg.WhisperTimeout) * time.Second},
		retryConfig: &resilience.RetryConfig{
			MaxAttempts:       cfg.RetryMaxAttempts,
			InitialBackoff:    time.Duration(cfg.RetryInitialBackoff) * time.Millisecond,
			MaxBackoff:        5 * time.Second,
			BackoffMultiplier: 2.0,
		},
		circuitBreaker: resilience.NewCircuitBreaker(
			config.ProviderWhisper,
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		),
	}
}

// Name returns the provider name
func (w *WhisperClient) Name() string {
	return config.ProviderWhisper
}

// Transcribe uploads the recording and decodes the segment list
func (w *WhisperClient) Transcribe(ctx context.Context, path string) (*Result, error) {
	logger := zerolog.Ctx(ctx)
	start := time.Now()

	var out *Result
	err := w.circuitBreaker.Call(func() error {
		return resilience.Retry(ctx, func(ctx context.Context) error {
			res, err := w.transcribeOnce(ctx, path)
			if err != nil {
				logger.Warn().Err(err).Str("provider", w.Name()).Msg("transcription attempt failed")
				return err
			}
			out = res
			return nil
		}, w.retryConfig, resilience.IsRetryableNetworkError)
	})

	observability.UpdateCircuitBreakerState(w.Name(), int(w.circuitBreaker.GetState()))
	if err != nil {
		observability.IncrementCircuitBreakerFailures(w.Name())
	}
	observability.RecordTranscription(w.Name(), time.Since(start), err == nil)

	if err != nil {
		return nil, fmt.Errorf("whisper transcription failed: %w", err)
	}
	return out, nil
}

func (w *WhisperClient) transcribeOnce(ctx context.Context, path string) (*Result, error) {
	var b bytes.Buffer
	mw := multipart.NewWriter(&b)

	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	if _, err = io.Copy(fw, fd); err != nil {
		return nil, err
	}
	if err = mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/transcribe", &b)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		statusErr := fmt.Errorf("whisper %s: %s", resp.Status, strings.TrimSpace(string(body)))
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return nil, resilience.NewRetryableError(statusErr)
		}
		return nil, statusErr
	}

	var out whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("whisper decode: %w", err)
	}
	return &Result{FullText: out.Text, Segments: out.Segments}, nil
}

// Ping checks the sidecar health endpoint
func (w *WhisperClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := w.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("whisper health %s", resp.Status)
	}
	return nil
}
