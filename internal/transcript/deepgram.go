package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
	"github.com/rs/zerolog"

	"github.com/lexiqai/speech-insights/internal/config"
	"github.com/lexiqai/speech-insights/internal/observability"
	"github.com/lexiqai/speech-insights/internal/resilience"
)

// DeepgramClient transcribes recordings with Deepgram's prerecorded API.
// Utterances become segments, each carrying Deepgram's confidence.
type DeepgramClient struct {
	config         *config.Config
	circuitBreaker *resilience.CircuitBreaker
	retryConfig    *resilience.RetryConfig
}

// deepgramResponse is the subset of the prerecorded response we read
type deepgramResponse struct {
	Results struct {
		Utterances []struct {
			Start      float64 `json:"start"`
			End        float64 `json:"end"`
			Confidence float64 `json:"confidence"`
			Transcript string  `json:"transcript"`
		} `json:"utterances"`
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// NewDeepgramClient creates a new Deepgram prerecorded client
func NewDeepgramClient(cfg *config.Config) *DeepgramClient {
	listenClient.InitWithDefault()

	return &DeepgramClient{
		config: cfg,
		circuitBreaker: resilience.NewCircuitBreaker(
			config.ProviderDeepgram,
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		),
		retryConfig: &resilience.RetryConfig{
			MaxAttempts:       cfg.RetryMaxAttempts,
			InitialBackoff:    time.Duration(cfg.RetryInitialBackoff) * time.Millisecond,
			MaxBackoff:        5 * time.Second,
			BackoffMultiplier: 2.0,
		},
	}
}

// Name returns the provider name
func (d *DeepgramClient) Name() string {
	return config.ProviderDeepgram
}

// Transcribe sends the recording to Deepgram and maps utterances to segments
func (d *DeepgramClient) Transcribe(ctx context.Context, path string) (*Result, error) {
	logger := zerolog.Ctx(ctx)
	start := time.Now()

	var out *Result
	err := d.circuitBreaker.Call(func() error {
		return resilience.Retry(ctx, func(ctx context.Context) error {
			res, err := d.transcribeOnce(ctx, path)
			if err != nil {
				logger.Warn().Err(err).Str("provider", d.Name()).Msg("transcription attempt failed")
				return err
			}
			out = res
			return nil
		}, d.retryConfig, resilience.IsRetryableNetworkError)
	})

	observability.UpdateCircuitBreakerState(d.Name(), int(d.circuitBreaker.GetState()))
	if err != nil {
		observability.IncrementCircuitBreakerFailures(d.Name())
	}
	observability.RecordTranscription(d.Name(), time.Since(start), err == nil)

	if err != nil {
		return nil, fmt.Errorf("deepgram transcription failed: %w", err)
	}
	return out, nil
}

func (d *DeepgramClient) transcribeOnce(ctx context.Context, path string) (*Result, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:      d.config.DeepgramModel,
		Language:   d.config.DeepgramLanguage,
		Punctuate:  true,
		Utterances: true,
	}

	client := listenClient.NewREST(d.config.DeepgramAPIKey, &interfaces.ClientOptions{})
	dg := api.New(client)

	res, err := dg.FromStream(ctx, fd, options)
	if err != nil {
		return nil, err
	}

	// Round-trip through JSON so we only depend on the documented wire format
	raw, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("deepgram encode: %w", err)
	}
	var parsed deepgramResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("deepgram decode: %w", err)
	}
	return parsed.toResult(), nil
}

func (r *deepgramResponse) toResult() *Result {
	out := &Result{Segments: make([]Segment, 0, len(r.Results.Utterances))}
	for _, u := range r.Results.Utterances {
		out.Segments = append(out.Segments, Segment{
			Text:       u.Transcript,
			Start:      u.Start,
			End:        u.End,
			Confidence: Float(u.Confidence),
		})
	}

	if len(r.Results.Channels) > 0 && len(r.Results.Channels[0].Alternatives) > 0 {
		out.FullText = r.Results.Channels[0].Alternatives[0].Transcript
	} else {
		texts := make([]string, 0, len(out.Segments))
		for _, s := range out.Segments {
			texts = append(texts, s.Text)
		}
		out.FullText = strings.Join(texts, " ")
	}
	return out
}

// Ping validates configuration only; a real request would be billed.
func (d *DeepgramClient) Ping(ctx context.Context) error {
	if d.config.DeepgramAPIKey == "" {
		return fmt.Errorf("deepgram API key is not configured")
	}
	if d.circuitBreaker.GetState() == resilience.StateOpen {
		return resilience.ErrCircuitOpen
	}
	return nil
}
