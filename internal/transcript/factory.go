package transcript

import (
	"fmt"

	"github.com/lexiqai/speech-insights/internal/config"
)

// New builds the configured transcriber wrapped in a concurrency guard
func New(cfg *config.Config) (Transcriber, error) {
	var inner Transcriber
	switch cfg.TranscriberProvider {
	case config.ProviderWhisper:
		inner = NewWhisperClient(cfg)
	case config.ProviderDeepgram:
		inner = NewDeepgramClient(cfg)
	default:
		return nil, fmt.Errorf("unknown transcriber provider %q", cfg.TranscriberProvider)
	}
	return NewSerialized(inner, cfg.TranscriberMaxConcurrency), nil
}
