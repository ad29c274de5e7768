package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lexiqai/speech-insights/internal/analytics"
	"github.com/lexiqai/speech-insights/internal/observability"
)

// BatchStats is the reduced result of one batch recording
type BatchStats struct {
	Filename string `json:"filename"`
	analytics.Summary
}

// BatchItem is either a result or an error for one recording
type BatchItem struct {
	Filename   string      `json:"filename"`
	Transcript *string     `json:"transcript,omitempty"`
	Stats      *BatchStats `json:"stats,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Batch processes any number of uploads independently. A failing upload
// produces an error item and never stops the others.
func (p *Pipeline) Batch(ctx context.Context, uploads []Upload) []BatchItem {
	logger := zerolog.Ctx(ctx)

	items := make([]BatchItem, 0, len(uploads))
	for _, up := range uploads {
		if !p.allowed(up.Filename) {
			items = append(items, BatchItem{
				Filename: up.Filename,
				Error:    fmt.Sprintf("Invalid file format. Only %s are supported", strings.Join(p.extensions, " and ")),
			})
			continue
		}

		logger.Info().Str("filename", up.Filename).Msg("Processing batch file")
		timer := observability.StartAnalysis(ModeBatch)
		item, err := p.summarize(ctx, up)
		timer.Done(err == nil)
		if err != nil {
			observability.RecordError("analysis", ModeBatch)
			logger.Error().Err(err).Str("filename", up.Filename).Msg("Batch file failed")
			items = append(items, BatchItem{Filename: up.Filename, Error: err.Error()})
			continue
		}
		items = append(items, item)
	}
	return items
}

func (p *Pipeline) summarize(ctx context.Context, up Upload) (BatchItem, error) {
	tr, sig, err := p.transcribeAndDecode(ctx, up)
	if err != nil {
		return BatchItem{}, err
	}

	summary, err := p.analyzer.Summarize(tr, sig.Duration())
	if err != nil {
		return BatchItem{}, fileError(up.Filename, StageAnalyze, err)
	}

	text := tr.FullText
	return BatchItem{
		Filename:   up.Filename,
		Transcript: &text,
		Stats:      &BatchStats{Filename: up.Filename, Summary: summary},
	}, nil
}

func (p *Pipeline) allowed(filename string) bool {
	return slices.Contains(p.extensions, strings.ToLower(filepath.Ext(filename)))
}
