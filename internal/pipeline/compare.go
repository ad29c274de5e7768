package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lexiqai/speech-insights/internal/analytics"
	"github.com/lexiqai/speech-insights/internal/comparison"
	"github.com/lexiqai/speech-insights/internal/observability"
)

// ComparedFile is a recording's entry in a comparison
type ComparedFile struct {
	Filename   string          `json:"filename"`
	Stats      analytics.Stats `json:"stats"`
	Transcript string          `json:"transcript"` // preview
}

// ComparisonReport holds the compared recordings in submission order
type ComparisonReport struct {
	Files  []ComparedFile
	Result *comparison.Result
	Plots  map[string]string
}

// Compare analyzes each upload in turn and compares the ones that
// succeed. Uploads without a filename are skipped; failed recordings are
// logged and dropped. Fewer than two successes yields ErrTooFewRecordings.
func (p *Pipeline) Compare(ctx context.Context, uploads []Upload) (*ComparisonReport, error) {
	logger := zerolog.Ctx(ctx)

	var (
		files []ComparedFile
		recs  []comparison.Recording
	)
	for _, up := range uploads {
		if up.Filename == "" {
			continue
		}

		timer := observability.StartAnalysis(ModeCompare)
		report, err := p.analyze(ctx, up)
		timer.Done(err == nil)
		if err != nil {
			observability.RecordError("analysis", ModeCompare)
			logger.Error().Err(err).Str("filename", up.Filename).Msg("Dropping recording from comparison")
			continue
		}

		files = append(files, ComparedFile{
			Filename:   up.Filename,
			Stats:      report.Stats,
			Transcript: Preview(report.Transcript, p.preview),
		})
		recs = append(recs, comparison.Recording{Name: up.Filename, Report: report})
	}

	if len(recs) < comparison.MinRecordings {
		return nil, ErrTooFewRecordings
	}

	res, err := p.comparer.Compare(recs)
	if err != nil {
		return nil, err
	}
	observability.RecordComparison(res.PacingSignificance != nil)

	out := &ComparisonReport{Files: files, Result: res, Plots: map[string]string{}}
	if p.renderer != nil {
		plots, err := p.renderer.Comparison(res)
		if err != nil {
			return nil, err
		}
		out.Plots = plots
	}
	return out, nil
}

// Preview keeps the first n runes of a transcript and always appends "..."
func Preview(text string, n int) string {
	r := []rune(text)
	if n >= 0 && len(r) > n {
		r = r[:n]
	}
	return string(r) + "..."
}
