package analytics

import (
	"errors"

	"github.com/lexiqai/speech-insights/internal/transcript"
)

// ErrZeroDuration is returned when a rate cannot be computed for silent-length audio
var ErrZeroDuration = errors.New("audio has zero duration")

// Summary is the reduced per-file result of the batch surface
type Summary struct {
	MeanWPM        float64 `json:"mean_wpm"`
	MeanConfidence float64 `json:"mean_confidence"`
}

// Summarize rates the whole transcript against the audio duration in seconds
func (a *Analyzer) Summarize(tr *transcript.Result, duration float64) (Summary, error) {
	if duration <= 0 {
		return Summary{}, ErrZeroDuration
	}
	return Summary{
		MeanWPM:        float64(WordCount(tr.FullText)) / (duration / 60),
		MeanConfidence: a.Confidence.MeanConfidence(tr.Segments),
	}, nil
}
