package analytics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/lexiqai/speech-insights/internal/transcript"
)

// PauseResult holds the gaps between consecutive segments
type PauseResult struct {
	Pauses  []float64
	Average float64
}

// PauseAnalyzer measures the gap between each segment and the next.
// Overlapping segments yield negative pauses, which are kept as is.
type PauseAnalyzer struct{}

// Pauses returns start[i+1] - end[i] for every consecutive pair
func (PauseAnalyzer) Pauses(segments []transcript.Segment) []float64 {
	if len(segments) < 2 {
		return nil
	}
	out := make([]float64, 0, len(segments)-1)
	for i := 0; i < len(segments)-1; i++ {
		out = append(out, segments[i+1].Start-segments[i].End)
	}
	return out
}

// Analyze returns the pauses and their mean, 0 with fewer than two segments
func (a PauseAnalyzer) Analyze(segments []transcript.Segment) PauseResult {
	pauses := a.Pauses(segments)
	res := PauseResult{Pauses: pauses}
	if len(pauses) > 0 {
		res.Average = stat.Mean(pauses, nil)
	}
	return res
}
