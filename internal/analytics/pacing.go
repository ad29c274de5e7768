package analytics

import (
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/lexiqai/speech-insights/internal/transcript"
)

// PacePoint is the speaking rate of one segment, placed at its end time
type PacePoint struct {
	Time float64 `json:"time"`
	WPM  float64 `json:"wpm"`
}

// PacingResult holds per-segment rates and their aggregates
type PacingResult struct {
	Points         []PacePoint
	MeanWPM        float64
	WPMVariability float64 // population standard deviation
	SilenceRatio   float64
}

// PacingAnalyzer computes words-per-minute over filtered segments
type PacingAnalyzer struct {
	Filter SegmentFilter
}

// Analyze never fails. With no qualifying segment the mean and variability
// are 0; with no segment at all the silence ratio is 0 as well.
//
// The silence ratio is 1 - (filtered speech time / end of the last segment).
// It is not clamped, so overlapping segments can push it below 0.
func (p PacingAnalyzer) Analyze(segments []transcript.Segment) PacingResult {
	filtered := p.Filter.Apply(segments)

	res := PacingResult{Points: make([]PacePoint, 0, len(filtered))}
	rates := make([]float64, 0, len(filtered))
	spoken := 0.0
	for _, seg := range filtered {
		duration := seg.Duration()
		wpm := float64(WordCount(seg.Text)) / duration * 60
		rates = append(rates, wpm)
		res.Points = append(res.Points, PacePoint{Time: seg.End, WPM: wpm})
		spoken += duration
	}

	if len(rates) > 0 {
		res.MeanWPM, res.WPMVariability = stat.PopMeanStdDev(rates, nil)
	}

	if len(segments) > 0 {
		if total := segments[len(segments)-1].End; total != 0 {
			res.SilenceRatio = 1 - spoken/total
		}
	}
	return res
}

// WordCount counts whitespace-separated tokens
func WordCount(text string) int {
	return len(strings.Fields(text))
}
