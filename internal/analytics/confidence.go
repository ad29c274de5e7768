package analytics

import (
	"github.com/lexiqai/speech-insights/internal/transcript"
)

// Segments without a confidence score are treated differently by the two
// confidence metrics: the ratio assumes 0.9, the low-confidence filter 1.0.
// Changing either value changes reported output.
const (
	RatioDefaultConfidence  = 0.9
	FilterDefaultConfidence = 1.0
)

// ConfidenceMetrics summarizes recognizer confidence
type ConfidenceMetrics struct {
	HighConfidenceRatio float64  `json:"high_confidence_ratio"`
	LowConfidenceWords  []string `json:"low_confidence_words"`
}

// ConfidenceAnalyzer computes the share of high-confidence segments and
// extracts the text of low-confidence ones
type ConfidenceAnalyzer struct {
	HighThreshold float64 // strictly above counts as high
	LowThreshold  float64 // strictly below counts as low
	RatioDefault  float64
	FilterDefault float64
}

// Analyze returns ErrNoSegments for an empty sequence since the ratio
// divides by the segment count.
func (c ConfidenceAnalyzer) Analyze(segments []transcript.Segment) (ConfidenceMetrics, error) {
	if len(segments) == 0 {
		return ConfidenceMetrics{LowConfidenceWords: []string{}}, ErrNoSegments
	}

	high := 0
	low := make([]string, 0)
	for _, seg := range segments {
		if seg.ConfidenceOr(c.RatioDefault) > c.HighThreshold {
			high++
		}
		if seg.ConfidenceOr(c.FilterDefault) < c.LowThreshold {
			low = append(low, seg.Text)
		}
	}

	return ConfidenceMetrics{
		HighConfidenceRatio: float64(high) / float64(len(segments)),
		LowConfidenceWords:  low,
	}, nil
}

// MeanConfidence averages segment confidences using the ratio default,
// 0 for an empty sequence
func (c ConfidenceAnalyzer) MeanConfidence(segments []transcript.Segment) float64 {
	if len(segments) == 0 {
		return 0
	}
	sum := 0.0
	for _, seg := range segments {
		sum += seg.ConfidenceOr(c.RatioDefault)
	}
	return sum / float64(len(segments))
}
