// Package analytics derives speech-delivery metrics from a transcription and
// the recording's energy envelope.
package analytics

import (
	"errors"

	"github.com/lexiqai/speech-insights/internal/transcript"
)

// ErrNoSegments is returned by analyzers whose metric divides by the segment count
var ErrNoSegments = errors.New("transcription has no segments")

// SegmentFilter selects segments long enough for pacing statistics.
// Shorter detections are recognizer noise.
type SegmentFilter struct {
	MinDuration float64 // seconds, exclusive
}

// Apply returns the segments whose duration exceeds MinDuration, in order
func (f SegmentFilter) Apply(segments []transcript.Segment) []transcript.Segment {
	out := make([]transcript.Segment, 0, len(segments))
	for _, seg := range segments {
		if seg.Duration() > f.MinDuration {
			out = append(out, seg)
		}
	}
	return out
}
