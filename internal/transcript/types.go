// Package transcript models speech-recognition output and the collaborators
// that produce it.
package transcript

import (
	"context"
	"fmt"
)

// Segment is a contiguous span of recognized speech.
// Confidence is nil when the recognizer did not report one.
type Segment struct {
	Text       string   `json:"text"`
	Start      float64  `json:"start"` // seconds
	End        float64  `json:"end"`   // seconds
	Confidence *float64 `json:"confidence,omitempty"`
}

// Duration returns End - Start
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// ConfidenceOr returns the segment confidence or def when it is missing
func (s Segment) ConfidenceOr(def float64) float64 {
	if s.Confidence == nil {
		return def
	}
	return *s.Confidence
}

// Validate checks the end >= start invariant
func (s Segment) Validate() error {
	if s.End < s.Start {
		return fmt.Errorf("segment %q ends before it starts (%.3f < %.3f)", s.Text, s.End, s.Start)
	}
	return nil
}

// Result is the output of a transcription; segments are in chronological order.
type Result struct {
	FullText string    `json:"text"`
	Segments []Segment `json:"segments"`
}

// Validate checks every segment
func (r *Result) Validate() error {
	for i, seg := range r.Segments {
		if err := seg.Validate(); err != nil {
			return fmt.Errorf("malformed segment %d: %w", i, err)
		}
	}
	return nil
}

// Transcriber turns an audio file into timestamped text segments
type Transcriber interface {
	// Transcribe blocks until the recording at path is transcribed
	Transcribe(ctx context.Context, path string) (*Result, error)

	// Ping reports whether the collaborator is reachable
	Ping(ctx context.Context) error

	// Name identifies the provider in logs and metrics
	Name() string
}

// Float returns a pointer to v, for building segments with a confidence
func Float(v float64) *float64 {
	return &v
}
