package transcript

import (
	"context"
)

// Serialized bounds the number of concurrent calls into a shared transcriber.
// Recognizer instances are not assumed to be safe for concurrent use, so the
// default limit is one call at a time.
type Serialized struct {
	inner Transcriber
	slots chan struct{}
}

// NewSerialized wraps inner allowing at most limit concurrent transcriptions
func NewSerialized(inner Transcriber, limit int) *Serialized {
	if limit < 1 {
		limit = 1
	}
	return &Serialized{
		inner: inner,
		slots: make(chan struct{}, limit),
	}
}

// Transcribe waits for a free slot, or for ctx to be done
func (s *Serialized) Transcribe(ctx context.Context, path string) (*Result, error) {
	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.slots }()

	return s.inner.Transcribe(ctx, path)
}

// Ping does not take a slot
func (s *Serialized) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Name returns the wrapped provider name
func (s *Serialized) Name() string {
	return s.inner.Name()
}
