package transcript

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTranscriber struct {
	active  int32
	maxSeen int32
}

func (c *countingTranscriber) Transcribe(ctx context.Context, path string) (*Result, error) {
	n := atomic.AddInt32(&c.active, 1)
	for {
		seen := atomic.LoadInt32(&c.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&c.maxSeen, seen, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	atomic.AddInt32(&c.active, -1)
	return &Result{FullText: path}, nil
}

func (c *countingTranscriber) Ping(ctx context.Context) error { return nil }
func (c *countingTranscriber) Name() string                   { return "counting" }

func TestSerialized_LimitsConcurrency(t *testing.T) {
	inner := &countingTranscriber{}
	s := NewSerialized(inner, 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Transcribe(context.Background(), "x.wav")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&inner.maxSeen))
	assert.Equal(t, "counting", s.Name())
}

func TestSerialized_ContextCancelledWhileWaiting(t *testing.T) {
	s := NewSerialized(&countingTranscriber{}, 1)
	s.slots <- struct{}{} // occupy the only slot

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.Transcribe(ctx, "x.wav")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSegment_Helpers(t *testing.T) {
	seg := Segment{Text: "a", Start: 1, End: 3}
	assert.Equal(t, 2.0, seg.Duration())
	assert.Equal(t, 0.9, seg.ConfidenceOr(0.9))
	assert.NoError(t, seg.Validate())

	seg.Confidence = Float(0.3)
	assert.Equal(t, 0.3, seg.ConfidenceOr(0.9))

	bad := &Result{Segments: []Segment{{Text: "x", Start: 2, End: 1}}}
	assert.Error(t, bad.Validate())
}
