// Package audio decodes recordings into mono sample sequences and derives
// short-window loudness from them.
package audio

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned when no decoder understands the input
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrEmptySignal is returned when a recording decodes to zero samples
	ErrEmptySignal = errors.New("audio contains no samples")
)

// Signal is a mono sample sequence with amplitudes in [-1, 1]
type Signal struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the signal length in seconds
func (s *Signal) Duration() float64 {
	if s == nil || s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.SampleRate)
}

// Decoder turns an audio file into a Signal
type Decoder interface {
	Decode(ctx context.Context, path string) (*Signal, error)
}

// AutoDecoder reads WAV natively and hands every other container to ffmpeg
type AutoDecoder struct {
	WAV    Decoder
	FFmpeg Decoder
}

// NewAutoDecoder creates a decoder using the ffmpeg binary at ffmpegPath
// for non-WAV input, resampled to sampleRate.
func NewAutoDecoder(ffmpegPath string, sampleRate int) *AutoDecoder {
	return &AutoDecoder{
		WAV:    &WAVDecoder{},
		FFmpeg: NewFFmpegDecoder(ffmpegPath, sampleRate),
	}
}

// Decode picks a decoder by extension. WAV files that go-audio rejects
// (compressed WAVE payloads, for example) fall back to ffmpeg.
// A recording without samples is reported as ErrEmptySignal.
func (a *AutoDecoder) Decode(ctx context.Context, path string) (*Signal, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") && a.WAV != nil {
		sig, err := a.WAV.Decode(ctx, path)
		if err == nil || !errors.Is(err, ErrUnsupportedFormat) || a.FFmpeg == nil {
			return nonEmpty(sig, err)
		}
	}
	if a.FFmpeg == nil {
		return nil, ErrUnsupportedFormat
	}
	return nonEmpty(a.FFmpeg.Decode(ctx, path))
}

func nonEmpty(sig *Signal, err error) (*Signal, error) {
	if err != nil {
		return nil, err
	}
	if sig == nil || len(sig.Samples) == 0 {
		return nil, ErrEmptySignal
	}
	return sig, nil
}
