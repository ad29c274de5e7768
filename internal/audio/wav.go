package audio

import (
	"context"
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// WAVDecoder decodes PCM WAV files with go-audio, downmixing to mono
type WAVDecoder struct{}

// Decode reads the whole PCM payload at path
func (WAVDecoder) Decode(ctx context.Context, path string) (*Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav: %w", err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode wav: %w", err)
	}
	if buf == nil || buf.Format == nil || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("wav without sample rate: %w", ErrUnsupportedFormat)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	bitDepth := int(d.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}

	return &Signal{
		Samples:    downmix(buf.Data, channels, bitDepth),
		SampleRate: buf.Format.SampleRate,
	}, nil
}

// downmix averages interleaved channels and scales integer PCM to [-1, 1].
// 8-bit WAV is unsigned with a midpoint of 128.
func downmix(data []int, channels, bitDepth int) []float64 {
	scale := float64(int64(1) << uint(bitDepth-1))
	offset := 0.0
	if bitDepth == 8 {
		offset = 128
	}

	frames := len(data) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += (float64(data[i*channels+c]) - offset) / scale
		}
		out[i] = sum / float64(channels)
	}
	return out
}
