package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpegDecoder shells out to ffmpeg to get mono 16-bit PCM at a fixed rate
type FFmpegDecoder struct {
	binary     string
	sampleRate int
}

// NewFFmpegDecoder creates an ffmpeg-backed decoder
func NewFFmpegDecoder(binary string, sampleRate int) *FFmpegDecoder {
	if binary == "" {
		binary = "ffmpeg"
	}
	if sampleRate <= 0 {
		sampleRate = 22050
	}
	return &FFmpegDecoder{binary: binary, sampleRate: sampleRate}
}

// Decode converts the file at path to raw s16le on stdout
func (f *FFmpegDecoder) Decode(ctx context.Context, path string) (*Signal, error) {
	cmd := exec.CommandContext(ctx,
		f.binary,
		"-v", "error",
		"-nostdin",
		"-i", path,
		"-f", "s16le", // raw little-endian 16-bit
		"-ac", "1", // mono
		"-ar", strconv.Itoa(f.sampleRate),
		"pipe:1",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
		}
		return nil, fmt.Errorf("ffmpeg decode failed: %s: %w", msg, err)
	}

	samples, err := PCM16ToFloat(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	return &Signal{Samples: samples, SampleRate: f.sampleRate}, nil
}

// Available reports whether the ffmpeg binary can be executed
func (f *FFmpegDecoder) Available(ctx context.Context) error {
	return exec.CommandContext(ctx, f.binary, "-version").Run()
}

// PCM16ToFloat converts little-endian signed 16-bit PCM to [-1, 1] samples
func PCM16ToFloat(pcm []byte) ([]float64, error) {
	if len(pcm)%2 != 0 {
		return nil, fmt.Errorf("PCM data length must be even (16-bit samples)")
	}

	samples := make([]float64, len(pcm)/2)
	for i := range samples {
		v := int16(pcm[i*2]) | int16(pcm[i*2+1])<<8
		samples[i] = float64(v) / 32768.0
	}
	return samples, nil
}
