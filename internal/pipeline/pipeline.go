// Package pipeline runs recordings through transcription, decoding and
// analysis, one file at a time, and assembles the single, comparison and
// batch results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lexiqai/speech-insights/internal/analytics"
	"github.com/lexiqai/speech-insights/internal/audio"
	"github.com/lexiqai/speech-insights/internal/comparison"
	"github.com/lexiqai/speech-insights/internal/observability"
	"github.com/lexiqai/speech-insights/internal/render"
	"github.com/lexiqai/speech-insights/internal/transcript"
)

// Analysis modes, used as metric labels
const (
	ModeSingle  = "single"
	ModeCompare = "compare"
	ModeBatch   = "batch"
	ModeStream  = "stream"
)

// Upload is one submitted recording
type Upload struct {
	Filename string
	Body     io.Reader
}

// Options configures a Pipeline. Transcriber and Decoder are required.
type Options struct {
	Transcriber transcript.Transcriber
	Decoder     audio.Decoder
	Analyzer    *analytics.Analyzer  // defaults to analytics.New(nil)
	Comparer    *comparison.Analyzer // defaults to comparison.New(nil)
	Renderer    render.Renderer      // nil disables images

	UploadDir         string   // defaults to os.TempDir()
	TranscriptPreview int      // comparison transcript length in runes
	Extensions        []string // batch allow-list, lowercase with dot
}

// Pipeline processes uploads. It holds no per-request state and is safe
// for concurrent use as long as its collaborators are.
type Pipeline struct {
	transcriber transcript.Transcriber
	decoder     audio.Decoder
	analyzer    *analytics.Analyzer
	comparer    *comparison.Analyzer
	renderer    render.Renderer

	uploadDir  string
	preview    int
	extensions []string
}

// New creates a pipeline
func New(opts Options) *Pipeline {
	p := &Pipeline{
		transcriber: opts.Transcriber,
		decoder:     opts.Decoder,
		analyzer:    opts.Analyzer,
		comparer:    opts.Comparer,
		renderer:    opts.Renderer,
		uploadDir:   opts.UploadDir,
		preview:     opts.TranscriptPreview,
		extensions:  opts.Extensions,
	}
	if p.analyzer == nil {
		p.analyzer = analytics.New(nil)
	}
	if p.comparer == nil {
		p.comparer = comparison.New(nil)
	}
	if p.uploadDir == "" {
		p.uploadDir = os.TempDir()
	}
	if len(p.extensions) == 0 {
		p.extensions = []string{".mp3", ".wav"}
	}
	return p
}

// Transcriber returns the transcription collaborator, for readiness checks
func (p *Pipeline) Transcriber() transcript.Transcriber {
	return p.transcriber
}

// FileReport is the analysis of one named recording
type FileReport struct {
	Filename string
	Report   *analytics.Report
	Plots    map[string]string
}

// AnalyzeSingle analyzes one recording and renders its charts
func (p *Pipeline) AnalyzeSingle(ctx context.Context, up Upload) (*FileReport, error) {
	return p.analyzeNamed(ctx, up, ModeSingle)
}

// AnalyzeStream is AnalyzeSingle for recordings received over a stream
func (p *Pipeline) AnalyzeStream(ctx context.Context, up Upload) (*FileReport, error) {
	return p.analyzeNamed(ctx, up, ModeStream)
}

func (p *Pipeline) analyzeNamed(ctx context.Context, up Upload, mode string) (*FileReport, error) {
	if up.Filename == "" {
		return nil, ErrEmptyFilename
	}

	timer := observability.StartAnalysis(mode)
	fr, err := p.analyzeAndRender(ctx, up)
	timer.Done(err == nil)
	if err != nil {
		observability.RecordError("analysis", mode)
		return nil, err
	}
	return fr, nil
}

func (p *Pipeline) analyzeAndRender(ctx context.Context, up Upload) (*FileReport, error) {
	report, err := p.analyze(ctx, up)
	if err != nil {
		return nil, err
	}

	fr := &FileReport{Filename: up.Filename, Report: report, Plots: map[string]string{}}
	if p.renderer != nil {
		plots, err := p.renderer.Report(report.Charts)
		if err != nil {
			return nil, fileError(up.Filename, StageRender, err)
		}
		fr.Plots = plots
	}
	return fr, nil
}

// analyze runs one recording through every stage. The saved upload is
// removed before returning on every path.
func (p *Pipeline) analyze(ctx context.Context, up Upload) (*analytics.Report, error) {
	tr, sig, err := p.transcribeAndDecode(ctx, up)
	if err != nil {
		return nil, err
	}

	report, err := p.analyzer.BuildReport(tr, sig)
	if err != nil {
		return nil, fileError(up.Filename, StageAnalyze, err)
	}
	return report, nil
}

func (p *Pipeline) transcribeAndDecode(ctx context.Context, up Upload) (*transcript.Result, *audio.Signal, error) {
	logger := zerolog.Ctx(ctx).With().Str("filename", up.Filename).Logger()

	path, err := p.save(up)
	if err != nil {
		return nil, nil, fileError(up.Filename, StageSave, err)
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn().Err(err).Str("path", path).Msg("Failed to remove upload")
		}
	}()

	tr, err := p.transcriber.Transcribe(ctx, path)
	if err != nil {
		return nil, nil, fileError(up.Filename, StageTranscribe, err)
	}

	sig, err := p.decoder.Decode(ctx, path)
	if err != nil {
		return nil, nil, fileError(up.Filename, StageDecode, err)
	}

	logger.Debug().
		Int("segments", len(tr.Segments)).
		Float64("duration", sig.Duration()).
		Msg("Recording transcribed and decoded")
	return tr, sig, nil
}

// save writes the upload to a fresh file in the upload directory, keeping
// the original extension so decoders can pick a format
func (p *Pipeline) save(up Upload) (string, error) {
	if up.Body == nil {
		return "", fmt.Errorf("upload has no body")
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(up.Filename)))
	f, err := os.CreateTemp(p.uploadDir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}

	n, err := io.Copy(f, up.Body)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	observability.RecordUploadBytes(n)
	return f.Name(), nil
}
