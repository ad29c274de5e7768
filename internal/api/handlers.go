// Package api exposes the analysis pipeline over HTTP and websockets.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/lexiqai/speech-insights/internal/comparison"
	"github.com/lexiqai/speech-insights/internal/observability"
	"github.com/lexiqai/speech-insights/internal/pipeline"
)

// Analyzer is the pipeline surface the handlers need
type Analyzer interface {
	AnalyzeSingle(ctx context.Context, up pipeline.Upload) (*pipeline.FileReport, error)
	AnalyzeStream(ctx context.Context, up pipeline.Upload) (*pipeline.FileReport, error)
	Compare(ctx context.Context, uploads []pipeline.Upload) (*pipeline.ComparisonReport, error)
	Batch(ctx context.Context, uploads []pipeline.Upload) []pipeline.BatchItem
}

// Handler serves the upload and streaming endpoints
type Handler struct {
	analyzer       Analyzer
	maxUploadBytes int64
}

// NewHandler creates a handler limiting request bodies to maxUploadBytes
func NewHandler(analyzer Analyzer, maxUploadBytes int64) *Handler {
	return &Handler{analyzer: analyzer, maxUploadBytes: maxUploadBytes}
}

// Register adds the routes to mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /analyze", h.Analyze)
	mux.HandleFunc("POST /analyze_multi", h.AnalyzeMulti)
	mux.HandleFunc("GET /ws/analyze", h.Stream)
}

// Analyze handles 1 to 3 recordings: one yields a report, two or three a
// comparison.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	if !h.parseForm(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	if !hasAnyFile(r.MultipartForm) {
		writeError(w, r, http.StatusBadRequest, msgNoFiles)
		return
	}
	parts := normalizeUploads(r.MultipartForm)
	if len(parts) == 0 {
		writeError(w, r, http.StatusBadRequest, msgNoValidFiles)
		return
	}

	switch n := len(parts); {
	case n == 1:
		h.analyzeSingle(w, r, parts[0])

	case n >= comparison.MinRecordings && n <= comparison.MaxRecordings:
		h.compare(w, r, parts)

	default:
		logger.Warn().Int("files", n).Msg("Rejected upload file count")
		writeError(w, r, http.StatusBadRequest, msgFileCount)
	}
}

func (h *Handler) analyzeSingle(w http.ResponseWriter, r *http.Request, part filePart) {
	if part.filename == "" {
		writeError(w, r, http.StatusBadRequest, msgNoSelectedFile)
		return
	}

	uploads, closeAll, err := openParts([]filePart{part})
	if err != nil {
		h.unexpected(w, r, err)
		return
	}
	defer closeAll()

	fr, err := h.analyzer.AnalyzeSingle(r.Context(), uploads[0])
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("filename", part.filename).Msg("Analysis failed")
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, NewReportPayload(fr))
}

func (h *Handler) compare(w http.ResponseWriter, r *http.Request, parts []filePart) {
	uploads, closeAll, err := openParts(parts)
	if err != nil {
		h.unexpected(w, r, err)
		return
	}
	defer closeAll()

	cr, err := h.analyzer.Compare(r.Context(), uploads)
	switch {
	case errors.Is(err, pipeline.ErrTooFewRecordings):
		writeError(w, r, http.StatusBadRequest, msgTooFew)
	case err != nil:
		h.unexpected(w, r, err)
	default:
		writeJSON(w, r, http.StatusOK, NewComparisonPayload(cr))
	}
}

// AnalyzeMulti handles any number of recordings under "files", returning
// one entry per file
func (h *Handler) AnalyzeMulti(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	parts := fieldParts(r.MultipartForm, fileKey)
	if len(parts) == 0 {
		writeError(w, r, http.StatusBadRequest, msgNoAudio)
		return
	}

	uploads, closeAll, err := openParts(parts)
	if err != nil {
		h.unexpected(w, r, err)
		return
	}
	defer closeAll()

	zerolog.Ctx(r.Context()).Info().Int("files", len(uploads)).Msg("Received batch")
	writeJSON(w, r, http.StatusOK, BatchPayload{Results: h.analyzer.Batch(r.Context(), uploads)})
}

// parseForm reads the multipart body within the upload limit. It writes
// the error response and returns false on failure.
func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	err := r.ParseMultipartForm(32 << 20)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, r, http.StatusRequestEntityTooLarge, msgTooLarge)
		return false
	}
	if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
		writeError(w, r, http.StatusBadRequest, msgNoFiles)
		return false
	}
	zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Failed to parse upload")
	writeError(w, r, http.StatusBadRequest, msgBadUpload)
	return false
}

func (h *Handler) unexpected(w http.ResponseWriter, r *http.Request, err error) {
	observability.RecordError("unexpected", "api")
	zerolog.Ctx(r.Context()).Error().Err(err).Msg("Processing error")
	writeError(w, r, http.StatusInternalServerError, msgProcessing)
}

// openParts opens every part that has a file. Parts without one become
// uploads with no body and an empty filename.
func openParts(parts []filePart) ([]pipeline.Upload, func(), error) {
	uploads := make([]pipeline.Upload, 0, len(parts))
	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	for _, part := range parts {
		up := pipeline.Upload{Filename: part.filename}
		if part.header != nil {
			f, err := part.header.Open()
			if err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("failed to open upload %s: %w", part.filename, err)
			}
			closers = append(closers, f.Close)
			up.Body = f
		}
		uploads = append(uploads, up)
	}
	return uploads, closeAll, nil
}

// Recover turns a handler panic into a 500 response
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				observability.RecordError("panic", "api")
				zerolog.Ctx(r.Context()).Error().
					Interface("panic", v).
					Str("path", r.URL.Path).
					Msg("Recovered from panic")
				writeError(w, r, http.StatusInternalServerError, msgProcessing)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
