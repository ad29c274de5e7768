package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/lexiqai/speech-insights/internal/analytics"
	"github.com/lexiqai/speech-insights/internal/comparison"
	"github.com/lexiqai/speech-insights/internal/pipeline"
)

// Client-facing messages
const (
	msgNoFiles        = "No files uploaded"
	msgNoValidFiles   = "No valid files selected"
	msgNoSelectedFile = "No selected file"
	msgTooFew         = "Need at least 2 valid files for comparison"
	msgFileCount      = "Please upload 1-3 files only"
	msgNoAudio        = "No audio files provided"
	msgProcessing     = "Processing error"
	msgBadUpload      = "Invalid upload"
	msgTooLarge       = "Upload too large"
)

type errorPayload struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// ReportPayload is the single-recording response
type ReportPayload struct {
	Success    bool                `json:"success"`
	Filename   string              `json:"filename,omitempty"`
	Transcript string              `json:"transcript"`
	Stats      analytics.Stats     `json:"stats"`
	Plots      map[string]string   `json:"plots"`
	Charts     analytics.ChartData `json:"charts"`
}

// NewReportPayload wraps a successful single analysis
func NewReportPayload(fr *pipeline.FileReport) ReportPayload {
	return ReportPayload{
		Success:    true,
		Filename:   fr.Filename,
		Transcript: fr.Report.Transcript,
		Stats:      fr.Report.Stats,
		Plots:      fr.Plots,
		Charts:     fr.Report.Charts,
	}
}

// ComparisonCharts is the raw data behind the comparison images
type ComparisonCharts struct {
	Metrics         comparison.GroupedBars    `json:"metrics_comparison"`
	VocabConfidence comparison.LabeledScatter `json:"vocab_conf_comparison"`
}

// ANOVAResults carries the pacing significance; nil encodes as null
type ANOVAResults struct {
	WPMPValue *float64 `json:"wpm_pvalue"`
}

// ComparisonPayload is the multi-recording response
type ComparisonPayload struct {
	Success          bool                    `json:"success"`
	ComparisonPlots  map[string]string       `json:"comparison_plots"`
	ComparisonCharts ComparisonCharts        `json:"comparison_charts"`
	Files            []pipeline.ComparedFile `json:"files"`
	ANOVAResults     ANOVAResults            `json:"anova_results"`
}

// NewComparisonPayload wraps a successful comparison
func NewComparisonPayload(cr *pipeline.ComparisonReport) ComparisonPayload {
	return ComparisonPayload{
		Success:         true,
		ComparisonPlots: cr.Plots,
		ComparisonCharts: ComparisonCharts{
			Metrics:         cr.Result.Metrics,
			VocabConfidence: cr.Result.VocabConfidence,
		},
		Files:        cr.Files,
		ANOVAResults: ANOVAResults{WPMPValue: cr.Result.PacingSignificance},
	}
}

// BatchPayload is the /analyze_multi response
type BatchPayload struct {
	Results []pipeline.BatchItem `json:"results"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorPayload{Success: false, Error: msg})
}
