package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Analysis metrics
	analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speech_insights_analyses_total",
		Help: "Total number of recording analyses",
	}, []string{"mode", "status"}) // mode: single, compare, batch, stream

	analysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "speech_insights_analysis_duration_seconds",
		Help:    "Duration of a single recording analysis in seconds",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	// Transcription metrics
	transcriptionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speech_insights_transcription_requests_total",
		Help: "Total number of transcription requests",
	}, []string{"provider", "status"})

	transcriptionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "speech_insights_transcription_latency_seconds",
		Help:    "Transcription latency in seconds",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	// Comparison metrics
	comparisonsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speech_insights_comparisons_total",
		Help: "Total number of completed comparisons by pacing significance availability",
	}, []string{"significance"}) // available, unavailable

	// Upload metrics
	uploadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "speech_insights_upload_bytes_total",
		Help: "Total uploaded audio bytes",
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speech_insights_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "speech_insights_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speech_insights_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})
)

// AnalysisTimer tracks one recording analysis
type AnalysisTimer struct {
	mode  string
	start time.Time
}

// StartAnalysis starts timing an analysis in the given mode
func StartAnalysis(mode string) *AnalysisTimer {
	return &AnalysisTimer{mode: mode, start: time.Now()}
}

// Done records the analysis outcome and duration
func (a *AnalysisTimer) Done(success bool) {
	analysisDuration.Observe(time.Since(a.start).Seconds())
	analysesTotal.WithLabelValues(a.mode, statusLabel(success)).Inc()
}

// RecordTranscription records one call to the transcription collaborator
func RecordTranscription(provider string, latency time.Duration, success bool) {
	transcriptionLatency.Observe(latency.Seconds())
	transcriptionRequests.WithLabelValues(provider, statusLabel(success)).Inc()
}

// RecordComparison records a completed comparison
func RecordComparison(significanceAvailable bool) {
	label := "unavailable"
	if significanceAvailable {
		label = "available"
	}
	comparisonsTotal.WithLabelValues(label).Inc()
}

// RecordUploadBytes records uploaded audio bytes
func RecordUploadBytes(n int64) {
	uploadBytes.Add(float64(n))
}

// RecordError records an error
func RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
