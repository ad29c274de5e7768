// Package comparison aggregates two or three recording reports into
// side-by-side chart data and a pacing significance test.
package comparison

import (
	"errors"
	"fmt"

	"github.com/lexiqai/speech-insights/internal/analytics"
	"github.com/lexiqai/speech-insights/internal/config"
	"github.com/lexiqai/speech-insights/internal/stats"
)

// Comparable recording counts
const (
	MinRecordings = 2
	MaxRecordings = 3
)

// ErrRecordingCount is returned when Compare gets fewer than 2 or more than 3 reports
var ErrRecordingCount = errors.New("comparison needs 2 or 3 recordings")

// Metric names of the grouped bar chart, in display order
var BarMetrics = []string{"mean_wpm", "wpm_variability", "silence_ratio"}

// Recording is a named report
type Recording struct {
	Name   string
	Report *analytics.Report
}

// BarGroup holds one recording's values, aligned with GroupedBars.Metrics
type BarGroup struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

// GroupedBars compares a few metrics across recordings
type GroupedBars struct {
	Metrics []string   `json:"metrics"`
	Groups  []BarGroup `json:"groups"`
}

// LabeledPoint is a scatter point tagged with its source recording
type LabeledPoint struct {
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// LabeledScatter plots lexical diversity (X) against high-confidence ratio (Y)
type LabeledScatter struct {
	Points []LabeledPoint `json:"points"`
}

// Result is the outcome of a comparison. PacingSignificance is nil when
// the test is unavailable.
type Result struct {
	Recordings         []Recording    `json:"-"`
	Metrics            GroupedBars    `json:"metrics_comparison"`
	VocabConfidence    LabeledScatter `json:"vocab_conf_comparison"`
	PacingSignificance *float64       `json:"wpm_pvalue"`
}

// Analyzer builds comparisons. The zero value uses no label truncation.
type Analyzer struct {
	BarLabelWidth   int
	PointLabelWidth int
}

// New builds an Analyzer from an analysis profile; nil means defaults
func New(p *config.Profile) *Analyzer {
	if p == nil {
		p = config.DefaultProfile()
	}
	return &Analyzer{
		BarLabelWidth:   p.Output.BarLabelWidth,
		PointLabelWidth: p.Output.PointLabelWidth,
	}
}

// Compare aggregates the recordings in the given order
func (a *Analyzer) Compare(recs []Recording) (*Result, error) {
	if len(recs) < MinRecordings || len(recs) > MaxRecordings {
		return nil, fmt.Errorf("%w: got %d", ErrRecordingCount, len(recs))
	}

	res := &Result{
		Recordings: recs,
		Metrics: GroupedBars{
			Metrics: BarMetrics,
			Groups:  make([]BarGroup, 0, len(recs)),
		},
		VocabConfidence: LabeledScatter{Points: make([]LabeledPoint, 0, len(recs))},
	}

	wpm := make([]float64, 0, len(recs))
	for _, rec := range recs {
		if rec.Report == nil {
			return nil, fmt.Errorf("recording %q has no report", rec.Name)
		}
		s := rec.Report.Stats
		res.Metrics.Groups = append(res.Metrics.Groups, BarGroup{
			Label:  Truncate(rec.Name, a.BarLabelWidth),
			Values: []float64{s.Speech.MeanWPM, s.Speech.WPMVariability, s.Speech.SilenceRatio},
		})
		res.VocabConfidence.Points = append(res.VocabConfidence.Points, LabeledPoint{
			Label: Truncate(rec.Name, a.PointLabelWidth),
			X:     s.Vocab.LexicalDiversity,
			Y:     s.Confidence.HighConfidenceRatio,
		})
		wpm = append(wpm, s.Speech.MeanWPM)
	}

	res.PacingSignificance = PacingSignificance(wpm)
	return res, nil
}

// PacingSignificance runs a one-way ANOVA with each recording's mean WPM as
// its own one-element group. It returns nil with fewer than two values, when
// all values are equal, or when the test cannot be computed.
func PacingSignificance(meanWPM []float64) *float64 {
	if len(meanWPM) < 2 || allEqual(meanWPM) {
		return nil
	}

	groups := make([][]float64, len(meanWPM))
	for i, v := range meanWPM {
		groups[i] = []float64{v}
	}
	res, err := stats.OneWayANOVA(groups...)
	if err != nil {
		return nil
	}
	p := res.PValue
	return &p
}

func allEqual(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// Truncate keeps at most width runes of s; width <= 0 keeps everything
func Truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width])
}
