package render

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexiqai/speech-insights/internal/analytics"
	"github.com/lexiqai/speech-insights/internal/comparison"
	"github.com/lexiqai/speech-insights/internal/transcript"
)

func decodePNG(t *testing.T, s string) image.Image {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(s)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func sampleCharts(t *testing.T) analytics.ChartData {
	tr := &transcript.Result{
		FullText: "hello there how are you today",
		Segments: []transcript.Segment{
			{Text: "hello there", Start: 0, End: 1, Confidence: transcript.Float(0.95)},
			{Text: "how are", Start: 1.4, End: 2.2, Confidence: transcript.Float(0.6)},
			{Text: "you today", Start: 2.5, End: 3.5},
		},
	}
	r, err := analytics.New(nil).BuildReport(tr, nil)
	require.NoError(t, err)

	// The envelope is empty without audio; add energy points by hand
	r.Charts.EnergyConfidence.Points = []analytics.Point{{X: 0.05, Y: 0.95}, {X: 0.08, Y: 0.6}}
	return r.Charts
}

func TestPNG_Report(t *testing.T) {
	plots, err := NewPNG().Report(sampleCharts(t))
	require.NoError(t, err)

	for _, key := range []string{KeyWPM, KeyPauseConfidence, KeyVocabHeatmap, KeyEnergyConfidence} {
		require.Contains(t, plots, key)
		decodePNG(t, plots[key])
	}
}

func TestPNG_ReportEmpty(t *testing.T) {
	r, err := analytics.New(nil).BuildReport(&transcript.Result{}, nil)
	require.NoError(t, err)

	plots, err := NewPNG().Report(r.Charts)
	require.NoError(t, err)
	assert.Len(t, plots, 4)
	decodePNG(t, plots[KeyVocabHeatmap])
}

func TestPNG_ReportHonorsDPI(t *testing.T) {
	charts := sampleCharts(t)

	for _, dpi := range []int{72, 100, 150} {
		plots, err := (&PNG{DPI: dpi}).Report(charts)
		require.NoError(t, err)

		// WPM chart is 12x5 inches
		b := decodePNG(t, plots[KeyWPM]).Bounds()
		assert.Equal(t, 12*dpi, b.Dx(), "dpi %d", dpi)
		assert.Equal(t, 5*dpi, b.Dy(), "dpi %d", dpi)
	}
}

func TestMetricPanels(t *testing.T) {
	g := comparison.GroupedBars{
		Metrics: []string{"mean_wpm", "lexical_diversity", "silence_ratio"},
		Groups: []comparison.BarGroup{
			{Label: "first", Values: []float64{140, 0.5, 0.2}},
			{Label: "second", Values: []float64{160, 0.7, 0.1}},
		},
	}

	panels, err := MetricPanels(g)
	require.NoError(t, err)
	require.Len(t, panels, len(g.Metrics))

	assert.Equal(t, "Mean Wpm", panels[0].Title.Text)
	assert.Equal(t, "Silence Ratio", panels[2].Title.Text)

	// Each metric has its own y scale
	assert.GreaterOrEqual(t, panels[0].Y.Max, 160.0)
	assert.Less(t, panels[2].Y.Max, 1.0)
	assert.Less(t, panels[1].Y.Max, 1.0)
}

func TestMetricPanels_NoRecordings(t *testing.T) {
	panels, err := MetricPanels(comparison.GroupedBars{Metrics: []string{"mean_wpm"}})
	require.NoError(t, err)
	assert.Len(t, panels, 1)
}

func TestPNG_Comparison(t *testing.T) {
	a := &analytics.Report{}
	a.Stats.Speech.MeanWPM = 140
	b := &analytics.Report{}
	b.Stats.Speech.MeanWPM = 160
	b.Stats.Vocab.LexicalDiversity = 0.7

	res, err := comparison.New(nil).Compare([]comparison.Recording{
		{Name: "first.wav", Report: a},
		{Name: "second.mp3", Report: b},
	})
	require.NoError(t, err)

	plots, err := NewPNG().Comparison(res)
	require.NoError(t, err)
	bounds := decodePNG(t, plots[KeyMetricsComparison]).Bounds()
	assert.Equal(t, 1200, bounds.Dx())
	assert.Equal(t, 600, bounds.Dy())
	decodePNG(t, plots[KeyVocabConfidence])
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Mean Wpm", titleCase("mean_wpm"))
	assert.Equal(t, "Silence Ratio", titleCase("silence_ratio"))
}
