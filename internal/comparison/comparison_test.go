package comparison

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexiqai/speech-insights/internal/analytics"
)

func report(wpm, variability, silence, diversity, highRatio float64) *analytics.Report {
	r := &analytics.Report{}
	r.Stats.Speech = analytics.SpeechMetrics{MeanWPM: wpm, WPMVariability: variability, SilenceRatio: silence}
	r.Stats.Vocab.LexicalDiversity = diversity
	r.Stats.Confidence.HighConfidenceRatio = highRatio
	return r
}

func TestCompare(t *testing.T) {
	a := New(nil)
	res, err := a.Compare([]Recording{
		{Name: "quarterly_review_final.wav", Report: report(140, 12.5, 0.2, 0.6, 0.8)},
		{Name: "pitch.mp3", Report: report(160, 20, 0.1, 0.7, 0.5)},
	})
	require.NoError(t, err)

	require.Len(t, res.Metrics.Groups, 2)
	assert.Equal(t, BarMetrics, res.Metrics.Metrics)
	assert.Equal(t, "quarterly_revie", res.Metrics.Groups[0].Label)
	assert.Equal(t, []float64{140, 12.5, 0.2}, res.Metrics.Groups[0].Values)
	assert.Equal(t, "pitch.mp3", res.Metrics.Groups[1].Label)

	require.Len(t, res.VocabConfidence.Points, 2)
	assert.Equal(t, LabeledPoint{Label: "quarterly_", X: 0.6, Y: 0.8}, res.VocabConfidence.Points[0])

	// One value per group leaves the test without within-group freedom
	assert.Nil(t, res.PacingSignificance)
}

func TestCompare_RecordingCount(t *testing.T) {
	a := New(nil)
	r := report(100, 0, 0, 0, 0)

	_, err := a.Compare([]Recording{{Name: "a", Report: r}})
	assert.ErrorIs(t, err, ErrRecordingCount)

	_, err = a.Compare([]Recording{{"a", r}, {"b", r}, {"c", r}, {"d", r}})
	assert.ErrorIs(t, err, ErrRecordingCount)

	_, err = a.Compare([]Recording{{"a", r}, {"b", nil}})
	assert.Error(t, err)
}

func TestCompare_IdenticalRecordings(t *testing.T) {
	r := report(120, 5, 0.3, 0.5, 0.5)
	res, err := New(nil).Compare([]Recording{{"same.wav", r}, {"same.wav", r}})
	require.NoError(t, err)
	assert.Nil(t, res.PacingSignificance)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"wpm_pvalue":null`)
}

func TestPacingSignificance(t *testing.T) {
	assert.Nil(t, PacingSignificance(nil))
	assert.Nil(t, PacingSignificance([]float64{120}))
	assert.Nil(t, PacingSignificance([]float64{120, 120, 120}))
	assert.Nil(t, PacingSignificance([]float64{120, 150, 180}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "abcdefghij", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "héllo", Truncate("héllo wörld", 5))
	assert.Equal(t, "whole", Truncate("whole", 0))
}
