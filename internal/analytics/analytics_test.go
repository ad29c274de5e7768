package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexiqai/speech-insights/internal/audio"
	"github.com/lexiqai/speech-insights/internal/transcript"
)

func seg(text string, start, end float64) transcript.Segment {
	return transcript.Segment{Text: text, Start: start, End: end}
}

func segc(text string, start, end, conf float64) transcript.Segment {
	s := seg(text, start, end)
	s.Confidence = transcript.Float(conf)
	return s
}

func TestSegmentFilter_Apply(t *testing.T) {
	f := SegmentFilter{MinDuration: 0.1}
	in := []transcript.Segment{
		seg("a", 0, 0.1),  // exactly at threshold, dropped
		seg("b", 1, 1.05), // short, dropped
		seg("c", 2, 2.5),
		seg("d", 3, 4),
	}

	out := f.Apply(in)
	require.Len(t, out, 2)
	assert.Equal(t, "c", out[0].Text)
	assert.Equal(t, "d", out[1].Text)
}

func TestPacing_SingleSegment(t *testing.T) {
	res := PacingAnalyzer{Filter: SegmentFilter{MinDuration: 0.1}}.Analyze(
		[]transcript.Segment{seg("a a a", 0, 2)},
	)

	assert.InDelta(t, 90, res.MeanWPM, 1e-9)
	assert.Equal(t, 0.0, res.WPMVariability)
	assert.Equal(t, 0.0, res.SilenceRatio)
	require.Len(t, res.Points, 1)
	assert.Equal(t, PacePoint{Time: 2, WPM: 90}, res.Points[0])
}

func TestPacing_NoQualifyingSegments(t *testing.T) {
	res := PacingAnalyzer{Filter: SegmentFilter{MinDuration: 0.1}}.Analyze([]transcript.Segment{
		seg("um", 0, 0.05),
		seg("uh", 1, 1.05),
	})

	assert.Equal(t, 0.0, res.MeanWPM)
	assert.Equal(t, 0.0, res.WPMVariability)
	assert.Empty(t, res.Points)
	// Nothing qualified, so the whole span counts as silence
	assert.InDelta(t, 1.0, res.SilenceRatio, 1e-9)
}

func TestPacing_Empty(t *testing.T) {
	res := PacingAnalyzer{Filter: SegmentFilter{MinDuration: 0.1}}.Analyze(nil)
	assert.Equal(t, PacingResult{Points: []PacePoint{}}, res)
}

func TestPacing_VariabilityAndSilence(t *testing.T) {
	res := PacingAnalyzer{Filter: SegmentFilter{MinDuration: 0.1}}.Analyze([]transcript.Segment{
		seg("one two", 0, 1),             // 120 wpm
		seg("three four five six", 2, 3), // 240 wpm
		seg("x", 9.95, 10),               // filtered, but still ends the recording
	})

	assert.InDelta(t, 180, res.MeanWPM, 1e-9)
	assert.InDelta(t, 60, res.WPMVariability, 1e-9) // population std
	assert.InDelta(t, 0.8, res.SilenceRatio, 1e-9)
}

func TestPacing_OverlapNotClamped(t *testing.T) {
	res := PacingAnalyzer{Filter: SegmentFilter{MinDuration: 0.1}}.Analyze([]transcript.Segment{
		seg("a b", 0, 2),
		seg("c d", 0, 2),
		seg("e", 0.5, 1),
	})
	assert.Less(t, res.SilenceRatio, 0.0)
}

func TestPauses(t *testing.T) {
	var p PauseAnalyzer

	assert.Equal(t, 0.0, p.Analyze(nil).Average)
	assert.Equal(t, 0.0, p.Analyze([]transcript.Segment{seg("a", 0, 1)}).Average)

	res := p.Analyze([]transcript.Segment{
		seg("a", 0, 1),
		seg("b", 1.5, 2),
		seg("c", 1.8, 3), // overlaps: negative pause kept
	})
	require.Len(t, res.Pauses, 2)
	assert.InDelta(t, 0.5, res.Pauses[0], 1e-9)
	assert.InDelta(t, -0.2, res.Pauses[1], 1e-9)
	assert.InDelta(t, 0.15, res.Average, 1e-9)
}

func defaultConfidence() ConfidenceAnalyzer {
	return New(nil).Confidence
}

func TestConfidence_Example(t *testing.T) {
	segs := []transcript.Segment{
		segc("hi there", 0, 1, 0.95),
		segc("ok", 1.2, 2, 0.5),
	}

	m, err := defaultConfidence().Analyze(segs)
	require.NoError(t, err)
	assert.Equal(t, 0.5, m.HighConfidenceRatio)
	assert.Equal(t, []string{"ok"}, m.LowConfidenceWords)
}

func TestConfidence_AsymmetricDefaults(t *testing.T) {
	// A missing confidence counts as 0.9 for the ratio (not > 0.9)
	// and as 1.0 for the low filter (not < 0.7).
	m, err := defaultConfidence().Analyze([]transcript.Segment{seg("unknown", 0, 1)})
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.HighConfidenceRatio)
	assert.Empty(t, m.LowConfidenceWords)

	c := defaultConfidence()
	assert.Equal(t, RatioDefaultConfidence, c.RatioDefault)
	assert.Equal(t, FilterDefaultConfidence, c.FilterDefault)
}

func TestConfidence_NoSegments(t *testing.T) {
	_, err := defaultConfidence().Analyze(nil)
	assert.ErrorIs(t, err, ErrNoSegments)
}

func TestConfidence_Mean(t *testing.T) {
	c := defaultConfidence()
	assert.Equal(t, 0.0, c.MeanConfidence(nil))
	assert.InDelta(t, 0.7, c.MeanConfidence([]transcript.Segment{
		segc("a", 0, 1, 0.5),
		seg("b", 1, 2), // defaults to 0.9
	}), 1e-9)
}

func TestVocabulary(t *testing.T) {
	var v VocabularyAnalyzer

	res := v.Analyze([]transcript.Segment{seg("a a a", 0, 2)})
	assert.Equal(t, 1, res.UniqueWordCount)
	assert.InDelta(t, 1.0/3.0, res.LexicalDiversity, 1e-12)
	assert.Equal(t, 1.0, res.AvgWordLength)

	res = v.Analyze([]transcript.Segment{
		seg("The cat, the 2 cats", 0, 1),
		seg("Über naïve 42 !!", 1, 2),
	})
	// "cat," "2" "42" "!!" are dropped; case matters
	assert.Equal(t, []string{"The", "the", "cats", "Über", "naïve"}, res.Words)
	assert.Equal(t, 5, res.UniqueWordCount)
	assert.Equal(t, 1.0, res.LexicalDiversity)
	assert.InDelta(t, 19.0/5.0, res.AvgWordLength, 1e-12)
}

func TestVocabulary_Empty(t *testing.T) {
	res := VocabularyAnalyzer{}.Analyze([]transcript.Segment{seg("123 ...", 0, 1)})
	assert.Empty(t, res.Words)
	assert.Equal(t, 0, res.UniqueWordCount)
	assert.Equal(t, 0.0, res.LexicalDiversity)
	assert.Equal(t, 0.0, res.AvgWordLength)
}

func TestVocabulary_DiversityBounds(t *testing.T) {
	texts := []string{"a b c", "a a b", "x", "same same same same"}
	for _, text := range texts {
		res := VocabularyAnalyzer{}.Analyze([]transcript.Segment{seg(text, 0, 1)})
		assert.GreaterOrEqual(t, res.LexicalDiversity, 0.0)
		assert.LessOrEqual(t, res.LexicalDiversity, 1.0)
		assert.Equal(t, res.UniqueWordCount == len(res.Words), res.LexicalDiversity == 1.0, text)
	}
}

func TestEnergyCorrelator_SegmentEnergies(t *testing.T) {
	env := []audio.EnergyPoint{
		{Time: 0, Value: 1},
		{Time: 1, Value: 3},
		{Time: 2, Value: 5},
		{Time: 3, Value: 7},
	}
	segs := []transcript.Segment{
		seg("a", 0, 1),     // 1, 3
		seg("b", 1.5, 3),   // 5, 7
		seg("c", 2.2, 2.4), // nothing in range
	}

	got := EnergyCorrelator{}.SegmentEnergies(env, segs)
	require.Len(t, got, 3)
	require.NotNil(t, got[0])
	require.NotNil(t, got[1])
	assert.Equal(t, 2.0, *got[0])
	assert.Equal(t, 6.0, *got[1])
	assert.Nil(t, got[2])
}

func TestEnergyCorrelator_NoSignal(t *testing.T) {
	e := New(nil).Energy
	got := e.SegmentEnergies(e.Envelope(nil), []transcript.Segment{seg("a", 0, 1)})
	assert.Equal(t, []*float64{nil}, got)
}

func burstSignal(rate int, seconds, from, to float64) *audio.Signal {
	samples := make([]float64, int(seconds*float64(rate)))
	for i := range samples {
		if ts := float64(i) / float64(rate); ts >= from && ts < to {
			samples[i] = 1
		}
	}
	return &audio.Signal{Samples: samples, SampleRate: rate}
}

func TestEnergyCorrelator_SampleRateIndependent(t *testing.T) {
	e := New(nil).Energy
	segments := []transcript.Segment{seg("burst", 0.5, 0.55)}

	var energies []float64
	for _, rate := range []int{16000, 22050, 44100} {
		got := e.SegmentEnergies(e.Envelope(burstSignal(rate, 2, 0.5, 0.55)), segments)
		require.NotNil(t, got[0], "rate %d", rate)
		energies = append(energies, *got[0])
	}

	assert.InDelta(t, energies[1], energies[0], 0.01)
	assert.InDelta(t, energies[1], energies[2], 0.01)
}

func TestEnergyCorrelator_Scale(t *testing.T) {
	e := EnergyCorrelator{FrameLength: 2048, HopLength: 512}
	assert.Equal(t, 2048, e.scale(2048, ReferenceSampleRate))
	assert.Equal(t, 4096, e.scale(2048, 44100))
	assert.Equal(t, 372, e.scale(512, 16000))
	assert.Equal(t, 1, e.scale(1, 8))

	e.ReferenceRate = 16000
	assert.Equal(t, 512, e.scale(512, 16000))
}

func TestSummarize(t *testing.T) {
	a := New(nil)
	tr := &transcript.Result{
		FullText: "one two three four five six",
		Segments: []transcript.Segment{segc("one two three", 0, 1, 0.8), seg("four five six", 1, 2)},
	}

	s, err := a.Summarize(tr, 3)
	require.NoError(t, err)
	assert.InDelta(t, 120, s.MeanWPM, 1e-9)
	assert.InDelta(t, 0.85, s.MeanConfidence, 1e-9)

	_, err = a.Summarize(tr, 0)
	assert.ErrorIs(t, err, ErrZeroDuration)
}
