package analytics

import (
	"fmt"
	"math"

	"github.com/lexiqai/speech-insights/internal/audio"
	"github.com/lexiqai/speech-insights/internal/config"
	"github.com/lexiqai/speech-insights/internal/transcript"
)

// SpeechMetrics summarizes pacing and pauses
type SpeechMetrics struct {
	MeanWPM          float64 `json:"mean_wpm"`
	WPMVariability   float64 `json:"wpm_variability"`
	SilenceRatio     float64 `json:"silence_ratio"`
	AvgPauseDuration float64 `json:"avg_pause_duration"`
}

// VocabMetrics summarizes lexical richness
type VocabMetrics struct {
	UniqueWords      int     `json:"unique_words"`
	LexicalDiversity float64 `json:"lexical_diversity"`
	AvgWordLength    float64 `json:"avg_word_length"`
}

// Stats groups the three metric families of a recording
type Stats struct {
	Speech     SpeechMetrics     `json:"speech_metrics"`
	Confidence ConfidenceMetrics `json:"confidence_metrics"`
	Vocab      VocabMetrics      `json:"vocab_metrics"`
}

// Report is the analysis of one recording. It is built once and not modified.
type Report struct {
	Transcript string    `json:"transcript"`
	Stats      Stats     `json:"stats"`
	Charts     ChartData `json:"charts"`
}

// Analyzer bundles the stateless analyzers. Build one per process with New
// and pass it explicitly; it is safe for concurrent use.
type Analyzer struct {
	Filter     SegmentFilter
	Pacing     PacingAnalyzer
	Pauses     PauseAnalyzer
	Confidence ConfidenceAnalyzer
	Vocabulary VocabularyAnalyzer
	Energy     EnergyCorrelator

	bandWidth    float64
	positionBins int
	lengthBins   int
}

// New builds an Analyzer from an analysis profile; nil means defaults
func New(p *config.Profile) *Analyzer {
	if p == nil {
		p = config.DefaultProfile()
	}
	filter := SegmentFilter{MinDuration: p.Pacing.NoiseThreshold}
	return &Analyzer{
		Filter: filter,
		Pacing: PacingAnalyzer{Filter: filter},
		Confidence: ConfidenceAnalyzer{
			HighThreshold: p.Confidence.HighThreshold,
			LowThreshold:  p.Confidence.LowThreshold,
			RatioDefault:  p.Confidence.RatioDefault,
			FilterDefault: p.Confidence.FilterDefault,
		},
		Energy: EnergyCorrelator{
			FrameLength:   p.Energy.FrameLength,
			HopLength:     p.Energy.HopLength,
			ReferenceRate: p.Energy.ReferenceRate,
		},
		bandWidth:    p.Pacing.BandWidth,
		positionBins: p.Vocabulary.PositionBins,
		lengthBins:   p.Vocabulary.LengthBins,
	}
}

// BuildReport analyzes one transcription against its decoded audio.
// Only malformed segments (end before start) are an error; an empty
// transcription yields zero metrics and empty series.
func (a *Analyzer) BuildReport(tr *transcript.Result, sig *audio.Signal) (*Report, error) {
	if tr == nil {
		return nil, fmt.Errorf("nil transcription")
	}
	if err := tr.Validate(); err != nil {
		return nil, err
	}
	segments := tr.Segments

	pacing := a.Pacing.Analyze(segments)
	pauses := a.Pauses.Analyze(segments)
	vocab := a.Vocabulary.Analyze(segments)

	confidence, err := a.Confidence.Analyze(segments)
	if err != nil {
		// Zero segments: report an all-zero ratio instead of failing
		confidence = ConfidenceMetrics{HighConfidenceRatio: 0, LowConfidenceWords: []string{}}
	}

	energies := a.Energy.SegmentEnergies(a.Energy.Envelope(sig), segments)

	return &Report{
		Transcript: tr.FullText,
		Stats: Stats{
			Speech: SpeechMetrics{
				MeanWPM:          Round(pacing.MeanWPM, 1),
				WPMVariability:   Round(pacing.WPMVariability, 1),
				SilenceRatio:     Round(pacing.SilenceRatio, 2),
				AvgPauseDuration: Round(pauses.Average, 2),
			},
			Confidence: confidence,
			Vocab: VocabMetrics{
				UniqueWords:      vocab.UniqueWordCount,
				LexicalDiversity: Round(vocab.LexicalDiversity, 2),
				AvgWordLength:    Round(vocab.AvgWordLength, 1),
			},
		},
		Charts: ChartData{
			WPM:              a.wpmChart(pacing),
			PauseConfidence:  a.pauseConfidenceChart(segments, pauses.Pauses),
			VocabHeatmap:     a.vocabHeatmap(vocab.Words),
			EnergyConfidence: a.energyConfidenceChart(segments, energies),
		},
	}, nil
}

func (a *Analyzer) wpmChart(p PacingResult) WPMChart {
	points := make([]Point, len(p.Points))
	for i, pp := range p.Points {
		points[i] = Point{X: pp.Time, Y: pp.WPM}
	}
	return WPMChart{
		Points:   points,
		Mean:     p.MeanWPM,
		BandLow:  p.MeanWPM - a.bandWidth,
		BandHigh: p.MeanWPM + a.bandWidth,
	}
}

// pauseConfidenceChart pairs each pause with the mean confidence of the two
// segments around it.
func (a *Analyzer) pauseConfidenceChart(segments []transcript.Segment, pauses []float64) ScatterChart {
	points := make([]Point, len(pauses))
	def := a.Confidence.RatioDefault
	for i, pause := range pauses {
		avg := (segments[i].ConfidenceOr(def) + segments[i+1].ConfidenceOr(def)) / 2
		points[i] = Point{X: pause, Y: avg}
	}
	return ScatterChart{Points: points}
}

// vocabHeatmap bins word length against word position
func (a *Analyzer) vocabHeatmap(words []string) Histogram2D {
	points := make([]Point, len(words))
	for i, w := range words {
		points[i] = Point{X: float64(i), Y: float64(len([]rune(w)))}
	}
	return NewHistogram2D(points, a.positionBins, a.lengthBins)
}

// energyConfidenceChart skips segments without a defined energy
func (a *Analyzer) energyConfidenceChart(segments []transcript.Segment, energies []*float64) ScatterChart {
	points := make([]Point, 0, len(segments))
	for i, seg := range segments {
		if energies[i] == nil {
			continue
		}
		points = append(points, Point{X: *energies[i], Y: seg.ConfidenceOr(a.Confidence.RatioDefault)})
	}
	return ScatterChart{Points: points}
}

// Round rounds half to even at the given number of decimals
func Round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.RoundToEven(v*scale) / scale
}
