package analytics

import (
	"math"
	"sort"

	"github.com/lexiqai/speech-insights/internal/audio"
	"github.com/lexiqai/speech-insights/internal/transcript"
)

// ReferenceSampleRate is the rate FrameLength and HopLength are counted at
// when a correlator has no ReferenceRate of its own.
const ReferenceSampleRate = 22050

// EnergyCorrelator aligns an RMS envelope with segment time spans.
// FrameLength and HopLength are sample counts at ReferenceRate; signals at
// other rates get proportionally scaled windows so the window stays fixed
// in seconds.
type EnergyCorrelator struct {
	FrameLength   int
	HopLength     int
	ReferenceRate int
}

// Envelope computes the RMS envelope of sig
func (e EnergyCorrelator) Envelope(sig *audio.Signal) []audio.EnergyPoint {
	if sig == nil {
		return nil
	}
	return audio.Envelope(sig, e.scale(e.FrameLength, sig.SampleRate), e.scale(e.HopLength, sig.SampleRate))
}

func (e EnergyCorrelator) scale(n, rate int) int {
	ref := e.ReferenceRate
	if ref <= 0 {
		ref = ReferenceSampleRate
	}
	if n < 1 || rate <= 0 || rate == ref {
		return n
	}
	scaled := int(math.Round(float64(n) * float64(rate) / float64(ref)))
	if scaled < 1 {
		return 1
	}
	return scaled
}

// SegmentEnergies returns, per segment, the mean envelope value over
// start <= t <= end. A segment with no envelope sample in range gets nil.
// The envelope must be sorted by time.
func (e EnergyCorrelator) SegmentEnergies(envelope []audio.EnergyPoint, segments []transcript.Segment) []*float64 {
	out := make([]*float64, len(segments))
	for i, seg := range segments {
		first := sort.Search(len(envelope), func(j int) bool { return envelope[j].Time >= seg.Start })
		sum, n := 0.0, 0
		for _, p := range envelope[first:] {
			if p.Time > seg.End {
				break
			}
			sum += p.Value
			n++
		}
		if n > 0 {
			mean := sum / float64(n)
			out[i] = &mean
		}
	}
	return out
}
