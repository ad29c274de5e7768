package audio

import (
	"math"
)

// EnergyPoint is one short-window loudness measurement
type EnergyPoint struct {
	Time  float64 // seconds
	Value float64 // RMS amplitude
}

// CalculateRMS calculates the root mean square of samples
func CalculateRMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Envelope computes a centered, fixed-window RMS envelope. Frame t covers
// samples [t*hop - frameLength/2, t*hop + frameLength/2), with zeros outside
// the signal, giving 1 + len/hop frames. Timestamps are spread uniformly
// over [0, duration].
func Envelope(sig *Signal, frameLength, hopLength int) []EnergyPoint {
	if sig == nil || len(sig.Samples) == 0 || frameLength < 1 || hopLength < 1 {
		return nil
	}

	n := 1 + len(sig.Samples)/hopLength
	half := frameLength / 2
	duration := sig.Duration()

	out := make([]EnergyPoint, n)
	for t := 0; t < n; t++ {
		lo := t*hopLength - half
		hi := lo + frameLength

		sum := 0.0
		for i := max(lo, 0); i < min(hi, len(sig.Samples)); i++ {
			sum += sig.Samples[i] * sig.Samples[i]
		}

		ts := 0.0
		if n > 1 {
			ts = duration * float64(t) / float64(n-1)
		}
		out[t] = EnergyPoint{Time: ts, Value: math.Sqrt(sum / float64(frameLength))}
	}
	return out
}
