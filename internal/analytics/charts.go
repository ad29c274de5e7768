package analytics

import (
	"math"
	"slices"
)

// Point is one (x, y) sample of a chart series
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WPMChart is the speaking rate over time with a band around the mean
type WPMChart struct {
	Points   []Point `json:"points"`
	Mean     float64 `json:"mean"`
	BandLow  float64 `json:"band_low"`
	BandHigh float64 `json:"band_high"`
}

// ScatterChart is an unordered point cloud
type ScatterChart struct {
	Points []Point `json:"points"`
}

// Histogram2D is a binned (x, y) distribution. Counts is indexed [x][y];
// XEdges and YEdges hold len(bins)+1 boundaries each.
type Histogram2D struct {
	XEdges []float64 `json:"x_edges"`
	YEdges []float64 `json:"y_edges"`
	Counts [][]int   `json:"counts"`
	Points []Point   `json:"points"`
}

// ChartData holds the four per-recording datasets
type ChartData struct {
	WPM              WPMChart     `json:"wpm"`
	PauseConfidence  ScatterChart `json:"pause_confidence"`
	VocabHeatmap     Histogram2D  `json:"vocab_heatmap"`
	EnergyConfidence ScatterChart `json:"energy_confidence"`
}

// NewHistogram2D bins points into xBins by yBins equal-width cells spanning
// each axis' [min, max]. A constant axis is widened to [v-0.5, v+0.5]. The
// last bin on each axis includes its right edge.
func NewHistogram2D(points []Point, xBins, yBins int) Histogram2D {
	h := Histogram2D{Points: points}
	if len(points) == 0 || xBins < 1 || yBins < 1 {
		h.Points = []Point{}
		h.Counts = [][]int{}
		return h
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p.X, p.Y
	}
	h.XEdges = binEdges(slices.Min(xs), slices.Max(xs), xBins)
	h.YEdges = binEdges(slices.Min(ys), slices.Max(ys), yBins)

	h.Counts = make([][]int, xBins)
	for i := range h.Counts {
		h.Counts[i] = make([]int, yBins)
	}
	for _, p := range points {
		h.Counts[binIndex(p.X, h.XEdges)][binIndex(p.Y, h.YEdges)]++
	}
	return h
}

func binEdges(lo, hi float64, bins int) []float64 {
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	edges := make([]float64, bins+1)
	step := (hi - lo) / float64(bins)
	for i := range edges {
		edges[i] = lo + step*float64(i)
	}
	edges[bins] = hi
	return edges
}

func binIndex(v float64, edges []float64) int {
	bins := len(edges) - 1
	lo, hi := edges[0], edges[bins]
	idx := int(math.Floor((v - lo) / (hi - lo) * float64(bins)))
	return min(max(idx, 0), bins-1)
}
