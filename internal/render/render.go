// Package render draws chart datasets as PNG images, returned base64 encoded
// for embedding in JSON payloads.
package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/lexiqai/speech-insights/internal/analytics"
	"github.com/lexiqai/speech-insights/internal/comparison"
)

// Plot keys of a recording report
const (
	KeyWPM              = "wpm_plot"
	KeyPauseConfidence  = "pause_confidence_plot"
	KeyVocabHeatmap     = "vocab_heatmap"
	KeyEnergyConfidence = "energy_confidence_plot"

	KeyMetricsComparison = "metrics_comparison"
	KeyVocabConfidence   = "vocab_conf_comparison"
)

// Renderer turns chart data into encoded images
type Renderer interface {
	// Report renders the four per-recording charts keyed by plot name
	Report(charts analytics.ChartData) (map[string]string, error)

	// Comparison renders the two cross-recording charts keyed by plot name
	Comparison(res *comparison.Result) (map[string]string, error)
}

var (
	lineBlue = color.RGBA{R: 0x4e, G: 0x79, B: 0xa7, A: 0xff}
	lineRed  = color.RGBA{R: 0xe1, G: 0x57, B: 0x59, A: 0xff}
	bandFill = color.RGBA{R: 0x4e, G: 0x79, B: 0xa7, A: 0x1a}
	dotFill  = color.RGBA{R: 0x4e, G: 0x79, B: 0xa7, A: 0x99}
)

// PNG renders charts with gonum/plot. Sizes are in inches at DPI.
type PNG struct {
	DPI int
}

// NewPNG returns a renderer at 100 DPI
func NewPNG() *PNG {
	return &PNG{DPI: 100}
}

// Report implements Renderer
func (r *PNG) Report(charts analytics.ChartData) (map[string]string, error) {
	steps := []struct {
		key  string
		draw func() (*plot.Plot, vg.Length, vg.Length, error)
	}{
		{KeyWPM, func() (*plot.Plot, vg.Length, vg.Length, error) {
			p, err := WPMPlot(charts.WPM)
			return p, 12 * vg.Inch, 5 * vg.Inch, err
		}},
		{KeyPauseConfidence, func() (*plot.Plot, vg.Length, vg.Length, error) {
			p, err := ScatterPlot(charts.PauseConfidence, "Pause Duration vs Confidence", "Pause Duration (s)", "Average Confidence")
			return p, 10 * vg.Inch, 5 * vg.Inch, err
		}},
		{KeyVocabHeatmap, func() (*plot.Plot, vg.Length, vg.Length, error) {
			p, err := HeatmapPlot(charts.VocabHeatmap)
			return p, 10 * vg.Inch, 4 * vg.Inch, err
		}},
		{KeyEnergyConfidence, func() (*plot.Plot, vg.Length, vg.Length, error) {
			p, err := ScatterPlot(charts.EnergyConfidence, "Audio Energy vs Transcription Confidence", "Average Segment Energy", "Confidence Score")
			return p, 10 * vg.Inch, 5 * vg.Inch, err
		}},
	}

	out := make(map[string]string, len(steps))
	for _, s := range steps {
		p, w, h, err := s.draw()
		if err != nil {
			return nil, fmt.Errorf("failed to build %s: %w", s.key, err)
		}
		img, err := r.encode(p.Draw, w, h)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", s.key, err)
		}
		out[s.key] = img
	}
	return out, nil
}

// Comparison implements Renderer
func (r *PNG) Comparison(res *comparison.Result) (map[string]string, error) {
	panels, err := MetricPanels(res.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s: %w", KeyMetricsComparison, err)
	}
	metrics, err := r.encode(tiled(panels), 12*vg.Inch, 6*vg.Inch)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", KeyMetricsComparison, err)
	}

	scatter, err := LabeledScatterPlot(res.VocabConfidence)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s: %w", KeyVocabConfidence, err)
	}
	vocab, err := r.encode(scatter.Draw, 10*vg.Inch, 5*vg.Inch)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", KeyVocabConfidence, err)
	}

	return map[string]string{
		KeyMetricsComparison: metrics,
		KeyVocabConfidence:   vocab,
	}, nil
}

// encode draws onto a w x h canvas at r.DPI and returns the base64 PNG
func (r *PNG) encode(drawFn func(draw.Canvas), w, h vg.Length) (string, error) {
	dpi := r.DPI
	if dpi <= 0 {
		dpi = 100
	}
	c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(dpi))
	drawFn(draw.New(c))

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(&buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// tiled lays plots out side by side in one row
func tiled(plots []*plot.Plot) func(draw.Canvas) {
	return func(dc draw.Canvas) {
		if len(plots) == 0 {
			return
		}
		tiles := draw.Tiles{
			Rows:      1,
			Cols:      len(plots),
			PadX:      vg.Millimeter * 6,
			PadTop:    vg.Millimeter * 2,
			PadBottom: vg.Millimeter * 2,
			PadLeft:   vg.Millimeter * 2,
			PadRight:  vg.Millimeter * 2,
		}
		canvases := plot.Align([][]*plot.Plot{plots}, tiles, dc)
		for j, p := range plots {
			p.Draw(canvases[0][j])
		}
	}
}

// WPMPlot draws speaking rate over time with the mean line and its band
func WPMPlot(c analytics.WPMChart) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Speaking Rate Variability (WPM)\nwith Average Reference Line"
	p.X.Label.Text = "Time (seconds)"
	p.Y.Label.Text = "Words Per Minute"
	p.Add(plotter.NewGrid())

	if len(c.Points) == 0 {
		return p, nil
	}

	xys := toXYs(c.Points)
	lo, hi := xys[0].X, xys[len(xys)-1].X
	for _, pt := range xys {
		lo, hi = min(lo, pt.X), max(hi, pt.X)
	}

	band, err := plotter.NewPolygon(plotter.XYs{
		{X: lo, Y: c.BandLow}, {X: hi, Y: c.BandLow},
		{X: hi, Y: c.BandHigh}, {X: lo, Y: c.BandHigh},
	})
	if err != nil {
		return nil, err
	}
	band.Color = bandFill
	band.LineStyle.Width = 0

	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	line.Color = lineBlue
	line.Width = vg.Points(2)

	mean, err := plotter.NewLine(plotter.XYs{{X: lo, Y: c.Mean}, {X: hi, Y: c.Mean}})
	if err != nil {
		return nil, err
	}
	mean.Color = lineRed
	mean.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}

	p.Add(band, line, mean)
	return p, nil
}

// ScatterPlot draws a plain point cloud
func ScatterPlot(c analytics.ScatterChart, title, xLabel, yLabel string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())

	if len(c.Points) == 0 {
		return p, nil
	}
	s, err := plotter.NewScatter(toXYs(c.Points))
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Color = dotFill
	s.GlyphStyle.Radius = vg.Points(3)
	p.Add(s)
	return p, nil
}

// HeatmapPlot draws a binned word-length distribution
func HeatmapPlot(h analytics.Histogram2D) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Word Length Distribution Over Time"
	p.X.Label.Text = "Word Position in Transcript"
	p.Y.Label.Text = "Word Length"

	if len(h.Counts) == 0 {
		return p, nil
	}
	hm := plotter.NewHeatMap(histGrid{h}, palette.Heat(10, 1))
	if hm.Min == hm.Max {
		hm.Max = hm.Min + 1
	}
	p.Add(hm)
	return p, nil
}

// MetricPanels draws one bar chart per metric, one bar per recording, so
// each metric keeps its own y scale
func MetricPanels(g comparison.GroupedBars) ([]*plot.Plot, error) {
	labels := make([]string, len(g.Groups))
	for i, group := range g.Groups {
		labels[i] = group.Label
	}

	panels := make([]*plot.Plot, 0, len(g.Metrics))
	for m, metric := range g.Metrics {
		p := plot.New()
		p.Title.Text = titleCase(metric)
		p.Y.Label.Text = "Value"
		p.NominalX(labels...)

		values := make(plotter.Values, len(g.Groups))
		for i, group := range g.Groups {
			if m < len(group.Values) {
				values[i] = group.Values[m]
			}
		}
		if len(values) > 0 {
			bars, err := plotter.NewBarChart(values, vg.Points(30))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", metric, err)
			}
			bars.Color = plotutil.Color(m)
			bars.LineStyle.Width = 0
			p.Add(bars)
		}
		panels = append(panels, p)
	}
	return panels, nil
}

// LabeledScatterPlot draws recordings as annotated points
func LabeledScatterPlot(s comparison.LabeledScatter) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Lexical Diversity vs Confidence"
	p.X.Label.Text = "Lexical Diversity"
	p.Y.Label.Text = "High Confidence Ratio"
	p.Add(plotter.NewGrid())

	if len(s.Points) == 0 {
		return p, nil
	}

	xyl := plotter.XYLabels{
		XYs:    make(plotter.XYs, len(s.Points)),
		Labels: make([]string, len(s.Points)),
	}
	for i, pt := range s.Points {
		xyl.XYs[i] = plotter.XY{X: pt.X, Y: pt.Y}
		xyl.Labels[i] = pt.Label
	}

	sc, err := plotter.NewScatter(xyl.XYs)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyle.Color = lineBlue
	sc.GlyphStyle.Radius = vg.Points(4)

	labels, err := plotter.NewLabels(xyl)
	if err != nil {
		return nil, err
	}
	p.Add(sc, labels)
	return p, nil
}

func toXYs(points []analytics.Point) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}
	return xys
}

// titleCase turns "mean_wpm" into "Mean Wpm"
func titleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// histGrid adapts a Histogram2D to plotter.GridXYZ, placing each cell at
// its bin center
type histGrid struct {
	h analytics.Histogram2D
}

func (g histGrid) Dims() (c, r int) {
	return len(g.h.Counts), len(g.h.Counts[0])
}

func (g histGrid) Z(c, r int) float64 {
	return float64(g.h.Counts[c][r])
}

func (g histGrid) X(c int) float64 {
	return (g.h.XEdges[c] + g.h.XEdges[c+1]) / 2
}

func (g histGrid) Y(r int) float64 {
	return (g.h.YEdges[r] + g.h.YEdges[r+1]) / 2
}
