// Package plots renders yield series, diagnostics and forecasts as PNG files.
package plots

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/sartorproj/riceyield/sarima"
	"github.com/sartorproj/riceyield/stats"
	"github.com/sartorproj/riceyield/timeseries"
)

// ErrNoData is returned when there is nothing finite to draw.
var ErrNoData = errors.New("no plottable values")

const (
	width  = 9 * vg.Inch
	height = 4.5 * vg.Inch
)

var (
	observedColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	fittedColor   = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	forecastColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	bandColor     = color.RGBA{R: 214, G: 39, B: 40, A: 60}
	guideColor    = color.RGBA{R: 120, G: 120, B: 120, A: 255}
)

var dashed = []vg.Length{vg.Points(4), vg.Points(3)}

// xValue places a point on the x axis: Unix seconds when timestamps exist,
// otherwise the observation index.
func xValue(ts []time.Time, i int) float64 {
	if ts != nil {
		return float64(ts[i].Unix())
	}
	return float64(i)
}

// points pairs x positions with values, dropping non-finite values.
func points(ts []time.Time, values []float64) plotter.XYs {
	xys := make(plotter.XYs, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: xValue(ts, i), Y: v})
	}
	return xys
}

func newPlot(title, xLabel, yLabel string, timeAxis bool) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	if timeAxis {
		p.X.Tick.Marker = plot.TimeTicks{Format: "2006"}
	}
	p.Add(plotter.NewGrid())
	return p
}

func line(xys plotter.XYs, c color.Color) (*plotter.Line, error) {
	if len(xys) == 0 {
		return nil, ErrNoData
	}
	l, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	l.LineStyle.Color = c
	l.LineStyle.Width = vg.Points(1.5)
	return l, nil
}

func save(p *plot.Plot, path string) error {
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Series draws the observed series over time.
func Series(path string, s *timeseries.Series, title string) error {
	p := newPlot(title, "Year", s.Name, s.HasTimestamps())

	l, err := line(points(s.Timestamps, s.Values), observedColor)
	if err != nil {
		return fmt.Errorf("series plot: %w", err)
	}
	sc, err := plotter.NewScatter(points(s.Timestamps, s.Values))
	if err != nil {
		return fmt.Errorf("series plot: %w", err)
	}
	sc.GlyphStyle.Color = observedColor
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Radius = vg.Points(2)

	p.Add(l, sc)
	return save(p, path)
}

// Decomposition stacks the observed, trend, seasonal and residual components.
func Decomposition(path string, d *stats.DecompositionResult) error {
	components := []struct {
		name   string
		series *timeseries.Series
	}{
		{"Observed", d.Original},
		{"Trend", d.Trend},
		{"Seasonal", d.Seasonal},
		{"Residual", d.Residual},
	}

	rows := make([][]*plot.Plot, len(components))
	for i, c := range components {
		title := ""
		if i == 0 {
			title = fmt.Sprintf("Classical %s decomposition (period %d)", d.Type, d.Period)
		}
		p := newPlot(title, "", c.name, c.series.HasTimestamps())
		l, err := line(points(c.series.Timestamps, c.series.Values), observedColor)
		if err != nil {
			return fmt.Errorf("decomposition plot %s: %w", c.name, err)
		}
		p.Add(l)
		rows[i] = []*plot.Plot{p}
	}

	img := vgimg.New(width, 2*height)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: len(rows), Cols: 1, PadY: vg.Points(4)}
	canvases := plot.Align(rows, tiles, dc)
	for i := range rows {
		rows[i][0].Draw(canvases[i][0])
	}

	return writePNG(img, path)
}

func writePNG(img *vgimg.Canvas, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Correlogram draws ACF or PACF bars from lag 1 with the white-noise bounds.
func Correlogram(path string, c *stats.CorrelogramResult, title string) error {
	if c == nil || len(c.Values) < 2 {
		return fmt.Errorf("correlogram: %w", ErrNoData)
	}
	values := plotter.Values(c.Values[1:])
	maxLag := float64(len(values))

	p := newPlot(title, "Lag", "Correlation", false)
	bars, err := plotter.NewBarChart(values, vg.Points(6))
	if err != nil {
		return fmt.Errorf("correlogram: %w", err)
	}
	bars.XMin = 1
	bars.Color = observedColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)

	for _, b := range []float64{c.ConfBounds, -c.ConfBounds} {
		bound, err := line(plotter.XYs{{X: 0.5, Y: b}, {X: maxLag + 0.5, Y: b}}, forecastColor)
		if err != nil {
			return fmt.Errorf("correlogram: %w", err)
		}
		bound.LineStyle.Dashes = dashed
		p.Add(bound)
	}
	p.Y.Min, p.Y.Max = -1, 1
	return save(p, path)
}

// Residuals draws model residuals over time around a zero line.
func Residuals(path string, resid *timeseries.Series) error {
	xys := points(resid.Timestamps, resid.Values)
	p := newPlot("Residuals", "Year", "Residual", resid.HasTimestamps())

	l, err := line(xys, observedColor)
	if err != nil {
		return fmt.Errorf("residual plot: %w", err)
	}
	zero, err := line(plotter.XYs{{X: xys[0].X, Y: 0}, {X: xys[len(xys)-1].X, Y: 0}}, guideColor)
	if err != nil {
		return fmt.Errorf("residual plot: %w", err)
	}
	zero.LineStyle.Dashes = dashed

	p.Add(zero, l)
	return save(p, path)
}

// Histogram draws a density histogram of the residuals with the normal
// density of matching mean and standard deviation.
func Histogram(path string, residuals []float64) error {
	var finite plotter.Values
	for _, r := range residuals {
		if !math.IsNaN(r) && !math.IsInf(r, 0) {
			finite = append(finite, r)
		}
	}
	if len(finite) < 2 {
		return fmt.Errorf("histogram: %w", ErrNoData)
	}

	p := newPlot("Residual distribution", "Residual", "Density", false)
	bins := int(math.Ceil(math.Log2(float64(len(finite))) + 1))
	h, err := plotter.NewHist(finite, bins)
	if err != nil {
		return fmt.Errorf("histogram: %w", err)
	}
	h.Normalize(1)
	h.FillColor = observedColor
	p.Add(h)

	mean, sd := stat.MeanStdDev(finite, nil)
	if sd > 0 {
		normal := distuv.Normal{Mu: mean, Sigma: sd}
		density := plotter.NewFunction(normal.Prob)
		density.Color = forecastColor
		density.Width = vg.Points(1.5)
		p.Add(density)
		p.Legend.Add("normal", density)
	}
	return save(p, path)
}

// Forecast draws the history, the in-sample fit, the point forecasts and the
// prediction band.
func Forecast(path string, history *timeseries.Series, fitted []float64, fc *sarima.Forecast) error {
	if fc == nil || len(fc.Point) == 0 {
		return fmt.Errorf("forecast plot: %w", ErrNoData)
	}
	timeAxis := history.HasTimestamps() && fc.Timestamps != nil

	var fcTimes []time.Time
	if timeAxis {
		fcTimes = fc.Timestamps
	}
	offset := history.Len()
	fcX := func(i int) float64 {
		if timeAxis {
			return xValue(fcTimes, i)
		}
		return float64(offset + i)
	}

	title := fmt.Sprintf("Forecast with %.0f%% prediction interval", 100*fc.Level)
	p := newPlot(title, "Year", history.Name, timeAxis)

	band := make(plotter.XYs, 0, 2*len(fc.Point))
	for i := range fc.Lower {
		band = append(band, plotter.XY{X: fcX(i), Y: fc.Lower[i]})
	}
	for i := len(fc.Upper) - 1; i >= 0; i-- {
		band = append(band, plotter.XY{X: fcX(i), Y: fc.Upper[i]})
	}
	poly, err := plotter.NewPolygon(band)
	if err != nil {
		return fmt.Errorf("forecast plot: %w", err)
	}
	poly.Color = bandColor
	poly.LineStyle.Width = vg.Length(0)
	p.Add(poly)

	var ts []time.Time
	if timeAxis {
		ts = history.Timestamps
	}
	hist, err := line(points(ts, history.Values), observedColor)
	if err != nil {
		return fmt.Errorf("forecast plot: %w", err)
	}
	p.Add(hist)
	p.Legend.Add("observed", hist)

	if fitXYs := points(ts, fitted); len(fitXYs) > 0 {
		fit, err := line(fitXYs, fittedColor)
		if err != nil {
			return fmt.Errorf("forecast plot: %w", err)
		}
		fit.LineStyle.Dashes = dashed
		p.Add(fit)
		p.Legend.Add("fitted", fit)
	}

	// Join the forecast to the last observation.
	last := len(history.Values) - 1
	fcXYs := plotter.XYs{{X: xValue(ts, last), Y: history.Values[last]}}
	if !timeAxis {
		fcXYs[0].X = float64(last)
	}
	for i, v := range fc.Point {
		fcXYs = append(fcXYs, plotter.XY{X: fcX(i), Y: v})
	}
	fline, err := line(fcXYs, forecastColor)
	if err != nil {
		return fmt.Errorf("forecast plot: %w", err)
	}
	p.Add(fline)
	p.Legend.Add("forecast", fline, poly)
	p.Legend.Top = true
	p.Legend.Left = true

	return save(p, path)
}
