package plots

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/riceyield/sarima"
	"github.com/sartorproj/riceyield/stats"
	"github.com/sartorproj/riceyield/timeseries"
)

func sampleSeries() *timeseries.Series {
	rng := rand.New(rand.NewSource(3))
	pattern := []float64{-0.3, 0.2, -0.4, 0.5}
	values := make([]float64, 48)
	for i := range values {
		values[i] = 3.8 + 0.01*float64(i) + pattern[i%4] + 0.05*rng.NormFloat64()
	}
	s := timeseries.Quarterly(time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC), values)
	s.Name = "Yield (t/ha)"
	return s
}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestSeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.png")
	require.NoError(t, Series(path, sampleSeries(), "Quarterly rice yield"))
	assertPNG(t, path)
}

func TestSeriesWithoutTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.png")
	require.NoError(t, Series(path, timeseries.New([]float64{1, 2, 3, 2}), "index axis"))
	assertPNG(t, path)
}

func TestSeriesEmpty(t *testing.T) {
	err := Series(filepath.Join(t.TempDir(), "empty.png"), timeseries.New(nil), "empty")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestDecomposition(t *testing.T) {
	d, err := stats.Decompose(sampleSeries(), 4, stats.DecompositionAdditive)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "decomposition.png")
	require.NoError(t, Decomposition(path, d))
	assertPNG(t, path)
}

func TestCorrelogram(t *testing.T) {
	s := sampleSeries()
	path := filepath.Join(t.TempDir(), "acf.png")
	require.NoError(t, Correlogram(path, stats.ACFWithConfidence(s, 12), "ACF"))
	assertPNG(t, path)

	assert.ErrorIs(t, Correlogram(path, nil, "none"), ErrNoData)
}

func TestResidualsAndHistogram(t *testing.T) {
	model := sarima.New(0, 0, 1, 0, 1, 1, 4)
	require.NoError(t, model.Fit(sampleSeries()))

	dir := t.TempDir()
	require.NoError(t, Residuals(filepath.Join(dir, "residuals.png"), model.ResidualSeries()))
	assertPNG(t, filepath.Join(dir, "residuals.png"))

	resid := append(model.Residuals(), math.NaN())
	require.NoError(t, Histogram(filepath.Join(dir, "hist.png"), resid))
	assertPNG(t, filepath.Join(dir, "hist.png"))

	assert.ErrorIs(t, Histogram(filepath.Join(dir, "none.png"), []float64{math.NaN()}), ErrNoData)
}

func TestForecast(t *testing.T) {
	s := sampleSeries()
	model := sarima.New(1, 0, 0, 0, 1, 1, 4)
	require.NoError(t, model.Fit(s))
	fc, err := model.Forecast(8, 0.95)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "forecast.png")
	require.NoError(t, Forecast(path, s, model.FittedValues(), fc))
	assertPNG(t, path)

	assert.ErrorIs(t, Forecast(path, s, nil, nil), ErrNoData)
}
