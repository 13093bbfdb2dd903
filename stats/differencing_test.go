package stats

import (
	"errors"
	"math"
	"testing"

	"github.com/sartorproj/riceyield/timeseries"
)

func randomWalk(n int, seed int64) []float64 {
	noise := whiteNoise(n, seed)
	values := make([]float64, n)
	for i := 1; i < n; i++ {
		values[i] = values[i-1] + noise[i]
	}
	return values
}

func seasonalQuarters(n int, noise float64, seed int64) []float64 {
	pattern := []float64{-3, 1, -1, 3}
	eps := whiteNoise(n, seed)
	values := make([]float64, n)
	for i := range values {
		values[i] = 40 + pattern[i%4] + noise*eps[i]
	}
	return values
}

func TestNDiffs(t *testing.T) {
	if d := NDiffs(timeseries.New(whiteNoise(200, 1)), 2, StationTestADF); d != 0 {
		t.Errorf("white noise: expected d=0, got %d", d)
	}
	if d := NDiffs(timeseries.New(randomWalk(200, 2)), 2, StationTestADF); d != 1 {
		t.Errorf("random walk: expected d=1, got %d", d)
	}
	if d := NDiffs(timeseries.New(randomWalk(200, 3)), 2, StationTestKPSS); d < 1 {
		t.Errorf("random walk under KPSS: expected d>=1, got %d", d)
	}
}

func TestNDiffsShortSeries(t *testing.T) {
	// Too short to test after one difference.
	s := timeseries.New([]float64{1, 2, 4, 7, 11, 16, 22, 29, 37, 46})
	if d := NDiffs(s, 2, StationTestADF); d > 2 {
		t.Errorf("d must not exceed maxD, got %d", d)
	}
}

func TestNSDiffs(t *testing.T) {
	seasonal := timeseries.New(seasonalQuarters(48, 0.2, 4))
	if D := NSDiffs(seasonal, 4, 1); D != 1 {
		t.Errorf("strong quarterly pattern: expected D=1, got %d", D)
	}

	noise := timeseries.New(whiteNoise(80, 5))
	if D := NSDiffs(noise, 4, 1); D != 0 {
		t.Errorf("white noise: expected D=0, got %d", D)
	}

	if D := NSDiffs(timeseries.New([]float64{1, 2, 3, 4, 5}), 4, 1); D != 0 {
		t.Errorf("fewer than two seasons: expected D=0, got %d", D)
	}
}

func TestSeasonalStrength(t *testing.T) {
	strong := SeasonalStrength(timeseries.New(seasonalQuarters(48, 0.2, 6)), 4)
	weak := SeasonalStrength(timeseries.New(whiteNoise(48, 7)), 4)

	if strong < 0.9 {
		t.Errorf("expected strength near 1, got %f", strong)
	}
	if weak >= strong {
		t.Errorf("noise strength %f should be below seasonal strength %f", weak, strong)
	}
}

func TestDecomposeAdditive(t *testing.T) {
	pattern := []float64{-2, 1, -1, 2}
	values := make([]float64, 24)
	for i := range values {
		values[i] = 10 + 0.5*float64(i) + pattern[i%4]
	}

	d, err := Decompose(timeseries.New(values), 4, DecompositionAdditive)
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if !math.IsNaN(d.Trend.Values[i]) || !math.IsNaN(d.Trend.Values[len(values)-1-i]) {
			t.Errorf("expected NaN trend at edge %d", i)
		}
	}
	for i := 2; i < len(values)-2; i++ {
		if math.Abs(d.Trend.Values[i]-(10+0.5*float64(i))) > 1e-9 {
			t.Errorf("trend[%d] = %f", i, d.Trend.Values[i])
		}
		if math.Abs(d.Residual.Values[i]) > 1e-9 {
			t.Errorf("residual[%d] = %f, expected 0", i, d.Residual.Values[i])
		}
	}
	for i, want := range pattern {
		if math.Abs(d.Seasonal.Values[i]-want) > 1e-9 {
			t.Errorf("seasonal[%d] = %f, expected %f", i, d.Seasonal.Values[i], want)
		}
	}
}

func TestDecomposeInsufficientData(t *testing.T) {
	_, err := Decompose(timeseries.New([]float64{1, 2, 3, 4, 5, 6, 7}), 4, DecompositionAdditive)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}
