package autoarima

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/sartorproj/riceyield/timeseries"
)

func seasonalQuarterly(years int, seed int64) *timeseries.Series {
	rng := rand.New(rand.NewSource(seed))
	pattern := []float64{-0.4, 0.3, -0.5, 0.6}
	values := make([]float64, 4*years)
	for i := range values {
		values[i] = 3.5 + 0.015*float64(i) + pattern[i%4] + 0.1*rng.NormFloat64()
	}
	return timeseries.Quarterly(time.Date(1995, time.January, 1, 0, 0, 0, 0, time.UTC), values)
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.MaxP != 3 {
		t.Errorf("Expected MaxP=3, got %d", config.MaxP)
	}
	if config.MaxQ != 3 {
		t.Errorf("Expected MaxQ=3, got %d", config.MaxQ)
	}
	if config.M != 4 || !config.Seasonal {
		t.Errorf("Expected a quarterly seasonal search, got M=%d Seasonal=%v", config.M, config.Seasonal)
	}
	if config.Criterion != CriterionAICc {
		t.Errorf("Expected Criterion='aicc', got %s", config.Criterion)
	}
	if !config.Stepwise {
		t.Error("Expected Stepwise=true")
	}
	if config.D != -1 || config.SD != -1 {
		t.Errorf("Expected automatic differencing, got D=%d SD=%d", config.D, config.SD)
	}
}

func TestSearchSeasonal(t *testing.T) {
	series := seasonalQuarterly(20, 1)

	result, err := Search(series, DefaultConfig())
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if result.Order.SD != 1 {
		t.Errorf("Expected one seasonal difference for strongly seasonal data, got %d", result.Order.SD)
	}
	if result.Order.M != 4 {
		t.Errorf("Expected period 4, got %d", result.Order.M)
	}
	if result.ModelsEvaluated == 0 || len(result.Candidates) < result.ModelsEvaluated {
		t.Errorf("Inconsistent trace: %d evaluated, %d candidates", result.ModelsEvaluated, len(result.Candidates))
	}

	t.Logf("Selected SARIMA%s AICc=%.3f after %d models", result.Order, result.Criterion, result.ModelsEvaluated)
}

func TestSearchPicksTraceMinimum(t *testing.T) {
	series := seasonalQuarterly(18, 2)
	config := DefaultConfig()
	config.Criterion = CriterionBIC

	result, err := Search(series, config)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	best := math.Inf(1)
	for _, c := range result.Candidates {
		if c.Err == nil && c.BIC < best {
			best = c.BIC
		}
	}
	if result.Criterion != best {
		t.Errorf("Selected criterion %f is not the trace minimum %f", result.Criterion, best)
	}
	if result.Model.BIC != result.Criterion {
		t.Errorf("Model BIC %f does not match reported criterion %f", result.Model.BIC, result.Criterion)
	}
}

func TestSearchCommonConditioning(t *testing.T) {
	series := seasonalQuarterly(16, 3)
	config := DefaultConfig()
	config.Stepwise = false
	config.MaxP, config.MaxQ = 1, 1
	config.MaxSP, config.MaxSQ = 1, 1

	result, err := Search(series, config)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if result.Conditioning != 1+4 {
		t.Errorf("Expected conditioning 5, got %d", result.Conditioning)
	}
	// Grid over 2x2x2x2 orders.
	if len(result.Candidates) != 16 {
		t.Errorf("Expected 16 grid candidates, got %d", len(result.Candidates))
	}

	want := series.Len() - result.Order.D - 4*result.Order.SD - result.Conditioning
	if result.Model.NObs != want {
		t.Errorf("Expected %d observations in the criterion, got %d", want, result.Model.NObs)
	}
}

func TestSearchMaxOrder(t *testing.T) {
	series := seasonalQuarterly(16, 4)
	config := DefaultConfig()
	config.Stepwise = false
	config.MaxOrder = 1
	config.MaxP, config.MaxQ, config.MaxSP, config.MaxSQ = 1, 1, 1, 1

	result, err := Search(series, config)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for _, c := range result.Candidates {
		if c.Order.NumARMA() > 1 {
			t.Errorf("Candidate %s exceeds MaxOrder", c.Order)
		}
	}
}

func TestSearchNonSeasonal(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	values := make([]float64, 200)
	values[0] = 100
	for i := 1; i < len(values); i++ {
		values[i] = values[i-1] + rng.NormFloat64()
	}

	config := DefaultConfig()
	config.Seasonal = false

	result, err := Search(timeseries.New(values), config)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if result.Order.D != 1 {
		t.Errorf("Expected d=1 for a random walk, got %d", result.Order.D)
	}
	if result.Order.SP != 0 || result.Order.SQ != 0 || result.Order.SD != 0 {
		t.Errorf("Expected no seasonal terms, got %s", result.Order)
	}
}

func TestSearchFixedDifferencing(t *testing.T) {
	config := DefaultConfig()
	config.D, config.SD = 0, 1

	result, err := Search(seasonalQuarterly(15, 6), config)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if result.Order.D != 0 || result.Order.SD != 1 {
		t.Errorf("Fixed differencing ignored: %s", result.Order)
	}
}

func TestSearchNoModel(t *testing.T) {
	series := timeseries.New([]float64{1, 2, 3})
	config := DefaultConfig()
	config.D, config.SD = 0, 0

	_, err := Search(series, config)
	if !errors.Is(err, ErrNoModel) {
		t.Fatalf("Expected ErrNoModel, got %v", err)
	}
}

func TestSearchBadCriterion(t *testing.T) {
	config := DefaultConfig()
	config.Criterion = "hqic"
	if _, err := Search(seasonalQuarterly(10, 7), config); err == nil {
		t.Error("Expected an error for an unknown criterion")
	}
}

func TestResultForecast(t *testing.T) {
	result, err := Search(seasonalQuarterly(15, 8), DefaultConfig())
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	fc, err := result.Forecast(8, 0.95)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}
	if len(fc.Point) != 8 {
		t.Errorf("Expected 8 forecasts, got %d", len(fc.Point))
	}
	for i, v := range fc.Point {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("Forecast %d is not finite: %f", i, v)
		}
	}

	var empty *Result
	if _, err := empty.Forecast(1, 0.95); !errors.Is(err, ErrNoModel) {
		t.Errorf("Expected ErrNoModel from an empty result, got %v", err)
	}
}
