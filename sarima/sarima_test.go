package sarima

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/sartorproj/riceyield/timeseries"
)

var start2000 = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

func noise(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	for i := range values {
		values[i] = rng.NormFloat64()
	}
	return values
}

// quarterlyYield mimics two-season rice yields: a dry-season peak in Q2 and
// a wet-season peak in Q4 on top of a slow upward trend.
func quarterlyYield(years int, seed int64) *timeseries.Series {
	pattern := []float64{-0.35, 0.25, -0.4, 0.5}
	e := noise(4*years, seed)
	values := make([]float64, 4*years)
	for i := range values {
		values[i] = 3.6 + 0.01*float64(i) + pattern[i%4] + 0.08*e[i]
	}
	return timeseries.Quarterly(start2000, values)
}

func TestNewSARIMA(t *testing.T) {
	model := New(1, 1, 1, 1, 1, 1, 4)

	want := Order{P: 1, D: 1, Q: 1, SP: 1, SD: 1, SQ: 1, M: 4}
	if model.Order != want {
		t.Errorf("Expected order %v, got %v", want, model.Order)
	}
	if model.Order.String() != "(1,1,1)(1,1,1)[4]" {
		t.Errorf("Unexpected order string %s", model.Order.String())
	}
	if model.Order.NumARMA() != 4 {
		t.Errorf("Expected 4 ARMA terms, got %d", model.Order.NumARMA())
	}
}

func TestOrderValidate(t *testing.T) {
	tests := []struct {
		name    string
		order   Order
		wantErr bool
	}{
		{"non-seasonal", Order{P: 1, D: 1}, false},
		{"seasonal quarterly", Order{SP: 1, SD: 1, M: 4}, false},
		{"negative", Order{P: -1}, true},
		{"seasonal without period", Order{SQ: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.order.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidOrder) {
				t.Errorf("Expected ErrInvalidOrder, got %v", err)
			}
		})
	}
}

func TestFitRecoversAR(t *testing.T) {
	n := 300
	e := noise(n, 11)
	values := make([]float64, n)
	values[0] = 10
	for i := 1; i < n; i++ {
		values[i] = 10 + 0.6*(values[i-1]-10) + e[i]
	}

	model := New(1, 0, 0, 0, 0, 0, 4)
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit AR(1): %v", err)
	}

	if math.Abs(model.ARCoeffs[0]-0.6) > 0.12 {
		t.Errorf("Expected AR coefficient near 0.6, got %f", model.ARCoeffs[0])
	}
	if math.Abs(model.Mean-10) > 0.5 {
		t.Errorf("Expected mean near 10, got %f", model.Mean)
	}
	if math.Abs(model.Variance-1) > 0.3 {
		t.Errorf("Expected innovation variance near 1, got %f", model.Variance)
	}
	se := model.StdErrors.AR[0]
	if math.IsNaN(se) || se <= 0 || se > 0.2 {
		t.Errorf("Expected a small positive standard error, got %f", se)
	}
}

func TestFitRecoversMA(t *testing.T) {
	n := 400
	e := noise(n, 12)
	values := make([]float64, n)
	for i := 1; i < n; i++ {
		values[i] = e[i] + 0.5*e[i-1]
	}

	model := New(0, 0, 1, 0, 0, 0, 0)
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit MA(1): %v", err)
	}

	if math.Abs(model.MACoeffs[0]-0.5) > 0.15 {
		t.Errorf("Expected MA coefficient near 0.5, got %f", model.MACoeffs[0])
	}
	if math.Abs(model.MACoeffs[0]) >= 1 {
		t.Errorf("MA coefficient must be invertible, got %f", model.MACoeffs[0])
	}
}

func TestFitSeasonal(t *testing.T) {
	series := quarterlyYield(15, 13)
	model := New(0, 0, 1, 0, 1, 1, 4)

	if err := model.Fit(series); err != nil {
		t.Fatalf("Failed to fit SARIMA(0,0,1)(0,1,1)[4]: %v", err)
	}

	if model.Mean != 0 {
		t.Errorf("Differenced model should not estimate a mean, got %f", model.Mean)
	}
	if model.NObs != series.Len()-4 {
		t.Errorf("Expected %d observations in CSS, got %d", series.Len()-4, model.NObs)
	}
	if math.IsNaN(model.AICc) || math.IsInf(model.AICc, 0) {
		t.Errorf("AICc should be finite, got %f", model.AICc)
	}
	if model.AICc <= model.AIC {
		t.Errorf("AICc (%f) should exceed AIC (%f)", model.AICc, model.AIC)
	}
}

func TestFitInsufficientData(t *testing.T) {
	series := timeseries.New([]float64{1, 2, 3, 4, 5, 6})
	model := New(2, 1, 1, 1, 1, 1, 4)

	err := model.Fit(series)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

func TestPredictBeforeFit(t *testing.T) {
	model := New(1, 0, 0, 0, 0, 0, 0)
	if _, err := model.Predict(4); !errors.Is(err, ErrNotFitted) {
		t.Errorf("Expected ErrNotFitted, got %v", err)
	}
	if model.Summary() != nil {
		t.Error("Summary of an unfitted model should be nil")
	}
}

func TestRandomWalkForecast(t *testing.T) {
	e := noise(100, 14)
	values := make([]float64, len(e))
	for i := 1; i < len(values); i++ {
		values[i] = values[i-1] + e[i]
	}

	model := New(0, 1, 0, 0, 0, 0, 0)
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit random walk: %v", err)
	}

	fc, err := model.Forecast(5, 0.95)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}

	last := values[len(values)-1]
	sigma := math.Sqrt(model.Variance)
	for h, p := range fc.Point {
		if math.Abs(p-last) > 1e-9 {
			t.Errorf("Random walk forecast %d should equal the last value %f, got %f", h, last, p)
		}
		want := sigma * math.Sqrt(float64(h+1))
		if math.Abs(fc.StdErr[h]-want) > 1e-9 {
			t.Errorf("StdErr %d: expected %f, got %f", h, want, fc.StdErr[h])
		}
	}
}

func TestSeasonalForecast(t *testing.T) {
	series := quarterlyYield(14, 15)
	model := New(0, 0, 0, 0, 1, 1, 4)

	if err := model.Fit(series); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	fc, err := model.Forecast(8, 0.9)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}

	if len(fc.Point) != 8 || len(fc.Timestamps) != 8 {
		t.Fatalf("Expected 8 forecasts with timestamps, got %d/%d", len(fc.Point), len(fc.Timestamps))
	}
	if !fc.Timestamps[0].Equal(series.Last().AddDate(0, 3, 0)) {
		t.Errorf("First forecast should be one quarter after %v, got %v", series.Last(), fc.Timestamps[0])
	}

	// Q4 (index 3 of the forecast year starting in Q1) should beat Q3.
	if fc.Point[3] <= fc.Point[2] {
		t.Errorf("Seasonal pattern lost: Q3=%f Q4=%f", fc.Point[2], fc.Point[3])
	}

	for h := range fc.Point {
		if math.IsNaN(fc.Point[h]) {
			t.Fatalf("Forecast %d is NaN", h)
		}
		if fc.Lower[h] > fc.Point[h] || fc.Upper[h] < fc.Point[h] {
			t.Errorf("Interval %d [%f, %f] does not contain %f", h, fc.Lower[h], fc.Upper[h], fc.Point[h])
		}
		if h > 0 && fc.StdErr[h] < fc.StdErr[h-1] {
			t.Errorf("StdErr should not shrink with horizon: %f < %f", fc.StdErr[h], fc.StdErr[h-1])
		}
	}
	if fc.Level != 0.9 {
		t.Errorf("Expected level 0.9, got %f", fc.Level)
	}
}

func TestResidualsAndFitted(t *testing.T) {
	series := quarterlyYield(12, 16)
	model := New(1, 0, 0, 1, 1, 0, 4)

	if err := model.Fit(series); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	resid := model.Residuals()
	if len(resid) != model.NObs {
		t.Errorf("Expected %d residuals, got %d", model.NObs, len(resid))
	}

	rs := model.ResidualSeries()
	if !rs.Timestamps[len(rs.Timestamps)-1].Equal(series.Last()) {
		t.Error("Residual series should end at the last observation")
	}

	first := series.Len() - len(resid)
	if rs.Len() != len(resid) || !rs.Timestamps[0].Equal(series.Timestamps[first]) {
		t.Errorf("Residual series should start at observation %d", first)
	}
	for i, r := range resid {
		if rs.Values[i] != r {
			t.Fatalf("Residual series differs from Residuals at %d", i)
		}
	}

	fitted := model.FittedValues()
	if len(fitted) != series.Len() {
		t.Fatalf("Expected %d fitted values, got %d", series.Len(), len(fitted))
	}
	if !math.IsNaN(fitted[first-1]) {
		t.Error("Fitted values before the first residual should be NaN")
	}
	last := series.Len() - 1
	if math.Abs(series.Values[last]-fitted[last]-resid[len(resid)-1]) > 1e-9 {
		t.Error("Fitted value plus residual should reproduce the observation")
	}
}

func TestConditioningAlignsSamples(t *testing.T) {
	series := quarterlyYield(12, 17)
	a := New(0, 0, 0, 0, 1, 0, 4, WithConditioning(6))
	b := New(1, 0, 0, 1, 1, 0, 4, WithConditioning(6))

	if err := a.Fit(series); err != nil {
		t.Fatalf("Fit a: %v", err)
	}
	if err := b.Fit(series); err != nil {
		t.Fatalf("Fit b: %v", err)
	}
	if a.NObs != b.NObs {
		t.Errorf("Conditioned models should share observations: %d vs %d", a.NObs, b.NObs)
	}
}

func TestSummary(t *testing.T) {
	series := quarterlyYield(15, 18)
	model := New(1, 0, 0, 0, 1, 1, 4)

	if err := model.Fit(series); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	summary := model.Summary()
	if summary == nil {
		t.Fatal("Summary should not be nil")
	}
	if summary.NObs != series.Len() {
		t.Errorf("Expected NObs=%d, got %d", series.Len(), summary.NObs)
	}
	if summary.LjungBox == nil {
		t.Fatal("Summary should carry a Ljung-Box result")
	}
	if summary.LjungBox.Lags != 8 {
		t.Errorf("Expected 8 Ljung-Box lags for quarterly data, got %d", summary.LjungBox.Lags)
	}
	t.Logf("SARIMA%s AICc=%.3f LB p=%.3f", summary.Order, summary.AICc, summary.LjungBox.PValue)
}
