package stats

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/sartorproj/riceyield/timeseries"
)

func whiteNoise(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	for i := range values {
		values[i] = rng.NormFloat64()
	}
	return values
}

func ar1(n int, phi float64, seed int64) []float64 {
	noise := whiteNoise(n, seed)
	values := make([]float64, n)
	for i := 1; i < n; i++ {
		values[i] = phi*values[i-1] + noise[i]
	}
	return values
}

func TestACF(t *testing.T) {
	series := timeseries.New(ar1(200, 0.8, 1))
	acf := ACF(series, 10)

	if acf == nil {
		t.Fatal("ACF returned nil")
	}
	if math.Abs(acf[0]-1.0) > 1e-10 {
		t.Errorf("ACF at lag 0 should be 1, got %f", acf[0])
	}
	if acf[1] < 0.5 {
		t.Errorf("ACF at lag 1 should be strongly positive for AR(1) with phi=0.8, got %f", acf[1])
	}
	if math.Abs(acf[5]) >= math.Abs(acf[1]) {
		t.Errorf("ACF should decay: lag1=%f lag5=%f", acf[1], acf[5])
	}
}

func TestACFConstant(t *testing.T) {
	if ACF(timeseries.New([]float64{2, 2, 2, 2}), 2) != nil {
		t.Error("ACF of a constant series should be nil")
	}
}

func TestPACF(t *testing.T) {
	series := timeseries.New(ar1(300, 0.7, 2))
	pacf := PACF(series, 10)

	if pacf == nil {
		t.Fatal("PACF returned nil")
	}
	if math.Abs(pacf[0]-1.0) > 1e-10 {
		t.Errorf("PACF at lag 0 should be 1, got %f", pacf[0])
	}
	if math.Abs(pacf[1]-0.7) > 0.2 {
		t.Errorf("PACF at lag 1 should be near 0.7, got %f", pacf[1])
	}
	bound := ConfidenceBound(series.Len(), 0.95)
	if math.Abs(pacf[1]) <= bound {
		t.Errorf("PACF at lag 1 should be significant, got %f (bound %f)", pacf[1], bound)
	}
}

func TestACFWithConfidence(t *testing.T) {
	series := timeseries.New(whiteNoise(100, 3))
	result := ACFWithConfidence(series, 8)

	if result == nil {
		t.Fatal("ACFWithConfidence returned nil")
	}
	if len(result.Lags) != 9 {
		t.Errorf("Expected 9 lags, got %d", len(result.Lags))
	}
	if math.Abs(result.ConfBounds-1.959964/10) > 1e-4 {
		t.Errorf("Expected bound 1.96/sqrt(100), got %f", result.ConfBounds)
	}
}

func TestSignificantLags(t *testing.T) {
	values := []float64{1, 0.5, 0.05, -0.4, 0.1}
	lags := SignificantLags(values, 0.2)

	if len(lags) != 2 || lags[0] != 1 || lags[1] != 3 {
		t.Errorf("Expected lags [1 3], got %v", lags)
	}
}

func TestADFStationary(t *testing.T) {
	series := timeseries.New(whiteNoise(200, 4))
	result, err := ADF(series, DefaultADFOptions())
	if err != nil {
		t.Fatalf("ADF failed: %v", err)
	}

	if !result.IsStationary {
		t.Errorf("White noise should be stationary: stat=%f p=%f", result.Statistic, result.PValue)
	}
	if result.Statistic > result.CriticalVals["1%"] {
		t.Errorf("Statistic %f should be below the 1%% critical value %f", result.Statistic, result.CriticalVals["1%"])
	}
}

func TestADFTrend(t *testing.T) {
	noise := whiteNoise(120, 5)
	values := make([]float64, len(noise))
	for i := range values {
		values[i] = 2 + 0.3*float64(i) + 0.2*noise[i]
	}

	result, err := ADF(timeseries.New(values), DefaultADFOptions())
	if err != nil {
		t.Fatalf("ADF failed: %v", err)
	}

	if result.IsStationary {
		t.Errorf("Trending series should not be stationary around a constant: p=%f", result.PValue)
	}
}

func TestADFFixedLag(t *testing.T) {
	series := timeseries.New(whiteNoise(60, 6))
	result, err := ADF(series, ADFOptions{MaxLag: 2, Regression: RegressionConstantTrend})
	if err != nil {
		t.Fatalf("ADF failed: %v", err)
	}
	if result.Lags != 2 {
		t.Errorf("Expected 2 lags, got %d", result.Lags)
	}
	if result.NObs != 60-1-2 {
		t.Errorf("Expected %d observations, got %d", 60-3, result.NObs)
	}
	if result.Regression != RegressionConstantTrend {
		t.Errorf("Expected ct regression, got %s", result.Regression)
	}
}

func TestADFInsufficientData(t *testing.T) {
	_, err := ADF(timeseries.New([]float64{1, 2, 3}), DefaultADFOptions())
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

func TestMacKinnonP(t *testing.T) {
	tests := []struct {
		stat float64
		want float64
	}{
		{-2.86, 0.05},
		{-3.43, 0.01},
		{-2.57, 0.10},
	}
	for _, tt := range tests {
		got := mackinnonP(tt.stat, RegressionConstant)
		if math.Abs(got-tt.want) > 0.01 {
			t.Errorf("mackinnonP(%f) = %f, want about %f", tt.stat, got, tt.want)
		}
	}
	if mackinnonP(5, RegressionConstant) != 1 {
		t.Error("Large positive statistic should give p=1")
	}
}

func TestKPSS(t *testing.T) {
	stationary, err := KPSS(timeseries.New(whiteNoise(150, 7)), RegressionConstant, 0)
	if err != nil {
		t.Fatalf("KPSS failed: %v", err)
	}
	if !stationary.IsStationary {
		t.Errorf("White noise should be KPSS stationary: stat=%f", stationary.Statistic)
	}

	trend := make([]float64, 150)
	for i := range trend {
		trend[i] = float64(i)
	}
	result, err := KPSS(timeseries.New(trend), RegressionConstant, 0)
	if err != nil {
		t.Fatalf("KPSS failed: %v", err)
	}
	if result.IsStationary {
		t.Errorf("Linear trend should not be level stationary: stat=%f", result.Statistic)
	}
	if result.PValue != 0.01 {
		t.Errorf("Expected clipped p-value 0.01, got %f", result.PValue)
	}
}

func TestKPSSPValueInterpolation(t *testing.T) {
	table := kpssTable[RegressionConstant]
	p := kpssPValue((table[0]+table[1])/2, table)
	if math.Abs(p-0.075) > 1e-10 {
		t.Errorf("Expected midpoint p-value 0.075, got %f", p)
	}
}

func TestLjungBox(t *testing.T) {
	correlated, err := LjungBox(timeseries.New(ar1(200, 0.8, 8)), 10, 0)
	if err != nil {
		t.Fatalf("LjungBox failed: %v", err)
	}
	if correlated.IsWhiteNoise || correlated.PValue > 0.001 {
		t.Errorf("AR(1) data should fail the whiteness test: p=%f", correlated.PValue)
	}

	white, err := LjungBox(timeseries.New(whiteNoise(200, 9)), 10, 2)
	if err != nil {
		t.Fatalf("LjungBox failed: %v", err)
	}
	if white.DOF != 8 {
		t.Errorf("Expected 8 degrees of freedom, got %d", white.DOF)
	}
	if !white.IsWhiteNoise {
		t.Errorf("White noise should pass the whiteness test: p=%f", white.PValue)
	}
}

func TestDefaultLjungBoxLags(t *testing.T) {
	tests := []struct {
		n, period, want int
	}{
		{56, 4, 8},
		{30, 4, 6},
		{200, 0, 10},
		{3, 4, 1},
	}
	for _, tt := range tests {
		if got := DefaultLjungBoxLags(tt.n, tt.period); got != tt.want {
			t.Errorf("DefaultLjungBoxLags(%d, %d) = %d, want %d", tt.n, tt.period, got, tt.want)
		}
	}
}

func TestJarqueBera(t *testing.T) {
	normal, err := JarqueBera(whiteNoise(500, 10))
	if err != nil {
		t.Fatalf("JarqueBera failed: %v", err)
	}
	if !normal.IsNormal {
		t.Errorf("Gaussian sample should look normal: JB=%f p=%f", normal.Statistic, normal.PValue)
	}

	skewed := make([]float64, 200)
	for i := range skewed {
		skewed[i] = math.Exp(float64(i%20) / 4)
	}
	result, err := JarqueBera(skewed)
	if err != nil {
		t.Fatalf("JarqueBera failed: %v", err)
	}
	if result.IsNormal {
		t.Errorf("Exponential-shaped sample should not look normal: p=%f", result.PValue)
	}
	if result.Skewness <= 0 {
		t.Errorf("Expected positive skewness, got %f", result.Skewness)
	}
}

func TestDurbinWatson(t *testing.T) {
	alternating := []float64{1, -1, 1, -1, 1, -1, 1, -1}
	if dw := DurbinWatson(alternating); dw < 3 {
		t.Errorf("Alternating residuals should have DW near 4, got %f", dw)
	}
	if !math.IsNaN(DurbinWatson([]float64{1})) {
		t.Error("DW of a single residual should be NaN")
	}
}

func TestAccuracy(t *testing.T) {
	result := Accuracy([]float64{2, 4, 0}, []float64{1, 5, 1})

	if math.Abs(result.RMSE-1) > 1e-10 {
		t.Errorf("Expected RMSE 1, got %f", result.RMSE)
	}
	if math.Abs(result.MAE-1) > 1e-10 {
		t.Errorf("Expected MAE 1, got %f", result.MAE)
	}
	if math.Abs(result.MAPE-37.5) > 1e-10 {
		t.Errorf("Expected MAPE 37.5, got %f", result.MAPE)
	}
	if result.N != 3 {
		t.Errorf("Expected N=3, got %d", result.N)
	}
}

func TestCalculateIC(t *testing.T) {
	ic := CalculateIC(-50, 40, 3)

	if math.Abs(ic.AIC-106) > 1e-10 {
		t.Errorf("Expected AIC 106, got %f", ic.AIC)
	}
	expectedAICc := 106 + 2*3.0*4.0/36.0
	if math.Abs(ic.AICc-expectedAICc) > 1e-10 {
		t.Errorf("Expected AICc %f, got %f", expectedAICc, ic.AICc)
	}
	if math.Abs(ic.BIC-(100+3*math.Log(40))) > 1e-10 {
		t.Errorf("Unexpected BIC %f", ic.BIC)
	}
}
