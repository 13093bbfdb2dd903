package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/riceyield/timeseries"
)

// ACF returns the sample autocorrelations for lags 0 to maxLag, normalised by
// the lag-0 sum of squares. It returns nil for a constant series.
func ACF(series *timeseries.Series, maxLag int) []float64 {
	n := series.Len()
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil
	}

	centred := make([]float64, n)
	copy(centred, series.Values)
	floats.AddConst(-stat.Mean(centred, nil), centred)
	ss := floats.Dot(centred, centred)
	if ss == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	for k := range acf {
		acf[k] = floats.Dot(centred[k:], centred[:n-k]) / ss
	}
	return acf
}

// PACF returns partial autocorrelations for lags 0 to maxLag from the
// Durbin-Levinson recursion. Lag 0 is 1 by convention.
func PACF(series *timeseries.Series, maxLag int) []float64 {
	if maxLag >= series.Len() {
		maxLag = series.Len() - 1
	}
	if maxLag < 1 {
		return nil
	}
	r := ACF(series, maxLag)
	if r == nil {
		return nil
	}

	pacf := make([]float64, maxLag+1)
	pacf[0] = 1
	// phi holds the AR(k-1) coefficients phi[1..k-1] of the previous step.
	phi := make([]float64, maxLag+1)
	prev := make([]float64, maxLag+1)
	for k := 1; k <= maxLag; k++ {
		num, den := r[k], 1.0
		for j := 1; j < k; j++ {
			num -= prev[j] * r[k-j]
			den -= prev[j] * r[j]
		}
		if den == 0 {
			break
		}
		kk := num / den
		for j := 1; j < k; j++ {
			phi[j] = prev[j] - kk*prev[k-j]
		}
		phi[k] = kk
		pacf[k] = kk
		copy(prev, phi)
	}
	return pacf
}

// CorrelogramResult holds ACF or PACF values with their confidence bound.
type CorrelogramResult struct {
	Lags       []int
	Values     []float64
	ConfBounds float64 // 95% bound, z/sqrt(n)
}

// ConfidenceBound returns the two-sided white-noise bound for n observations.
func ConfidenceBound(n int, level float64) float64 {
	if n <= 0 {
		return math.NaN()
	}
	z := distuv.UnitNormal.Quantile((1 + level) / 2)
	return z / math.Sqrt(float64(n))
}

// ACFWithConfidence calculates ACF with 95% confidence bounds.
func ACFWithConfidence(series *timeseries.Series, maxLag int) *CorrelogramResult {
	return withConfidence(ACF(series, maxLag), series.Len())
}

// PACFWithConfidence calculates PACF with 95% confidence bounds.
func PACFWithConfidence(series *timeseries.Series, maxLag int) *CorrelogramResult {
	return withConfidence(PACF(series, maxLag), series.Len())
}

func withConfidence(values []float64, n int) *CorrelogramResult {
	if values == nil {
		return nil
	}
	lags := make([]int, len(values))
	for i := range lags {
		lags[i] = i
	}
	return &CorrelogramResult{
		Lags:       lags,
		Values:     values,
		ConfBounds: ConfidenceBound(n, 0.95),
	}
}

// SignificantLags lists the lags from 1 upward whose value lies outside
// plus or minus bound.
func SignificantLags(values []float64, bound float64) []int {
	var lags []int
	for lag, v := range values {
		if lag > 0 && math.Abs(v) > bound {
			lags = append(lags, lag)
		}
	}
	return lags
}
