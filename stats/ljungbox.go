package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/riceyield/timeseries"
)

// LjungBoxResult represents the result of a Ljung-Box test.
type LjungBoxResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	DOF          int // Degrees of freedom
	IsWhiteNoise bool
}

// DefaultLjungBoxLags returns min(2m, n/5) for seasonal data with period m
// and min(10, n/5) otherwise, never less than 1.
func DefaultLjungBoxLags(n, period int) int {
	lags := 10
	if period > 1 {
		lags = 2 * period
	}
	lags = min(lags, n/5)
	return max(lags, 1)
}

// LjungBox performs the Ljung-Box test for autocorrelation in residuals.
// The null hypothesis is that there is no autocorrelation up to lag h.
// If p-value < 0.05, we reject the null and conclude there is significant autocorrelation.
// fitdf is the number of ARMA parameters estimated (p+q+P+Q for SARIMA).
func LjungBox(series *timeseries.Series, lags, fitdf int) (*LjungBoxResult, error) {
	n := series.Len()
	if n < 10 || lags < 1 {
		return nil, fmt.Errorf("ljung-box: %w: %d observations, %d lags", ErrInsufficientData, n, lags)
	}

	if lags >= n {
		lags = n - 1
	}

	acf := ACF(series, lags)
	if acf == nil {
		return nil, fmt.Errorf("ljung-box: %w", ErrConstant)
	}

	q := 0.0
	for k := 1; k <= lags; k++ {
		q += (acf[k] * acf[k]) / float64(n-k)
	}
	q *= float64(n * (n + 2))

	dof := lags - fitdf
	if dof < 1 {
		dof = 1
	}

	pValue := distuv.ChiSquared{K: float64(dof)}.Survival(q)

	return &LjungBoxResult{
		Statistic:    q,
		PValue:       pValue,
		Lags:         lags,
		DOF:          dof,
		IsWhiteNoise: pValue >= 0.05,
	}, nil
}

// JarqueBeraResult represents the result of a Jarque-Bera normality test.
type JarqueBeraResult struct {
	Statistic float64
	PValue    float64
	Skewness  float64
	Kurtosis  float64 // raw kurtosis; 3 for a normal distribution
	IsNormal  bool
}

// JarqueBera tests whether values have the skewness and kurtosis of a normal
// distribution. NaN values are ignored.
func JarqueBera(values []float64) (*JarqueBeraResult, error) {
	x := dropNaN(values)
	n := len(x)
	if n < 8 {
		return nil, fmt.Errorf("jarque-bera: %w: %d observations", ErrInsufficientData, n)
	}

	m2 := stat.Moment(2, x, nil)
	if m2 == 0 {
		return nil, fmt.Errorf("jarque-bera: %w", ErrConstant)
	}
	skew := stat.Moment(3, x, nil) / math.Pow(m2, 1.5)
	kurt := stat.Moment(4, x, nil) / (m2 * m2)

	jb := float64(n) / 6 * (skew*skew + (kurt-3)*(kurt-3)/4)
	pValue := distuv.ChiSquared{K: 2}.Survival(jb)

	return &JarqueBeraResult{
		Statistic: jb,
		PValue:    pValue,
		Skewness:  skew,
		Kurtosis:  kurt,
		IsNormal:  pValue >= 0.05,
	}, nil
}

// DurbinWatson calculates the Durbin-Watson statistic for first-order autocorrelation.
// A value near 2 indicates none; below 2 positive, above 2 negative autocorrelation.
// NaN values are ignored. Returns NaN when the statistic is undefined.
func DurbinWatson(residuals []float64) float64 {
	r := dropNaN(residuals)
	if len(r) < 2 {
		return math.NaN()
	}

	numerator := 0.0
	for i := 1; i < len(r); i++ {
		diff := r[i] - r[i-1]
		numerator += diff * diff
	}
	denominator := 0.0
	for _, v := range r {
		denominator += v * v
	}
	if denominator == 0 {
		return math.NaN()
	}
	return numerator / denominator
}

func dropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
