package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/riceyield/timeseries"
)

// Deterministic terms included in unit-root regressions.
const (
	RegressionNone          = "n"  // no constant
	RegressionConstant      = "c"  // constant only
	RegressionConstantTrend = "ct" // constant and linear trend
)

// ADFOptions configures the Augmented Dickey-Fuller test.
type ADFOptions struct {
	// MaxLag is the largest number of lagged differences. A negative value
	// selects the Schwert rule ceil(12*(n/100)^(1/4)).
	MaxLag int
	// AutoLag chooses the lag in [0, MaxLag] by "aic" or "bic". Empty uses
	// MaxLag as given.
	AutoLag string
	// Regression is one of "n", "c" (default) or "ct".
	Regression string
}

// DefaultADFOptions returns AIC lag selection with a constant.
func DefaultADFOptions() ADFOptions {
	return ADFOptions{MaxLag: -1, AutoLag: "aic", Regression: RegressionConstant}
}

// ADFResult represents the result of an Augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	NObs         int
	Regression   string
	CriticalVals map[string]float64 // Critical values at 1%, 5%, 10%
	IsStationary bool
}

// ADF performs the Augmented Dickey-Fuller test for a unit root.
// The null hypothesis is that the series has a unit root (is non-stationary).
// If p-value < 0.05, we reject the null and conclude the series is stationary.
func ADF(series *timeseries.Series, opts ADFOptions) (*ADFResult, error) {
	n := series.Len()
	if n < 10 {
		return nil, fmt.Errorf("adf: %w: %d observations", ErrInsufficientData, n)
	}

	regression := opts.Regression
	if regression == "" {
		regression = RegressionConstant
	}
	nTrend, ok := trendTerms(regression)
	if !ok {
		return nil, fmt.Errorf("adf: unknown regression %q", regression)
	}

	maxLag := opts.MaxLag
	if maxLag < 0 {
		maxLag = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	if limit := n/2 - nTrend - 1; maxLag > limit {
		maxLag = limit
	}
	if maxLag < 0 {
		return nil, fmt.Errorf("adf: %w: %d observations", ErrInsufficientData, n)
	}

	y := series.Values
	dy := series.Diff().Values

	lag := maxLag
	if opts.AutoLag != "" {
		best := math.Inf(1)
		for l := 0; l <= maxLag; l++ {
			fit, err := adfRegression(y, dy, l, maxLag, regression)
			if err != nil {
				continue
			}
			k := float64(len(fit.Coeffs))
			var ic float64
			switch opts.AutoLag {
			case "bic":
				ic = -2*fit.LogLik() + k*math.Log(float64(fit.NObs))
			default:
				ic = -2*fit.LogLik() + 2*k
			}
			if ic < best {
				best = ic
				lag = l
			}
		}
	}

	fit, err := adfRegression(y, dy, lag, lag, regression)
	if err != nil {
		return nil, fmt.Errorf("adf: %w", err)
	}

	tStat := fit.Coeffs[0] / fit.StdErrors[0]
	pValue := mackinnonP(tStat, regression)

	return &ADFResult{
		Statistic:    tStat,
		PValue:       pValue,
		Lags:         lag,
		NObs:         fit.NObs,
		Regression:   regression,
		CriticalVals: mackinnonCrit(regression, fit.NObs),
		IsStationary: pValue < 0.05,
	}, nil
}

// adfRegression regresses dy_t on y_{t-1}, lag lagged differences and the
// deterministic terms, using observations from index start onwards so that
// regressions with different lags can share a sample.
func adfRegression(y, dy []float64, lag, start int, regression string) (*OLSResult, error) {
	nObs := len(dy) - start
	if nObs < 1 {
		return nil, ErrInsufficientData
	}
	nTrend, _ := trendTerms(regression)

	resp := make([]float64, nObs)
	x := make([][]float64, nObs)
	for i := 0; i < nObs; i++ {
		t := start + i
		resp[i] = dy[t]

		row := make([]float64, 0, 1+lag+nTrend)
		row = append(row, y[t])
		for j := 1; j <= lag; j++ {
			row = append(row, dy[t-j])
		}
		if nTrend >= 1 {
			row = append(row, 1)
		}
		if nTrend == 2 {
			row = append(row, float64(t+1))
		}
		x[i] = row
	}

	return OLS(x, resp)
}

func trendTerms(regression string) (int, bool) {
	switch regression {
	case RegressionNone:
		return 0, true
	case RegressionConstant:
		return 1, true
	case RegressionConstantTrend:
		return 2, true
	}
	return 0, false
}

// MacKinnon (1994) response-surface coefficients for a single series.
var mackinnonSurface = map[string]struct {
	max, min, star float64
	small          []float64
	large          []float64
}{
	RegressionNone: {
		max: 1.51, min: -19.04, star: -1.04,
		small: []float64{0.6344, 1.2378, 0.032496},
		large: []float64{0.4797, 0.93557, -0.06999, 0.033066},
	},
	RegressionConstant: {
		max: 2.74, min: -18.83, star: -1.61,
		small: []float64{2.1659, 1.4412, 0.038269},
		large: []float64{1.7339, 0.93202, -0.12745, -0.010368},
	},
	RegressionConstantTrend: {
		max: 0.7, min: -16.18, star: -2.89,
		small: []float64{3.2512, 1.6047, 0.049588},
		large: []float64{2.5261, 0.61654, -0.37956, -0.060285},
	},
}

// mackinnonP returns the approximate p-value of a Dickey-Fuller statistic.
func mackinnonP(stat float64, regression string) float64 {
	s := mackinnonSurface[regression]
	switch {
	case stat > s.max:
		return 1
	case stat < s.min:
		return 0
	}
	coef := s.large
	if stat <= s.star {
		coef = s.small
	}
	z := 0.0
	for i := len(coef) - 1; i >= 0; i-- {
		z = z*stat + coef[i]
	}
	return distuv.UnitNormal.CDF(z)
}

// MacKinnon (2010) finite-sample critical value coefficients.
var mackinnonCritTable = map[string]map[string][4]float64{
	RegressionNone: {
		"1%":  {-2.56574, -2.2358, -3.627, 0},
		"5%":  {-1.94100, -0.2686, -3.365, 31.223},
		"10%": {-1.61682, 0.2656, -2.714, 25.364},
	},
	RegressionConstant: {
		"1%":  {-3.43035, -6.5393, -16.786, -79.433},
		"5%":  {-2.86154, -2.8903, -4.234, -40.040},
		"10%": {-2.56677, -1.5384, -2.809, 0},
	},
	RegressionConstantTrend: {
		"1%":  {-3.95877, -9.0531, -28.428, -134.155},
		"5%":  {-3.41049, -4.3904, -9.036, -45.374},
		"10%": {-3.12705, -2.5856, -3.925, -22.380},
	},
}

func mackinnonCrit(regression string, nObs int) map[string]float64 {
	inv := 1 / float64(nObs)
	out := make(map[string]float64, 3)
	for level, b := range mackinnonCritTable[regression] {
		out[level] = b[0] + b[1]*inv + b[2]*inv*inv + b[3]*inv*inv*inv
	}
	return out
}

// KPSSResult represents the result of a KPSS test.
type KPSSResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	CriticalVals map[string]float64
	IsStationary bool
}

// KPSS performs the Kwiatkowski-Phillips-Schmidt-Shin test for stationarity.
// The null hypothesis is that the series is stationary.
// If p-value < 0.05, we reject the null and conclude the series is non-stationary.
// The p-value is interpolated from the published table and so lies in [0.01, 0.10].
func KPSS(series *timeseries.Series, regression string, nlags int) (*KPSSResult, error) {
	n := series.Len()
	if n < 10 {
		return nil, fmt.Errorf("kpss: %w: %d observations", ErrInsufficientData, n)
	}
	if regression != RegressionConstantTrend {
		regression = RegressionConstant
	}

	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	if nlags >= n {
		nlags = n - 1
	}

	residuals := make([]float64, n)
	if regression == RegressionConstantTrend {
		x := make([][]float64, n)
		for i := range x {
			x[i] = []float64{1, float64(i)}
		}
		fit, err := OLS(x, series.Values)
		if err != nil {
			return nil, fmt.Errorf("kpss: %w", err)
		}
		for i, v := range series.Values {
			residuals[i] = v - fit.Coeffs[0] - fit.Coeffs[1]*float64(i)
		}
	} else {
		mean := series.Mean()
		for i, v := range series.Values {
			residuals[i] = v - mean
		}
	}

	// Long-run variance with Bartlett weights (Newey-West).
	s2 := 0.0
	for _, r := range residuals {
		s2 += r * r
	}
	if s2 == 0 {
		return nil, fmt.Errorf("kpss: %w", ErrConstant)
	}
	s2 /= float64(n)
	for l := 1; l <= nlags; l++ {
		cov := 0.0
		for i := l; i < n; i++ {
			cov += residuals[i] * residuals[i-l]
		}
		cov /= float64(n)
		weight := 1.0 - float64(l)/float64(nlags+1)
		s2 += 2 * weight * cov
	}
	if s2 <= 0 {
		s2 = 1e-10
	}

	cumSum := 0.0
	etaSq := 0.0
	for _, r := range residuals {
		cumSum += r
		etaSq += cumSum * cumSum
	}
	kpssStat := etaSq / (float64(n) * float64(n) * s2)

	table := kpssTable[regression]
	criticalVals := map[string]float64{
		"10%":  table[0],
		"5%":   table[1],
		"2.5%": table[2],
		"1%":   table[3],
	}

	pValue := kpssPValue(kpssStat, table)

	return &KPSSResult{
		Statistic:    kpssStat,
		PValue:       pValue,
		Lags:         nlags,
		CriticalVals: criticalVals,
		IsStationary: pValue >= 0.05,
	}, nil
}

// Critical values at 10%, 5%, 2.5% and 1%.
var kpssTable = map[string][4]float64{
	RegressionConstant:      {0.347, 0.463, 0.574, 0.739},
	RegressionConstantTrend: {0.119, 0.146, 0.176, 0.216},
}

var kpssLevels = [4]float64{0.10, 0.05, 0.025, 0.01}

// kpssPValue interpolates linearly inside the table and clips outside it.
func kpssPValue(stat float64, table [4]float64) float64 {
	if stat <= table[0] {
		return kpssLevels[0]
	}
	if stat >= table[3] {
		return kpssLevels[3]
	}
	for i := 1; i < len(table); i++ {
		if stat <= table[i] {
			frac := (stat - table[i-1]) / (table[i] - table[i-1])
			return kpssLevels[i-1] + frac*(kpssLevels[i]-kpssLevels[i-1])
		}
	}
	return kpssLevels[3]
}
