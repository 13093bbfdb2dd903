package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/riceyield/timeseries"
)

// Stationarity tests accepted by NDiffs.
const (
	StationTestADF  = "adf"
	StationTestKPSS = "kpss"
)

// NDiffs determines the number of first differences required for stationarity.
// maxD is the maximum number of differences to consider (default 2).
// testType is "adf" (default) or "kpss". Differencing stops early once the
// series becomes too short to test.
func NDiffs(series *timeseries.Series, maxD int, testType string) int {
	if maxD <= 0 {
		maxD = 2
	}

	current := series
	for d := 0; d < maxD; d++ {
		if isStationary(current, testType) {
			return d
		}

		current = current.Diff()
		if current.Len() < 10 {
			return d + 1
		}
	}

	return maxD
}

func isStationary(series *timeseries.Series, testType string) bool {
	if testType == StationTestKPSS {
		result, err := KPSS(series, RegressionConstant, 0)
		return err == nil && result.IsStationary
	}
	result, err := ADF(series, DefaultADFOptions())
	return err == nil && result.IsStationary
}

// NSDiffs determines the number of seasonal differences required.
// Uses seasonal strength measure: if F_S >= 0.64, one seasonal difference is suggested.
// period is the seasonal period (4 for quarterly data).
func NSDiffs(series *timeseries.Series, period int, maxD int) int {
	if maxD <= 0 {
		maxD = 1
	}
	if period <= 1 || series.Len() < 2*period {
		return 0
	}

	current := series
	for d := 0; d < maxD; d++ {
		if SeasonalStrength(current, period) < 0.64 {
			return d
		}

		current = current.SeasonalDiff(period)
		if current.Len() < 2*period {
			return d + 1
		}
	}

	return maxD
}

// SeasonalStrength calculates the strength of seasonality (F_S).
// F_S = max(0, 1 - Var(R) / Var(S+R))
// where S is seasonal component and R is residual.
func SeasonalStrength(series *timeseries.Series, period int) float64 {
	decomp, err := Decompose(series, period, DecompositionAdditive)
	if err != nil {
		return 0
	}

	var resid, seasonalPlusResid []float64
	for i := range decomp.Residual.Values {
		r := decomp.Residual.Values[i]
		if math.IsNaN(r) {
			continue
		}
		resid = append(resid, r)
		seasonalPlusResid = append(seasonalPlusResid, decomp.Seasonal.Values[i]+r)
	}
	if len(resid) < 2 {
		return 0
	}

	varSR := stat.Variance(seasonalPlusResid, nil)
	if varSR == 0 {
		return 0
	}

	return math.Max(0, 1-stat.Variance(resid, nil)/varSR)
}

// InformationCriteria holds AIC, AICc, and BIC for one fit.
type InformationCriteria struct {
	AIC    float64
	AICc   float64
	BIC    float64
	LogLik float64
}

// CalculateIC calculates all information criteria.
// logLik is the log-likelihood, nObs is the number of observations,
// nParams is the number of estimated parameters including the variance.
func CalculateIC(logLik float64, nObs int, nParams int) *InformationCriteria {
	k := float64(nParams)
	n := float64(nObs)

	aic := -2*logLik + 2*k
	bic := -2*logLik + k*math.Log(n)

	aicc := math.Inf(1)
	if n-k-1 > 0 {
		aicc = aic + 2*k*(k+1)/(n-k-1)
	}

	return &InformationCriteria{
		AIC:    aic,
		AICc:   aicc,
		BIC:    bic,
		LogLik: logLik,
	}
}
