package stats

import "math"

// AccuracyResult holds point-forecast error measures.
type AccuracyResult struct {
	RMSE float64
	MAE  float64
	MAPE float64 // percent; zero actuals are skipped
	N    int
}

// Accuracy compares forecasts with held-out actuals over their common length.
func Accuracy(actual, predicted []float64) AccuracyResult {
	n := min(len(actual), len(predicted))
	if n == 0 {
		return AccuracyResult{RMSE: math.NaN(), MAE: math.NaN(), MAPE: math.NaN()}
	}

	var sse, sae, sape float64
	nonZero := 0
	for i := 0; i < n; i++ {
		d := actual[i] - predicted[i]
		sse += d * d
		sae += math.Abs(d)
		if actual[i] != 0 {
			sape += math.Abs(d) / math.Abs(actual[i]) * 100
			nonZero++
		}
	}

	mape := math.NaN()
	if nonZero > 0 {
		mape = sape / float64(nonZero)
	}

	return AccuracyResult{
		RMSE: math.Sqrt(sse / float64(n)),
		MAE:  sae / float64(n),
		MAPE: mape,
		N:    n,
	}
}
