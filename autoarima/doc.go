// Package autoarima implements automatic SARIMA model selection.
//
// Search first chooses the differencing orders from the data: the number of
// seasonal differences from the seasonal strength of a classical
// decomposition, then the number of first differences by repeated unit-root
// tests on the seasonally differenced series. It then searches the ARMA
// orders that minimise an information criterion.
//
// # Basic Usage
//
//	config := autoarima.DefaultConfig() // quarterly, stepwise, AICc
//	result, err := autoarima.Search(series, config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Best model: SARIMA%s AICc=%.2f (%d models)\n",
//	    result.Order, result.Criterion, result.ModelsEvaluated)
//
//	fc, _ := result.Forecast(8, 0.95)
//
// # Search Methods
//
// Two search methods are available:
//   - Stepwise (default): the Hyndman-Khandakar algorithm, starting from four
//     models and moving to better neighbours until none improves
//   - Grid: every order within the configured maxima (set Stepwise=false)
//
// Every candidate is conditioned on the same number of leading observations,
// MaxP + MaxSP*M, so criteria compare like with like. Candidates that fail to
// fit are kept in Result.Candidates with their error.
package autoarima
