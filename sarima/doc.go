// Package sarima implements Seasonal ARIMA (SARIMA) models for series with a
// fixed seasonal period, such as quarterly crop yields.
//
// A SARIMA(p,d,q)(P,D,Q)[m] model includes:
//   - Non-seasonal components: AR(p), I(d), MA(q)
//   - Seasonal components: SAR(P), SI(D), SMA(Q) at seasonal period m
//
// Coefficients are estimated by conditional sum of squares. The AR factors are
// kept stationary and the MA factors invertible during the search, so every
// fitted model can be forecast.
//
// # Basic Usage
//
// Fit a quarterly model (m=4) and forecast two years ahead:
//
//	// SARIMA(1,0,0)(0,1,1)[4]
//	model := sarima.New(1, 0, 0, 0, 1, 1, 4)
//
//	if err := model.Fit(series); err != nil {
//	    log.Fatal(err)
//	}
//
//	fc, err := model.Forecast(8, 0.95)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for i, t := range fc.Timestamps {
//	    fmt.Printf("%s %.3f [%.3f, %.3f]\n", t.Format("2006-01-02"), fc.Point[i], fc.Lower[i], fc.Upper[i])
//	}
//
// # Comparing Models
//
// Criteria are only comparable between models scored on the same
// observations. WithConditioning fixes the number of leading observations
// excluded from the sum of squares:
//
//	a := sarima.New(0, 0, 1, 0, 1, 1, 4, sarima.WithConditioning(6))
//	b := sarima.New(2, 0, 0, 1, 1, 0, 4, sarima.WithConditioning(6))
//
// Lower AICc is better. For an automatic search use the autoarima package.
//
// # Diagnostics
//
// Summary reports coefficient standard errors and a Ljung-Box test on the
// residuals; ResidualSeries and FittedValues feed residual plots.
package sarima
