// Package stats provides statistical tests and analysis functions for time series.
//
// This package includes stationarity tests, autocorrelation functions, and
// diagnostic tests for seasonal ARIMA model validation.
//
// # Stationarity Tests
//
// Test whether a time series is stationary:
//
//	// Augmented Dickey-Fuller test
//	// H0: Series has unit root (non-stationary)
//	adf, err := stats.ADF(series, stats.DefaultADFOptions())
//	fmt.Printf("ADF: stat=%.4f, p=%.4f, stationary=%v\n",
//	    adf.Statistic, adf.PValue, adf.IsStationary)
//
//	// KPSS test
//	// H0: Series is stationary
//	kpss, err := stats.KPSS(series, stats.RegressionConstant, 0)
//
// ADF p-values follow MacKinnon's response surface; KPSS p-values are
// interpolated from the published table and clipped to [0.01, 0.10].
//
// # Differencing Analysis
//
//	d := stats.NDiffs(series, 2, stats.StationTestADF) // first differences needed
//	D := stats.NSDiffs(series, 4, 1)            // seasonal differences needed
//
// # Autocorrelation
//
//	acf := stats.ACFWithConfidence(series, 12)
//	pacf := stats.PACFWithConfidence(series, 12)
//	lags := stats.SignificantLags(acf.Values, acf.ConfBounds)
//
// # Residual Diagnostics
//
//	lb, err := stats.LjungBox(residuals, stats.DefaultLjungBoxLags(n, 4), fitdf)
//	jb, err := stats.JarqueBera(residuals.Values)
//	dw := stats.DurbinWatson(residuals.Values)
//
// # Errors
//
// Tests return ErrInsufficientData when the input is too short and
// ErrConstant when it has no variation.
package stats
