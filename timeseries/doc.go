// Package timeseries provides time series data structures and utilities.
//
// A Series holds values, optional timestamps and the number of observations
// per year. Quarterly yield data uses Frequency 4.
//
// # Creating a Series
//
//	values := []float64{3.91, 3.42, 3.77, 4.05, 4.02, 3.51}
//	start := time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC)
//	series := timeseries.Quarterly(start, values)
//
// # Transformations
//
//	diff := series.Diff()           // First difference
//	diff2 := series.DiffN(2)        // First difference applied twice
//	sdiff := series.SeasonalDiff(4) // Year-on-year difference for quarters
//
// Differenced series drop the leading observations they consume; their
// timestamps stay aligned with the remaining values.
//
// # Calendar
//
// NextTimestamps continues the calendar past the last observation, which is
// how forecasts are dated:
//
//	next := series.NextTimestamps(8) // next two years of quarters
package timeseries
