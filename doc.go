// Package riceyield cleans, models and forecasts quarterly provincial rice
// yields.
//
// The module is a set of small packages wired together by the riceyield
// command:
//
//   - spreadsheet reads a workbook laid out with a year header row, a period
//     label row and a yield row into a tidy table
//   - yield holds that table (Date, Year, Quarter, Yield) and its CSV form
//   - timeseries, stats, sarima and autoarima test stationarity, choose the
//     differencing, search SARIMA orders by information criterion and forecast
//   - plots renders the series, diagnostics and forecasts as PNG files
//   - config and pipeline drive one run from a YAML file or flags
//
// # Quick Start
//
//	riceyield run --input rice.xlsx --province "Nueva Ecija" --output out
//
// or from Go:
//
//	table, _, err := spreadsheet.Read("rice.xlsx", spreadsheet.Layout{YearRow: 1, PeriodRow: 2, Province: "Nueva Ecija"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	series, _ := table.Series(false)
//
//	result, _ := autoarima.Search(series, autoarima.DefaultConfig())
//	fc, _ := result.Forecast(8, 0.95)
//
// Models are estimated by conditional sum of squares, following the
// methodology of "Forecasting: Principles and Practice".
package riceyield
