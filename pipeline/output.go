package pipeline

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/shopspring/decimal"

	"github.com/sartorproj/riceyield/plots"
	"github.com/sartorproj/riceyield/sarima"
	"github.com/sartorproj/riceyield/stats"
	"github.com/sartorproj/riceyield/timeseries"
	"github.com/sartorproj/riceyield/yield"
)

// ForecastColumns are the columns of the forecast CSV, in order.
var ForecastColumns = []string{"Date", "Forecast", "Lower", "Upper"}

// WriteForecastCSV writes point forecasts and interval bounds rounded to
// precision decimals.
func WriteForecastCSV(w io.Writer, fc *sarima.Forecast, precision int32) error {
	n := len(fc.Point)
	dates := make([]string, n)
	cols := [3][]string{make([]string, n), make([]string, n), make([]string, n)}
	for i := 0; i < n; i++ {
		if fc.Timestamps != nil {
			dates[i] = fc.Timestamps[i].Format(yield.DateLayout)
		} else {
			dates[i] = fmt.Sprintf("h%d", i+1)
		}
		for j, v := range []float64{fc.Point[i], fc.Lower[i], fc.Upper[i]} {
			cols[j][i] = decimal.NewFromFloat(v).StringFixed(precision)
		}
	}

	df := dataframe.New(
		series.New(dates, series.String, ForecastColumns[0]),
		series.New(cols[0], series.String, ForecastColumns[1]),
		series.New(cols[1], series.String, ForecastColumns[2]),
		series.New(cols[2], series.String, ForecastColumns[3]),
	)
	if df.Err != nil {
		return fmt.Errorf("build forecast frame: %w", df.Err)
	}
	return df.WriteCSV(w)
}

// Plot file names inside the output directory.
const (
	SeriesPlot        = "series.png"
	DecompositionPlot = "decomposition.png"
	ACFPlot           = "acf.png"
	PACFPlot          = "pacf.png"
	ResidualPlot      = "residuals.png"
	ResidualACFPlot   = "residuals_acf.png"
	HistogramPlot     = "residuals_hist.png"
	ForecastPlot      = "forecast.png"
)

// correlogramLags returns three seasonal cycles of lags, capped for short series.
func correlogramLags(n, period int) int {
	lags := 3 * max(period, 4)
	return max(min(lags, n/2), 1)
}

func renderPlots(dir string, s *timeseries.Series, model *sarima.Model, fc *sarima.Forecast, logger *log.Logger) ([]string, error) {
	var written []string
	render := func(name string, draw func(path string) error) error {
		path := filepath.Join(dir, name)
		if err := draw(path); err != nil {
			return fmt.Errorf("plot %s: %w", name, err)
		}
		written = append(written, path)
		return nil
	}

	period := model.Order.M
	lags := correlogramLags(s.Len(), period)
	resid := model.ResidualSeries()

	steps := []struct {
		name string
		draw func(string) error
	}{
		{SeriesPlot, func(p string) error {
			return plots.Series(p, s, fmt.Sprintf("Quarterly rice yield, %s", s.Name))
		}},
		{ACFPlot, func(p string) error {
			return plots.Correlogram(p, stats.ACFWithConfidence(s, lags), "Autocorrelation of yield")
		}},
		{PACFPlot, func(p string) error {
			return plots.Correlogram(p, stats.PACFWithConfidence(s, lags), "Partial autocorrelation of yield")
		}},
		{ResidualPlot, func(p string) error {
			return plots.Residuals(p, resid)
		}},
		{ResidualACFPlot, func(p string) error {
			return plots.Correlogram(p, stats.ACFWithConfidence(resid, correlogramLags(resid.Len(), period)), "Autocorrelation of residuals")
		}},
		{HistogramPlot, func(p string) error {
			return plots.Histogram(p, resid.Values)
		}},
		{ForecastPlot, func(p string) error {
			return plots.Forecast(p, s, model.FittedValues(), fc)
		}},
	}

	for _, st := range steps {
		if err := render(st.name, st.draw); err != nil {
			return written, err
		}
	}

	// Decomposition needs two full seasonal cycles.
	decomp, err := stats.Decompose(s, max(period, 2), stats.DecompositionAdditive)
	switch {
	case errors.Is(err, stats.ErrInsufficientData):
		logger.Printf("decomposition plot skipped: %v", err)
	case err != nil:
		return written, fmt.Errorf("decompose: %w", err)
	default:
		if err := render(DecompositionPlot, func(p string) error { return plots.Decomposition(p, decomp) }); err != nil {
			return written, err
		}
	}

	logger.Printf("rendered %d plots", len(written))
	return written, nil
}
