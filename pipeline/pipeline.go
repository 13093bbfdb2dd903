// Package pipeline runs the cleaning, modelling and forecasting workflow and
// writes its artefacts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/sartorproj/riceyield/autoarima"
	"github.com/sartorproj/riceyield/config"
	"github.com/sartorproj/riceyield/sarima"
	"github.com/sartorproj/riceyield/spreadsheet"
	"github.com/sartorproj/riceyield/stats"
	"github.com/sartorproj/riceyield/timeseries"
	"github.com/sartorproj/riceyield/yield"
)

// Artefact file names inside the output directory.
const (
	ForecastFile = "forecast.csv"
	ReportFile   = "report.yaml"
)

// minTrainQuarters is the shortest training part a holdout refit is tried on.
const minTrainQuarters = 12

// CleanResult is the outcome of the cleaning stage.
type CleanResult struct {
	Table *yield.Table
	Stats *spreadsheet.Stats // nil when the input was already a tidy CSV
	Path  string             // written CSV
}

// Clean reads the configured input and writes the tidy CSV.
func Clean(cfg *config.Config, logger *log.Logger) (*CleanResult, error) {
	logger = orDefault(logger)
	res, err := load(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	res.Path = filepath.Join(cfg.Output.Dir, cfg.Output.CSV)
	if err := writeFile(res.Path, func(f *os.File) error {
		return yield.WriteCSV(f, res.Table, cfg.Output.Precision)
	}); err != nil {
		return nil, err
	}
	logger.Printf("wrote %d records to %s", res.Table.Len(), res.Path)
	return res, nil
}

func load(cfg *config.Config, logger *log.Logger) (*CleanResult, error) {
	if cfg.Input.CSV != "" {
		f, err := os.Open(cfg.Input.CSV)
		if err != nil {
			return nil, fmt.Errorf("open csv: %w", err)
		}
		defer f.Close()
		table, err := yield.ReadCSV(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", cfg.Input.CSV, err)
		}
		table.Name = cfg.Input.Province
		logger.Printf("loaded %d records from %s", table.Len(), cfg.Input.CSV)
		return &CleanResult{Table: table}, nil
	}

	table, st, err := spreadsheet.Read(cfg.Input.Path, cfg.Layout())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", cfg.Input.Path, err)
	}
	if table.Len() == 0 {
		return nil, fmt.Errorf("read %s: %w", cfg.Input.Path, yield.ErrEmpty)
	}
	logger.Printf("loaded %d records for %s from %s (%d missing, %d annual columns skipped, %d duplicates)",
		table.Len(), table.Name, cfg.Input.Path, st.Missing, st.Skipped, st.Duplicates)
	return &CleanResult{Table: table, Stats: &st}, nil
}

func orDefault(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.New(os.Stderr, "", log.LstdFlags)
	}
	return logger
}

func checkpoint(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}
	return nil
}

// Run performs the full workflow and writes the cleaned CSV, the forecast
// CSV, the plots and the report into the output directory.
func Run(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger = orDefault(logger)

	cleaned, err := Clean(cfg, logger)
	if err != nil {
		return nil, err
	}
	table := cleaned.Table

	report := &Report{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Input:     inputName(cfg),
		Province:  table.Name,
		Records:   table.Len(),
		First:     table.First().Label(),
		Last:      table.Last().Label(),
		Cleaning:  cleaned.Stats,
		Artefacts: []string{cleaned.Path},
	}

	series, err := table.Series(cfg.Input.Interpolate)
	if err != nil {
		return nil, fmt.Errorf("build series: %w", err)
	}
	if series.Name == "" {
		series.Name = "Yield"
	}
	if gaps := table.Gaps(); len(gaps) > 0 {
		logger.Printf("interpolated %d missing quarters", len(gaps))
	}

	if err := checkpoint(ctx, "stationarity"); err != nil {
		return nil, err
	}
	search := cfg.Search()
	report.Stationarity = stationarity(series, search, logger)

	if err := checkpoint(ctx, "order search"); err != nil {
		return nil, err
	}
	search.D, search.SD = report.Stationarity.D, report.Stationarity.SD
	result, err := autoarima.Search(series, search)
	if err != nil {
		return nil, fmt.Errorf("order search: %w", err)
	}
	model := result.Model
	logger.Printf("selected SARIMA%s %s=%.3f (%d models, %d failed)",
		result.Order, search.Criterion, result.Criterion, result.ModelsEvaluated, len(result.Failed()))
	report.Model = modelReport(model, search.Criterion, result.Criterion)
	report.Search = searchReport(result, search.Criterion)

	report.Diagnostics = diagnostics(model, logger)

	if err := checkpoint(ctx, "holdout"); err != nil {
		return nil, err
	}
	report.Holdout = holdout(series, result, cfg.Forecast, logger)

	if err := checkpoint(ctx, "forecast"); err != nil {
		return nil, err
	}
	fc, err := model.Forecast(cfg.Forecast.Horizon, cfg.Forecast.Level)
	if err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}
	report.Forecast = forecastRows(fc)
	fcPath := filepath.Join(cfg.Output.Dir, ForecastFile)
	if err := writeFile(fcPath, func(f *os.File) error {
		return WriteForecastCSV(f, fc, cfg.Output.Precision)
	}); err != nil {
		return nil, err
	}
	report.Artefacts = append(report.Artefacts, fcPath)
	logger.Printf("forecast %d quarters from %s to %s", len(fc.Point),
		fc.Timestamps[0].Format(yield.DateLayout), fc.Timestamps[len(fc.Timestamps)-1].Format(yield.DateLayout))

	if cfg.Output.Plots {
		if err := checkpoint(ctx, "plots"); err != nil {
			return nil, err
		}
		written, err := renderPlots(cfg.Output.Dir, series, model, fc, logger)
		if err != nil {
			return nil, err
		}
		report.Artefacts = append(report.Artefacts, written...)
	}

	reportPath := filepath.Join(cfg.Output.Dir, ReportFile)
	report.Artefacts = append(report.Artefacts, reportPath)
	if err := WriteReport(reportPath, report); err != nil {
		return nil, err
	}
	logger.Printf("run %s wrote %d artefacts to %s", report.RunID, len(report.Artefacts), cfg.Output.Dir)
	return report, nil
}

func inputName(cfg *config.Config) string {
	if cfg.Input.CSV != "" {
		return cfg.Input.CSV
	}
	return cfg.Input.Path
}

// stationarity tests the raw series, chooses the differencing orders the
// search will use, and tests the differenced series.
func stationarity(series *timeseries.Series, search *autoarima.Config, logger *log.Logger) StationarityReport {
	var rep StationarityReport
	rep.Raw = testPair(series)

	rep.SD = search.SD
	if search.Seasonal && rep.SD < 0 {
		rep.SD = stats.NSDiffs(series, search.M, search.MaxSD)
	}
	rep.SD = max(rep.SD, 0)

	w := series
	for i := 0; i < rep.SD; i++ {
		w = w.SeasonalDiff(search.M)
	}
	rep.D = search.D
	if rep.D < 0 {
		rep.D = stats.NDiffs(w, search.MaxD, search.StationTest)
	}
	w = w.DiffN(rep.D)

	if rep.D+rep.SD > 0 {
		pair := testPair(w)
		rep.Differenced = &pair
	}

	logf := func(name string, pair TestPair) {
		if pair.ADF != nil && pair.KPSS != nil {
			logger.Printf("%s: ADF p=%.3f, KPSS p=%.3f", name, pair.ADF.PValue, pair.KPSS.PValue)
		}
	}
	logf("raw series", rep.Raw)
	if rep.Differenced != nil {
		logf("differenced series", *rep.Differenced)
	}
	logger.Printf("differencing d=%d D=%d", rep.D, rep.SD)
	return rep
}

func testPair(s *timeseries.Series) TestPair {
	var pair TestPair
	if adf, err := stats.ADF(s, stats.DefaultADFOptions()); err == nil {
		pair.ADF = adfReport(adf)
	}
	if kpss, err := stats.KPSS(s, stats.RegressionConstant, 0); err == nil {
		pair.KPSS = kpssReport(kpss)
	}
	return pair
}

func diagnostics(model *sarima.Model, logger *log.Logger) DiagnosticsReport {
	resid := model.Residuals()
	rep := DiagnosticsReport{DurbinWatson: stats.DurbinWatson(resid)}

	if summary := model.Summary(); summary != nil {
		rep.LjungBox = ljungBoxReport(summary.LjungBox)
	}
	if jb, err := stats.JarqueBera(resid); err == nil {
		rep.JarqueBera = jarqueBeraReport(jb)
	}

	if rep.LjungBox != nil {
		verdict := "white noise"
		if !rep.LjungBox.Passed {
			verdict = "autocorrelated"
		}
		logger.Printf("residuals: Ljung-Box Q=%.3f p=%.3f (%s)", rep.LjungBox.Statistic, rep.LjungBox.PValue, verdict)
	}
	if rep.JarqueBera != nil {
		logger.Printf("residuals: Jarque-Bera p=%.3f", rep.JarqueBera.PValue)
	}
	return rep
}

// holdout refits the selected order on all but the last quarters and scores
// its forecasts against them. It returns nil when there is too little data.
func holdout(series *timeseries.Series, result *autoarima.Result, fc config.ForecastConfig, logger *log.Logger) *AccuracyReport {
	h := fc.Holdout
	n := series.Len()
	if h <= 0 {
		return nil
	}
	if n-h < minTrainQuarters {
		logger.Printf("holdout skipped: %d quarters leave fewer than %d for training", h, minTrainQuarters)
		return nil
	}

	train := series.Slice(0, n-h)
	test := series.Slice(n-h, n)

	model := sarima.NewFromOrder(result.Order, sarima.WithConditioning(result.Conditioning))
	if err := model.Fit(train); err != nil {
		logger.Printf("holdout skipped: %v", err)
		return nil
	}
	pred, err := model.Predict(h)
	if err != nil {
		logger.Printf("holdout skipped: %v", err)
		return nil
	}

	acc := stats.Accuracy(test.Values, pred)
	logger.Printf("holdout of %d quarters: RMSE=%.4f MAE=%.4f MAPE=%.2f%%", h, acc.RMSE, acc.MAE, acc.MAPE)
	return &AccuracyReport{
		Train: train.Len(),
		Test:  acc.N,
		RMSE:  acc.RMSE,
		MAE:   acc.MAE,
		MAPE:  acc.MAPE,
	}
}

func forecastRows(fc *sarima.Forecast) []ForecastRow {
	rows := make([]ForecastRow, len(fc.Point))
	for i := range rows {
		rows[i] = ForecastRow{
			Forecast: fc.Point[i],
			Lower:    fc.Lower[i],
			Upper:    fc.Upper[i],
		}
		if fc.Timestamps != nil {
			rows[i].Date = fc.Timestamps[i].Format(yield.DateLayout)
		}
	}
	return rows
}

// writeFile creates path and closes it after write, keeping the first error.
func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Cancelled reports whether err came from a cancelled run.
func Cancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
