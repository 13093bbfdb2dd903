package pipeline

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sartorproj/riceyield/autoarima"
	"github.com/sartorproj/riceyield/sarima"
	"github.com/sartorproj/riceyield/spreadsheet"
	"github.com/sartorproj/riceyield/stats"
)

// Report is the record of one run, written as report.yaml.
type Report struct {
	RunID     string    `yaml:"runId"`
	CreatedAt time.Time `yaml:"createdAt"`
	Input     string    `yaml:"input"`
	Province  string    `yaml:"province"`
	Records   int       `yaml:"records"`
	First     string    `yaml:"first"`
	Last      string    `yaml:"last"`

	Cleaning     *spreadsheet.Stats `yaml:"cleaning,omitempty"`
	Stationarity StationarityReport `yaml:"stationarity"`
	Model        ModelReport        `yaml:"model"`
	Search       SearchReport       `yaml:"search"`
	Diagnostics  DiagnosticsReport  `yaml:"diagnostics"`
	Holdout      *AccuracyReport    `yaml:"holdout,omitempty"`
	Forecast     []ForecastRow      `yaml:"forecast"`
	Artefacts    []string           `yaml:"artefacts"`
}

// StationarityReport holds unit-root tests before and after differencing.
type StationarityReport struct {
	D           int       `yaml:"d"`
	SD          int       `yaml:"sd"`
	Raw         TestPair  `yaml:"raw"`
	Differenced *TestPair `yaml:"differenced,omitempty"`
}

// TestPair holds an ADF and a KPSS result for the same series.
type TestPair struct {
	ADF  *TestReport `yaml:"adf,omitempty"`
	KPSS *TestReport `yaml:"kpss,omitempty"`
}

// TestReport is a single hypothesis test outcome.
type TestReport struct {
	Statistic float64 `yaml:"statistic"`
	PValue    float64 `yaml:"pValue"`
	Lags      int     `yaml:"lags,omitempty"`
	Passed    bool    `yaml:"passed"` // stationary, white noise or normal
}

// ModelReport describes the selected model.
type ModelReport struct {
	Order     string     `yaml:"order"`
	Criterion string     `yaml:"criterion"`
	Value     float64    `yaml:"value"`
	AIC       float64    `yaml:"aic"`
	AICc      float64    `yaml:"aicc"`
	BIC       float64    `yaml:"bic"`
	LogLik    float64    `yaml:"logLik"`
	Sigma2    float64    `yaml:"sigma2"`
	NObs      int        `yaml:"nObs"`
	Converged bool       `yaml:"converged"`
	Coeffs    []CoeffRow `yaml:"coefficients"`
}

// CoeffRow is one estimated coefficient with its standard error.
type CoeffRow struct {
	Name     string  `yaml:"name"`
	Estimate float64 `yaml:"estimate"`
	StdErr   float64 `yaml:"stdErr"`
}

// SearchReport summarises the order search trace.
type SearchReport struct {
	Evaluated    int            `yaml:"evaluated"`
	Failed       int            `yaml:"failed"`
	Conditioning int            `yaml:"conditioning"`
	Best         []CandidateRow `yaml:"best"`
}

// CandidateRow is a fitted candidate from the search.
type CandidateRow struct {
	Order string  `yaml:"order"`
	AIC   float64 `yaml:"aic"`
	AICc  float64 `yaml:"aicc"`
	BIC   float64 `yaml:"bic"`
}

// DiagnosticsReport holds residual checks of the final model.
type DiagnosticsReport struct {
	LjungBox     *TestReport `yaml:"ljungBox,omitempty"`
	JarqueBera   *TestReport `yaml:"jarqueBera,omitempty"`
	DurbinWatson float64     `yaml:"durbinWatson"`
}

// AccuracyReport holds holdout errors of the model refit on the training part.
type AccuracyReport struct {
	Train int     `yaml:"train"`
	Test  int     `yaml:"test"`
	RMSE  float64 `yaml:"rmse"`
	MAE   float64 `yaml:"mae"`
	MAPE  float64 `yaml:"mape"`
}

// ForecastRow is one forecast quarter.
type ForecastRow struct {
	Date     string  `yaml:"date"`
	Forecast float64 `yaml:"forecast"`
	Lower    float64 `yaml:"lower"`
	Upper    float64 `yaml:"upper"`
}

// reportTopCandidates is the number of candidates listed in the report.
const reportTopCandidates = 5

func adfReport(r *stats.ADFResult) *TestReport {
	if r == nil {
		return nil
	}
	return &TestReport{Statistic: r.Statistic, PValue: r.PValue, Lags: r.Lags, Passed: r.IsStationary}
}

func kpssReport(r *stats.KPSSResult) *TestReport {
	if r == nil {
		return nil
	}
	return &TestReport{Statistic: r.Statistic, PValue: r.PValue, Lags: r.Lags, Passed: r.IsStationary}
}

func ljungBoxReport(r *stats.LjungBoxResult) *TestReport {
	if r == nil {
		return nil
	}
	return &TestReport{Statistic: r.Statistic, PValue: r.PValue, Lags: r.Lags, Passed: r.IsWhiteNoise}
}

func jarqueBeraReport(r *stats.JarqueBeraResult) *TestReport {
	if r == nil {
		return nil
	}
	return &TestReport{Statistic: r.Statistic, PValue: r.PValue, Passed: r.IsNormal}
}

func modelReport(m *sarima.Model, criterion string, value float64) ModelReport {
	rep := ModelReport{
		Order:     "SARIMA" + m.Order.String(),
		Criterion: criterion,
		Value:     value,
		AIC:       m.AIC,
		AICc:      m.AICc,
		BIC:       m.BIC,
		LogLik:    m.LogLik,
		Sigma2:    m.Variance,
		NObs:      m.NObs,
		Converged: m.Converged,
	}
	add := func(prefix string, est, se []float64) {
		for i := range est {
			rep.Coeffs = append(rep.Coeffs, CoeffRow{
				Name:     fmt.Sprintf("%s%d", prefix, i+1),
				Estimate: est[i],
				StdErr:   se[i],
			})
		}
	}
	add("ar", m.ARCoeffs, m.StdErrors.AR)
	add("ma", m.MACoeffs, m.StdErrors.MA)
	add("sar", m.SARCoeffs, m.StdErrors.SAR)
	add("sma", m.SMACoeffs, m.StdErrors.SMA)
	if m.Order.D+m.Order.SD == 0 {
		rep.Coeffs = append(rep.Coeffs, CoeffRow{Name: "mean", Estimate: m.Mean, StdErr: m.StdErrors.Mean})
	}
	return rep
}

func searchReport(r *autoarima.Result, criterion string) SearchReport {
	rep := SearchReport{
		Evaluated:    r.ModelsEvaluated,
		Failed:       len(r.Failed()),
		Conditioning: r.Conditioning,
	}

	var fitted []autoarima.Candidate
	for _, c := range r.Candidates {
		if c.Err == nil {
			fitted = append(fitted, c)
		}
	}
	sort.SliceStable(fitted, func(i, j int) bool {
		return candidateValue(fitted[i], criterion) < candidateValue(fitted[j], criterion)
	})
	for i := 0; i < len(fitted) && i < reportTopCandidates; i++ {
		c := fitted[i]
		rep.Best = append(rep.Best, CandidateRow{Order: c.Order.String(), AIC: c.AIC, AICc: c.AICc, BIC: c.BIC})
	}
	return rep
}

func candidateValue(c autoarima.Candidate, criterion string) float64 {
	switch criterion {
	case autoarima.CriterionAIC:
		return c.AIC
	case autoarima.CriterionBIC:
		return c.BIC
	}
	return c.AICc
}

// WriteReport writes the report as YAML.
func WriteReport(path string, r *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		f.Close()
		return fmt.Errorf("encode report: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("encode report: %w", err)
	}
	return f.Close()
}

// ReadReport reads a report written by WriteReport.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}
