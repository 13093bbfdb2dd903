// Package config loads and validates the run configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sartorproj/riceyield/autoarima"
	"github.com/sartorproj/riceyield/spreadsheet"
	"github.com/sartorproj/riceyield/stats"
)

// ErrInvalid is returned by Validate for an unusable configuration.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full run configuration.
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
	Model    ModelConfig    `yaml:"model"`
	Forecast ForecastConfig `yaml:"forecast"`
}

// InputConfig locates the yield figures in the workbook.
type InputConfig struct {
	Path        string `yaml:"path"`        // .xlsx workbook
	CSV         string `yaml:"csv"`         // tidy CSV, used instead of Path when set
	Sheet       string `yaml:"sheet"`       // empty selects the first sheet
	YearRow     int    `yaml:"yearRow"`     // 1-based
	PeriodRow   int    `yaml:"periodRow"`   // 1-based
	YieldRow    int    `yaml:"yieldRow"`    // 0 finds the row by Province
	Province    string `yaml:"province"`
	Interpolate bool   `yaml:"interpolate"` // fill missing quarters linearly
}

// OutputConfig controls the written artefacts.
type OutputConfig struct {
	Dir       string `yaml:"dir"`
	CSV       string `yaml:"csv"`       // cleaned table file name
	Precision int32  `yaml:"precision"` // decimals written for yields
	Plots     bool   `yaml:"plots"`
}

// ModelConfig drives differencing and the order search.
type ModelConfig struct {
	Period      int    `yaml:"period"`
	Seasonal    bool   `yaml:"seasonal"`
	MaxP        int    `yaml:"maxP"`
	MaxQ        int    `yaml:"maxQ"`
	MaxSP       int    `yaml:"maxSP"`
	MaxSQ       int    `yaml:"maxSQ"`
	MaxD        int    `yaml:"maxD"`
	MaxSD       int    `yaml:"maxSD"`
	MaxOrder    int    `yaml:"maxOrder"`
	Criterion   string `yaml:"criterion"`   // aic, aicc or bic
	Stepwise    bool   `yaml:"stepwise"`
	StationTest string `yaml:"stationTest"` // adf or kpss
	D           int    `yaml:"d"`           // -1 chooses from the data
	SD          int    `yaml:"sd"`          // -1 chooses from the data
}

// ForecastConfig sets the horizon and evaluation window.
type ForecastConfig struct {
	Horizon int     `yaml:"horizon"` // quarters ahead
	Level   float64 `yaml:"level"`   // prediction interval coverage
	Holdout int     `yaml:"holdout"` // trailing quarters held back for accuracy; 0 disables
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	search := autoarima.DefaultConfig()
	return &Config{
		Input: InputConfig{
			YearRow:   1,
			PeriodRow: 2,
			YieldRow:  3,
		},
		Output: OutputConfig{
			Dir:       "out",
			CSV:       "rice_yield_clean.csv",
			Precision: 2,
			Plots:     true,
		},
		Model: ModelConfig{
			Period:      search.M,
			Seasonal:    search.Seasonal,
			MaxP:        search.MaxP,
			MaxQ:        search.MaxQ,
			MaxSP:       search.MaxSP,
			MaxSQ:       search.MaxSQ,
			MaxD:        search.MaxD,
			MaxSD:       search.MaxSD,
			MaxOrder:    search.MaxOrder,
			Criterion:   search.Criterion,
			Stepwise:    search.Stepwise,
			StationTest: search.StationTest,
			D:           search.D,
			SD:          search.SD,
		},
		Forecast: ForecastConfig{
			Horizon: 8,
			Level:   0.95,
			Holdout: 8,
		},
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// A province without an explicit yieldRow is located by label, not by
	// the default row number.
	if cfg.Input.Province != "" {
		var explicit struct {
			Input struct {
				YieldRow *int `yaml:"yieldRow"`
			} `yaml:"input"`
		}
		if err := yaml.Unmarshal(data, &explicit); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		if explicit.Input.YieldRow == nil {
			cfg.Input.YieldRow = 0
		}
	}
	return cfg, nil
}

// Validate checks the configuration before a run.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Input.Path == "" && c.Input.CSV == "" {
		add("input.path or input.csv is required")
	}
	if c.Input.CSV == "" {
		if c.Input.YearRow < 1 || c.Input.PeriodRow < 1 {
			add("input.yearRow and input.periodRow must be at least 1")
		}
		if c.Input.YieldRow < 1 && c.Input.Province == "" {
			add("input.yieldRow or input.province is required")
		}
	}
	if c.Output.Dir == "" {
		add("output.dir is required")
	}
	if c.Output.Precision < 0 || c.Output.Precision > 10 {
		add("output.precision must be between 0 and 10, got %d", c.Output.Precision)
	}
	switch c.Model.Criterion {
	case autoarima.CriterionAIC, autoarima.CriterionAICc, autoarima.CriterionBIC:
	default:
		add("model.criterion must be aic, aicc or bic, got %q", c.Model.Criterion)
	}
	switch c.Model.StationTest {
	case stats.StationTestADF, stats.StationTestKPSS:
	default:
		add("model.stationTest must be adf or kpss, got %q", c.Model.StationTest)
	}
	if c.Model.Seasonal && c.Model.Period < 2 {
		add("model.period must be at least 2 for a seasonal model, got %d", c.Model.Period)
	}
	if c.Model.D > c.Model.MaxD || c.Model.SD > c.Model.MaxSD {
		add("model.d and model.sd must not exceed model.maxD and model.maxSD")
	}
	if c.Forecast.Horizon < 1 {
		add("forecast.horizon must be at least 1, got %d", c.Forecast.Horizon)
	}
	if c.Forecast.Level <= 0 || c.Forecast.Level >= 1 {
		add("forecast.level must be in (0, 1), got %g", c.Forecast.Level)
	}
	if c.Forecast.Holdout < 0 {
		add("forecast.holdout must not be negative, got %d", c.Forecast.Holdout)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Layout returns the workbook layout.
func (c *Config) Layout() spreadsheet.Layout {
	return spreadsheet.Layout{
		Sheet:     c.Input.Sheet,
		YearRow:   c.Input.YearRow,
		PeriodRow: c.Input.PeriodRow,
		YieldRow:  c.Input.YieldRow,
		Province:  c.Input.Province,
	}
}

// Search returns the order search configuration.
func (c *Config) Search() *autoarima.Config {
	m := c.Model
	return &autoarima.Config{
		MaxP:        m.MaxP,
		MaxD:        m.MaxD,
		MaxQ:        m.MaxQ,
		MaxSP:       m.MaxSP,
		MaxSD:       m.MaxSD,
		MaxSQ:       m.MaxSQ,
		MaxOrder:    m.MaxOrder,
		M:           m.Period,
		Seasonal:    m.Seasonal,
		Stepwise:    m.Stepwise,
		Criterion:   m.Criterion,
		StationTest: m.StationTest,
		D:           m.D,
		SD:          m.SD,
	}
}
