// Package autoarima implements automatic SARIMA model selection.
package autoarima

import (
	"errors"
	"fmt"
	"math"

	"github.com/sartorproj/riceyield/sarima"
	"github.com/sartorproj/riceyield/stats"
	"github.com/sartorproj/riceyield/timeseries"
)

// Information criteria accepted by Config.Criterion.
const (
	CriterionAIC  = "aic"
	CriterionAICc = "aicc"
	CriterionBIC  = "bic"
)

// ErrNoModel is returned when no candidate order could be fitted.
var ErrNoModel = errors.New("no candidate model could be fitted")

// errDegenerate marks a fit whose criterion is not finite.
var errDegenerate = errors.New("degenerate fit")

// maxStepwiseModels bounds the stepwise search.
const maxStepwiseModels = 94

// Config holds configuration for the order search.
type Config struct {
	MaxP     int // Maximum AR order (default: 3)
	MaxD     int // Maximum differencing order (default: 2)
	MaxQ     int // Maximum MA order (default: 3)
	MaxSP    int // Maximum seasonal AR order (default: 2)
	MaxSD    int // Maximum seasonal differencing order (default: 1)
	MaxSQ    int // Maximum seasonal MA order (default: 2)
	MaxOrder int // Maximum p+q+P+Q (default: 5)

	M        int  // Seasonal period (default: 4)
	Seasonal bool // Whether to consider seasonal models
	Stepwise bool // Use stepwise search instead of exhaustive

	Criterion   string // "aic", "aicc" (default) or "bic"
	StationTest string // Stationarity test for d: "adf" (default) or "kpss"

	// D and SD fix the differencing orders; -1 chooses them from the data.
	D  int
	SD int
}

// DefaultConfig returns the default configuration for quarterly data.
func DefaultConfig() *Config {
	return &Config{
		MaxP:        3,
		MaxD:        2,
		MaxQ:        3,
		MaxSP:       2,
		MaxSD:       1,
		MaxSQ:       2,
		MaxOrder:    5,
		M:           4,
		Seasonal:    true,
		Stepwise:    true,
		Criterion:   CriterionAICc,
		StationTest: stats.StationTestADF,
		D:           -1,
		SD:          -1,
	}
}

func (c *Config) validate() error {
	switch c.Criterion {
	case CriterionAIC, CriterionAICc, CriterionBIC:
	default:
		return fmt.Errorf("autoarima: unknown criterion %q", c.Criterion)
	}
	if c.MaxP < 0 || c.MaxQ < 0 || c.MaxSP < 0 || c.MaxSQ < 0 || c.MaxD < 0 || c.MaxSD < 0 {
		return errors.New("autoarima: maximum orders must not be negative")
	}
	if c.Seasonal && c.M < 2 {
		return fmt.Errorf("autoarima: seasonal search needs a period of at least 2, got %d", c.M)
	}
	return nil
}

// Candidate is one entry of the search trace.
type Candidate struct {
	Order sarima.Order
	AIC   float64
	AICc  float64
	BIC   float64
	Err   error // non-nil when the order could not be fitted
}

// Result represents the result of model selection.
type Result struct {
	Model     *sarima.Model
	Order     sarima.Order
	Criterion float64 // value of the configured criterion for Model

	// Conditioning is the number of leading differenced observations every
	// candidate was conditioned on.
	Conditioning int

	Candidates      []Candidate // in evaluation order
	ModelsEvaluated int         // candidates that fitted successfully
}

// Search selects the differencing orders from the data and then the SARIMA
// order minimising the configured criterion.
func Search(series *timeseries.Series, config *Config) (*Result, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	m := max(config.M, 0)

	sd := 0
	if config.Seasonal {
		sd = config.SD
		if sd < 0 {
			sd = stats.NSDiffs(series, m, config.MaxSD)
		}
	}

	d := config.D
	if d < 0 {
		w := series
		for i := 0; i < sd; i++ {
			w = w.SeasonalDiff(m)
		}
		d = stats.NDiffs(w, config.MaxD, config.StationTest)
	}

	s := &searcher{
		series:  series,
		config:  config,
		d:       d,
		sd:      sd,
		m:       m,
		visited: make(map[sarima.Order]bool),
		best:    math.Inf(1),
	}
	s.conditioning = config.MaxP
	if config.Seasonal {
		s.conditioning += config.MaxSP * m
	}

	if config.Stepwise {
		s.stepwise()
	} else {
		s.grid()
	}

	if s.bestModel == nil {
		return nil, fmt.Errorf("%w: %d candidates tried with d=%d, D=%d", ErrNoModel, len(s.trace), d, sd)
	}

	return &Result{
		Model:           s.bestModel,
		Order:           s.bestModel.Order,
		Criterion:       s.best,
		Conditioning:    s.conditioning,
		Candidates:      s.trace,
		ModelsEvaluated: s.evaluated,
	}, nil
}

// searcher carries the state shared by the stepwise and grid searches.
type searcher struct {
	series       *timeseries.Series
	config       *Config
	d, sd, m     int
	conditioning int

	visited   map[sarima.Order]bool
	trace     []Candidate
	evaluated int
	best      float64
	bestModel *sarima.Model
}

func (s *searcher) order(p, q, sp, sq int) sarima.Order {
	return sarima.Order{P: p, D: s.d, Q: q, SP: sp, SD: s.sd, SQ: sq, M: s.m}
}

func (s *searcher) allowed(o sarima.Order) bool {
	c := s.config
	if o.P < 0 || o.Q < 0 || o.SP < 0 || o.SQ < 0 {
		return false
	}
	if o.P > c.MaxP || o.Q > c.MaxQ {
		return false
	}
	if !c.Seasonal && (o.SP > 0 || o.SQ > 0) {
		return false
	}
	if o.SP > c.MaxSP || o.SQ > c.MaxSQ {
		return false
	}
	return c.MaxOrder <= 0 || o.NumARMA() <= c.MaxOrder
}

// try fits o once and reports whether it became the new best model.
func (s *searcher) try(o sarima.Order) bool {
	if !s.allowed(o) || s.visited[o] {
		return false
	}
	s.visited[o] = true

	model := sarima.NewFromOrder(o, sarima.WithConditioning(s.conditioning))
	cand := Candidate{Order: o}
	if err := model.Fit(s.series); err != nil {
		cand.Err = err
		s.trace = append(s.trace, cand)
		return false
	}
	cand.AIC, cand.AICc, cand.BIC = model.AIC, model.AICc, model.BIC

	value := s.criterion(model)
	if math.IsNaN(value) || math.IsInf(value, 0) {
		cand.Err = fmt.Errorf("%w: %s = %v", errDegenerate, s.config.Criterion, value)
		s.trace = append(s.trace, cand)
		return false
	}
	s.trace = append(s.trace, cand)
	s.evaluated++

	if value < s.best {
		s.best = value
		s.bestModel = model
		return true
	}
	return false
}

func (s *searcher) criterion(model *sarima.Model) float64 {
	switch s.config.Criterion {
	case CriterionAIC:
		return model.AIC
	case CriterionBIC:
		return model.BIC
	}
	return model.AICc
}

// stepwise runs the Hyndman-Khandakar search: four starting models, then
// moves to the best neighbour until no neighbour improves the criterion.
func (s *searcher) stepwise() {
	starts := [][4]int{{2, 2, 1, 1}, {0, 0, 0, 0}, {1, 0, 1, 0}, {0, 1, 0, 1}}
	for _, st := range starts {
		sp, sq := st[2], st[3]
		if !s.config.Seasonal {
			sp, sq = 0, 0
		}
		s.try(s.order(min(st[0], s.config.MaxP), min(st[1], s.config.MaxQ),
			min(sp, s.config.MaxSP), min(sq, s.config.MaxSQ)))
	}

	for s.bestModel != nil && len(s.trace) < maxStepwiseModels {
		o := s.bestModel.Order
		improved := false
		for _, step := range neighbourSteps {
			n := s.order(o.P+step[0], o.Q+step[1], o.SP+step[2], o.SQ+step[3])
			if s.try(n) {
				improved = true
			}
			if len(s.trace) >= maxStepwiseModels {
				break
			}
		}
		if !improved {
			return
		}
	}
}

// neighbourSteps are the moves applied to (p, q, P, Q) from the current best.
var neighbourSteps = [][4]int{
	{0, 0, -1, 0}, {0, 0, 1, 0},
	{0, 0, 0, -1}, {0, 0, 0, 1},
	{0, 0, -1, -1}, {0, 0, 1, 1},
	{-1, 0, 0, 0}, {1, 0, 0, 0},
	{0, -1, 0, 0}, {0, 1, 0, 0},
	{-1, -1, 0, 0}, {1, 1, 0, 0},
	{-1, 1, 0, 0}, {1, -1, 0, 0},
}

// grid fits every allowed order.
func (s *searcher) grid() {
	maxSP, maxSQ := s.config.MaxSP, s.config.MaxSQ
	if !s.config.Seasonal {
		maxSP, maxSQ = 0, 0
	}
	for p := 0; p <= s.config.MaxP; p++ {
		for q := 0; q <= s.config.MaxQ; q++ {
			for sp := 0; sp <= maxSP; sp++ {
				for sq := 0; sq <= maxSQ; sq++ {
					s.try(s.order(p, q, sp, sq))
				}
			}
		}
	}
}

// Forecast forecasts with the selected model.
func (r *Result) Forecast(steps int, level float64) (*sarima.Forecast, error) {
	if r == nil || r.Model == nil {
		return nil, ErrNoModel
	}
	return r.Model.Forecast(steps, level)
}

// Failed returns the candidates that could not be fitted.
func (r *Result) Failed() []Candidate {
	var out []Candidate
	for _, c := range r.Candidates {
		if c.Err != nil {
			out = append(out, c)
		}
	}
	return out
}
