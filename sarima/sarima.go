// Package sarima implements Seasonal ARIMA (SARIMA) models.
package sarima

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/sartorproj/riceyield/stats"
	"github.com/sartorproj/riceyield/timeseries"
)

var (
	// ErrInvalidOrder is returned for negative orders or a seasonal part without a period.
	ErrInvalidOrder = errors.New("invalid model order")
	// ErrInsufficientData is returned when the series is too short for the order.
	ErrInsufficientData = errors.New("insufficient data points for the specified order")
	// ErrNotFitted is returned when a model is used before Fit.
	ErrNotFitted = errors.New("model must be fitted first")
)

// Order represents SARIMA model order (p, d, q) x (P, D, Q, m).
type Order struct {
	P int // Non-seasonal AR order
	D int // Non-seasonal differencing order
	Q int // Non-seasonal MA order
	// Seasonal components
	SP int // Seasonal AR order
	SD int // Seasonal differencing order
	SQ int // Seasonal MA order
	M  int // Seasonal period (4 for quarterly data)
}

// String formats the order as (p,d,q)(P,D,Q)[m].
func (o Order) String() string {
	return fmt.Sprintf("(%d,%d,%d)(%d,%d,%d)[%d]", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.M)
}

// NumARMA returns the number of AR and MA coefficients, p+q+P+Q.
func (o Order) NumARMA() int {
	return o.P + o.Q + o.SP + o.SQ
}

// Seasonal reports whether the order has any seasonal component.
func (o Order) Seasonal() bool {
	return o.SP+o.SD+o.SQ > 0
}

// Validate checks that the order can be fitted.
func (o Order) Validate() error {
	if o.P < 0 || o.D < 0 || o.Q < 0 || o.SP < 0 || o.SD < 0 || o.SQ < 0 || o.M < 0 {
		return fmt.Errorf("%w: %s has a negative term", ErrInvalidOrder, o)
	}
	if o.Seasonal() && o.M < 2 {
		return fmt.Errorf("%w: %s has seasonal terms without a period", ErrInvalidOrder, o)
	}
	return nil
}

// StdErrors holds approximate standard errors of the estimated coefficients.
// Entries are NaN when the curvature of the objective could not be inverted.
type StdErrors struct {
	AR   []float64
	MA   []float64
	SAR  []float64
	SMA  []float64
	Mean float64
}

// Option configures a Model.
type Option func(*Model)

// WithMean forces the mean of the differenced series to be estimated (or
// not). By default a mean is estimated only when no differencing is applied.
func WithMean(include bool) Option {
	return func(m *Model) {
		m.includeMean = &include
	}
}

// WithConditioning excludes at least k leading observations of the
// differenced series from the sum of squares. Models conditioned on the same
// k are scored on the same observations and so have comparable criteria.
func WithConditioning(k int) Option {
	return func(m *Model) {
		m.conditioning = max(k, 0)
	}
}

// Model represents a SARIMA model.
type Model struct {
	Order     Order
	ARCoeffs  []float64 // Non-seasonal AR coefficients
	MACoeffs  []float64 // Non-seasonal MA coefficients
	SARCoeffs []float64 // Seasonal AR coefficients
	SMACoeffs []float64 // Seasonal MA coefficients
	Mean      float64   // Mean of the differenced series; 0 unless estimated
	Variance  float64   // Innovation variance
	AIC       float64
	AICc      float64 // Corrected AIC for small sample sizes
	BIC       float64
	LogLik    float64
	NObs      int  // Observations contributing to the sum of squares
	Converged bool // Whether the optimiser reported convergence
	StdErrors StdErrors

	includeMean  *bool
	conditioning int
	fitted       bool
	meanFitted   bool
	data         *timeseries.Series
	diffData     []float64
	start        int       // first index of diffData in the sum of squares
	residuals    []float64 // aligned with diffData; zero before start
	arRec        []float64 // expanded AR recursion coefficients
	maRec        []float64 // expanded MA recursion coefficients
}

// New creates a new SARIMA model with the specified order.
func New(p, d, q, sp, sd, sq, m int, opts ...Option) *Model {
	return NewFromOrder(Order{P: p, D: d, Q: q, SP: sp, SD: sd, SQ: sq, M: m}, opts...)
}

// NewFromOrder creates a new SARIMA model from an Order.
func NewFromOrder(order Order, opts ...Option) *Model {
	model := &Model{Order: order}
	for _, opt := range opts {
		opt(model)
	}
	return model
}

// Fit fits the SARIMA model to the given time series data by conditional sum
// of squares. AR factors are kept stationary and MA factors invertible.
func (m *Model) Fit(series *timeseries.Series) error {
	if err := m.Order.Validate(); err != nil {
		return err
	}

	diffSeries := series
	for i := 0; i < m.Order.D; i++ {
		diffSeries = diffSeries.Diff()
	}
	for i := 0; i < m.Order.SD; i++ {
		diffSeries = diffSeries.SeasonalDiff(m.Order.M)
	}

	m.meanFitted = m.Order.D+m.Order.SD == 0
	if m.includeMean != nil {
		m.meanFitted = *m.includeMean
	}

	arLag := m.Order.P + m.Order.SP*m.Order.M
	m.start = max(arLag, m.conditioning)
	nParams := m.numParams()
	nEff := diffSeries.Len() - m.start
	if nEff < nParams+3 {
		return fmt.Errorf("%w: %s needs more than %d observations after differencing, have %d",
			ErrInsufficientData, m.Order, m.start+nParams+2, diffSeries.Len())
	}

	m.data = series
	m.diffData = diffSeries.Values

	x0 := m.initialParams(diffSeries)
	if len(x0) == 0 {
		m.Converged = true
	} else {
		problem := optimize.Problem{
			Func: func(x []float64) float64 {
				return m.objective(m.unpack(x))
			},
		}
		settings := &optimize.Settings{
			FuncEvaluations: 20000,
			Converger: &optimize.FunctionConverge{
				Absolute:   1e-10,
				Relative:   1e-10,
				Iterations: 200,
			},
		}
		result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{SimplexSize: 0.25})
		if result == nil {
			return fmt.Errorf("sarima %s: optimisation failed: %w", m.Order, err)
		}
		m.Converged = err == nil && result.Status == optimize.FunctionConvergence
		x0 = result.X
	}

	params := m.unpack(x0)
	m.setParams(params)
	sse := m.computeResiduals()

	m.NObs = nEff
	m.Variance = sse / float64(nEff)
	if m.Variance > 0 {
		m.LogLik = -float64(nEff) / 2 * (math.Log(2*math.Pi*m.Variance) + 1)
	} else {
		m.LogLik = math.Inf(1)
	}

	ic := stats.CalculateIC(m.LogLik, nEff, nParams+1)
	m.AIC, m.AICc, m.BIC = ic.AIC, ic.AICc, ic.BIC

	m.StdErrors = m.stdErrors(params)
	m.fitted = true
	return nil
}

func (m *Model) numParams() int {
	k := m.Order.NumARMA()
	if m.meanFitted {
		k++
	}
	return k
}

// initialParams returns the unconstrained starting point: AR partial
// autocorrelations from the sample PACF, MA terms at zero.
func (m *Model) initialParams(w *timeseries.Series) []float64 {
	o := m.Order
	x := make([]float64, 0, m.numParams())

	maxLag := max(o.P, o.SP*o.M)
	var pacf []float64
	if maxLag > 0 && maxLag < w.Len() {
		pacf = stats.PACF(w, maxLag)
	}
	start := func(lag int) float64 {
		if lag >= len(pacf) {
			return 0
		}
		r := math.Max(-0.9, math.Min(0.9, 0.5*pacf[lag]))
		return math.Atanh(r)
	}

	for i := 1; i <= o.P; i++ {
		x = append(x, start(i))
	}
	for i := 0; i < o.Q; i++ {
		x = append(x, 0)
	}
	for i := 1; i <= o.SP; i++ {
		x = append(x, start(i*o.M))
	}
	for i := 0; i < o.SQ; i++ {
		x = append(x, 0)
	}
	if m.meanFitted {
		x = append(x, w.Mean())
	}
	return x
}

// params is the natural parameter vector: AR, MA, SAR, SMA, then mean.
type params struct {
	ar, ma, sar, sma []float64
	mean             float64
}

// unpack maps the optimiser's unconstrained vector to model parameters.
func (m *Model) unpack(x []float64) params {
	o := m.Order
	i := 0
	next := func(n int) []float64 {
		s := x[i : i+n]
		i += n
		return s
	}
	p := params{
		ar:  constrainStationary(next(o.P)),
		ma:  negate(constrainStationary(next(o.Q))),
		sar: constrainStationary(next(o.SP)),
		sma: negate(constrainStationary(next(o.SQ))),
	}
	if m.meanFitted {
		p.mean = x[i]
	}
	return p
}

// flatten and unflatten convert natural parameters to and from a vector for
// the numerical Hessian.
func (m *Model) flatten(p params) []float64 {
	out := make([]float64, 0, m.numParams())
	out = append(out, p.ar...)
	out = append(out, p.ma...)
	out = append(out, p.sar...)
	out = append(out, p.sma...)
	if m.meanFitted {
		out = append(out, p.mean)
	}
	return out
}

func (m *Model) unflatten(v []float64) params {
	o := m.Order
	i := 0
	next := func(n int) []float64 {
		s := v[i : i+n]
		i += n
		return s
	}
	p := params{ar: next(o.P), ma: next(o.Q), sar: next(o.SP), sma: next(o.SQ)}
	if m.meanFitted {
		p.mean = v[i]
	}
	return p
}

func negate(x []float64) []float64 {
	for i := range x {
		x[i] = -x[i]
	}
	return x
}

// expand multiplies the seasonal and non-seasonal factors into recursion
// coefficients for the differenced series.
func (m *Model) expand(p params) (ar, ma []float64) {
	period := m.Order.M
	arPoly := polyMul(arPolynomial(p.ar, 1), arPolynomial(p.sar, period))
	maPoly := polyMul(maPolynomial(p.ma, 1), maPolynomial(p.sma, period))
	return recursionCoeffs(arPoly), maPoly
}

// sse returns the conditional sum of squares and fills resid when non-nil.
func (m *Model) sse(p params, resid []float64) float64 {
	ar, ma := m.expand(p)
	w := m.diffData
	n := len(w)
	if resid == nil {
		resid = make([]float64, n)
	}

	total := 0.0
	for t := m.start; t < n; t++ {
		pred := 0.0
		for j := 1; j < len(ar); j++ {
			pred += ar[j] * (w[t-j] - p.mean)
		}
		for j := 1; j < len(ma) && t-j >= m.start; j++ {
			pred += ma[j] * resid[t-j]
		}
		resid[t] = w[t] - p.mean - pred
		total += resid[t] * resid[t]
	}
	return total
}

// objective is the negative concentrated log-likelihood up to a constant.
func (m *Model) objective(p params) float64 {
	nEff := float64(len(m.diffData) - m.start)
	s := m.sse(p, nil)
	if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		if s == 0 {
			return -1e300
		}
		return math.Inf(1)
	}
	return nEff / 2 * math.Log(s/nEff)
}

func (m *Model) setParams(p params) {
	m.ARCoeffs = append([]float64(nil), p.ar...)
	m.MACoeffs = append([]float64(nil), p.ma...)
	m.SARCoeffs = append([]float64(nil), p.sar...)
	m.SMACoeffs = append([]float64(nil), p.sma...)
	m.Mean = p.mean
	m.arRec, m.maRec = m.expand(p)
}

func (m *Model) current() params {
	return params{ar: m.ARCoeffs, ma: m.MACoeffs, sar: m.SARCoeffs, sma: m.SMACoeffs, mean: m.Mean}
}

func (m *Model) computeResiduals() float64 {
	m.residuals = make([]float64, len(m.diffData))
	return m.sse(m.current(), m.residuals)
}

// stdErrors inverts a numerical Hessian of the objective at the estimate.
func (m *Model) stdErrors(p params) StdErrors {
	v := m.flatten(p)
	k := len(v)
	se := make([]float64, k)
	for i := range se {
		se[i] = math.NaN()
	}

	if k > 0 {
		hess := mat.NewSymDense(k, nil)
		fd.Hessian(hess, func(x []float64) float64 {
			return m.objective(m.unflatten(x))
		}, v, nil)

		var chol mat.Cholesky
		if chol.Factorize(hess) {
			var cov mat.SymDense
			if err := chol.InverseTo(&cov); err == nil {
				for i := 0; i < k; i++ {
					if d := cov.At(i, i); d > 0 {
						se[i] = math.Sqrt(d)
					}
				}
			}
		}
	}

	out := m.unflatten(se)
	result := StdErrors{
		AR:   out.ar,
		MA:   out.ma,
		SAR:  out.sar,
		SMA:  out.sma,
		Mean: math.NaN(),
	}
	if m.meanFitted {
		result.Mean = out.mean
	}
	return result
}

// offset is the number of original observations consumed by differencing.
func (m *Model) offset() int {
	return m.Order.D + m.Order.SD*m.Order.M
}

// Residuals returns the residuals that entered the sum of squares, without
// the observations consumed by differencing or conditioning. Use
// ResidualSeries for residuals aligned with the original time index.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	out := make([]float64, len(m.residuals)-m.start)
	copy(out, m.residuals[m.start:])
	return out
}

// ResidualSeries returns the residuals with the timestamps of the
// observations they belong to.
func (m *Model) ResidualSeries() *timeseries.Series {
	if !m.fitted {
		return nil
	}
	first := m.offset() + m.start
	resid := m.Residuals()
	out := &timeseries.Series{
		Values:    resid,
		Name:      "residuals",
		Frequency: m.data.Frequency,
	}
	if m.data.HasTimestamps() {
		out.Timestamps = append([]time.Time(nil), m.data.Timestamps[first:first+len(resid)]...)
	}
	return out
}

// FittedValues returns one-step-ahead fitted values on the original scale,
// aligned with the input series. Observations consumed by differencing or
// conditioning are NaN.
func (m *Model) FittedValues() []float64 {
	if !m.fitted {
		return nil
	}
	y := m.data.Values
	first := m.offset() + m.start
	out := make([]float64, len(y))
	for t := range out {
		if t < first {
			out[t] = math.NaN()
			continue
		}
		out[t] = y[t] - m.residuals[t-m.offset()]
	}
	return out
}

// Summary represents a model summary.
type Summary struct {
	Order     Order
	ARCoeffs  []float64
	MACoeffs  []float64
	SARCoeffs []float64
	SMACoeffs []float64
	StdErrors StdErrors
	Mean      float64
	Variance  float64
	AIC       float64
	AICc      float64
	BIC       float64
	LogLik    float64
	NObs      int // length of the input series
	NUsed     int // observations in the sum of squares
	Converged bool
	LjungBox  *stats.LjungBoxResult // nil when the residuals are too short to test
}

// Summary returns a summary of the fitted model.
func (m *Model) Summary() *Summary {
	if !m.fitted {
		return nil
	}

	resid := timeseries.New(m.Residuals())
	lb, _ := stats.LjungBox(resid, stats.DefaultLjungBoxLags(resid.Len(), m.Order.M), m.Order.NumARMA())

	return &Summary{
		Order:     m.Order,
		ARCoeffs:  m.ARCoeffs,
		MACoeffs:  m.MACoeffs,
		SARCoeffs: m.SARCoeffs,
		SMACoeffs: m.SMACoeffs,
		StdErrors: m.StdErrors,
		Mean:      m.Mean,
		Variance:  m.Variance,
		AIC:       m.AIC,
		AICc:      m.AICc,
		BIC:       m.BIC,
		LogLik:    m.LogLik,
		NObs:      m.data.Len(),
		NUsed:     m.NObs,
		Converged: m.Converged,
		LjungBox:  lb,
	}
}
