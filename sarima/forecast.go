package sarima

import (
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// Forecast holds point forecasts and prediction intervals on the original scale.
type Forecast struct {
	Timestamps []time.Time // nil when the fitted series has no timestamps
	Point      []float64
	Lower      []float64
	Upper      []float64
	StdErr     []float64
	Level      float64
}

// Predict generates point forecasts for the specified number of steps ahead.
func (m *Model) Predict(steps int) ([]float64, error) {
	fc, err := m.Forecast(steps, 0.95)
	if err != nil {
		return nil, err
	}
	return fc.Point, nil
}

// Forecast generates forecasts with prediction intervals at the given
// confidence level. Levels outside (0, 1) fall back to 0.95.
//
// Differencing is folded into the AR recursion so forecasts are produced on
// the original scale directly; interval widths come from the psi-weights of
// that integrated model.
func (m *Model) Forecast(steps int, level float64) (*Forecast, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if steps < 1 {
		return nil, errors.New("steps must be at least 1")
	}
	if level <= 0 || level >= 1 {
		level = 0.95
	}

	integrated := polyMul(
		polyMul(arPolynomial(m.ARCoeffs, 1), arPolynomial(m.SARCoeffs, m.Order.M)),
		polyMul(diffPolynomial(1, m.Order.D), diffPolynomial(m.Order.M, m.Order.SD)),
	)
	ar := recursionCoeffs(integrated)
	ma := m.maRec

	// Constant term: mean times the stationary AR factor evaluated at B=1.
	stationaryAtOne := 1.0
	for _, a := range m.arRec[1:] {
		stationaryAtOne -= a
	}
	constant := m.Mean * stationaryAtOne

	y := m.data.Values
	n := len(y)
	offset := m.offset()

	ext := make([]float64, n+steps)
	copy(ext, y)
	shocks := make([]float64, n+steps)
	for t := offset; t < n; t++ {
		shocks[t] = m.residuals[t-offset]
	}

	for t := n; t < n+steps; t++ {
		pred := constant
		for j := 1; j < len(ar) && t-j >= 0; j++ {
			pred += ar[j] * ext[t-j]
		}
		for j := 1; j < len(ma) && t-j >= 0; j++ {
			pred += ma[j] * shocks[t-j]
		}
		ext[t] = pred
	}

	psi := psiWeights(ar, ma, steps)
	z := distuv.UnitNormal.Quantile((1 + level) / 2)

	fc := &Forecast{
		Timestamps: m.data.NextTimestamps(steps),
		Point:      make([]float64, steps),
		Lower:      make([]float64, steps),
		Upper:      make([]float64, steps),
		StdErr:     make([]float64, steps),
		Level:      level,
	}

	cum := 0.0
	for h := 0; h < steps; h++ {
		cum += psi[h] * psi[h]
		se := math.Sqrt(m.Variance * cum)
		fc.Point[h] = ext[n+h]
		fc.StdErr[h] = se
		fc.Lower[h] = fc.Point[h] - z*se
		fc.Upper[h] = fc.Point[h] + z*se
	}

	return fc, nil
}
