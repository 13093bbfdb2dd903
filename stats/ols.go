package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// OLSResult holds an ordinary least squares fit.
type OLSResult struct {
	Coeffs    []float64
	StdErrors []float64
	SSR       float64 // residual sum of squares
	NObs      int
}

// LogLik returns the Gaussian log-likelihood of the fit.
func (r *OLSResult) LogLik() float64 {
	n := float64(r.NObs)
	return -n / 2 * (math.Log(2*math.Pi) + math.Log(r.SSR/n) + 1)
}

// OLS performs ordinary least squares regression of y on the rows of x.
func OLS(x [][]float64, y []float64) (*OLSResult, error) {
	n := len(y)
	if n == 0 || len(x) != n {
		return nil, ErrDimension
	}
	k := len(x[0])
	if k == 0 {
		return nil, ErrDimension
	}
	if n <= k {
		return nil, fmt.Errorf("%w: %d observations for %d regressors", ErrInsufficientData, n, k)
	}

	design := mat.NewDense(n, k, nil)
	for i, row := range x {
		if len(row) != k {
			return nil, ErrDimension
		}
		design.SetRow(i, row)
	}
	response := mat.NewVecDense(n, y)

	var xtx mat.Dense
	xtx.Mul(design.T(), design)

	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	var xty mat.VecDense
	xty.MulVec(design.T(), response)

	var beta mat.VecDense
	beta.MulVec(&xtxInv, &xty)

	var fitted, resid mat.VecDense
	fitted.MulVec(design, &beta)
	resid.SubVec(response, &fitted)
	ssr := mat.Dot(&resid, &resid)

	s2 := ssr / float64(n-k)
	coeffs := make([]float64, k)
	stdErrors := make([]float64, k)
	for i := 0; i < k; i++ {
		coeffs[i] = beta.AtVec(i)
		stdErrors[i] = math.Sqrt(s2 * xtxInv.At(i, i))
	}

	return &OLSResult{
		Coeffs:    coeffs,
		StdErrors: stdErrors,
		SSR:       ssr,
		NObs:      n,
	}, nil
}
