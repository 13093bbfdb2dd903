package sarima

import "math"

// Lag polynomials are stored by power of B: poly[0] is the constant term.

// polyMul multiplies two lag polynomials.
func polyMul(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		if x == 0 {
			continue
		}
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}

// arPolynomial returns 1 - sum(coeffs[i] B^((i+1)*step)).
func arPolynomial(coeffs []float64, step int) []float64 {
	poly := make([]float64, len(coeffs)*step+1)
	poly[0] = 1
	for i, c := range coeffs {
		poly[(i+1)*step] = -c
	}
	return poly
}

// maPolynomial returns 1 + sum(coeffs[i] B^((i+1)*step)).
func maPolynomial(coeffs []float64, step int) []float64 {
	poly := make([]float64, len(coeffs)*step+1)
	poly[0] = 1
	for i, c := range coeffs {
		poly[(i+1)*step] = c
	}
	return poly
}

// diffPolynomial returns (1 - B^lag)^times.
func diffPolynomial(lag, times int) []float64 {
	poly := []float64{1}
	for i := 0; i < times; i++ {
		poly = polyMul(poly, arPolynomial([]float64{1}, lag))
	}
	return poly
}

// recursionCoeffs turns 1 - sum(a_j B^j) into [0, a_1, a_2, ...] so that
// x_t = sum(a_j x_{t-j}).
func recursionCoeffs(poly []float64) []float64 {
	out := make([]float64, len(poly))
	for j := 1; j < len(poly); j++ {
		out[j] = -poly[j]
	}
	return out
}

// constrainStationary maps unconstrained reals to the coefficients of a
// stationary AR polynomial through partial autocorrelations in (-1, 1).
func constrainStationary(x []float64) []float64 {
	p := len(x)
	phi := make([]float64, p)
	prev := make([]float64, p)
	for k := 0; k < p; k++ {
		r := math.Tanh(x[k])
		copy(prev, phi)
		phi[k] = r
		for j := 0; j < k; j++ {
			phi[j] = prev[j] - r*prev[k-1-j]
		}
	}
	return phi
}

// psiWeights returns the first h coefficients of the MA(inf) representation
// of the model x_t = sum(ar_j x_{t-j}) + e_t + sum(ma_j e_{t-j}), where ar
// and ma are recursion coefficients with index 0 unused.
func psiWeights(ar, ma []float64, h int) []float64 {
	psi := make([]float64, h)
	if h == 0 {
		return psi
	}
	psi[0] = 1
	for j := 1; j < h; j++ {
		if j < len(ma) {
			psi[j] = ma[j]
		}
		for i := 1; i < len(ar) && i <= j; i++ {
			psi[j] += ar[i] * psi[j-i]
		}
	}
	return psi
}
