package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
)

// setCoefficient validates and writes one polynomial coefficient in place
func setCoefficient(coeffs []float64, i int, v float64) error {
	if i < 0 || i >= len(coeffs) {
		return fmt.Errorf("geometry: coefficient index %d out of range [0,%d)", i, len(coeffs))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("geometry: non-finite coefficient %g", v)
	}
	coeffs[i] = v
	return nil
}

// polyval evaluates Σ coeffs[i]·s^i over a whole array by Horner's rule
func polyval(b backend.Backend, s backend.Array, coeffs []float64) backend.Array {
	n := s.Len()
	if len(coeffs) == 0 {
		return b.Zeros(n)
	}
	acc := b.Full(n, coeffs[len(coeffs)-1])
	for i := len(coeffs) - 2; i >= 0; i-- {
		acc = b.AddScalar(b.Mul(acc, s), coeffs[i])
	}
	return acc
}

// polyder returns the coefficients of the derivative polynomial
func polyder(coeffs []float64) []float64 {
	if len(coeffs) <= 1 {
		return nil
	}
	out := make([]float64, len(coeffs)-1)
	for i := 1; i < len(coeffs); i++ {
		out[i-1] = float64(i) * coeffs[i]
	}
	return out
}
