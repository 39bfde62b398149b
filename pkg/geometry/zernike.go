package geometry

import (
	"fmt"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/coordsys"
)

// ZernikeTerm is one standard Zernike polynomial Z_n^m with its coefficient.
// Negative M selects the sin(|m|θ) angular factor, non-negative M the
// cos(mθ) factor.
type ZernikeTerm struct {
	N, M        int
	Coefficient float64
}

// Zernike adds a standard Zernike expansion over a normalization radius to
// a base conic:
//
//	z = z_conic(r) + Σ c_k · R_n^|m|(ρ) · {cos(mθ) | sin(|m|θ)},  ρ = r/NormRadius
type Zernike struct {
	iterative
	base       *Standard
	Terms      []ZernikeTerm
	NormRadius float64
}

// NewZernike creates a Zernike freeform surface
func NewZernike(cs *coordsys.CoordinateSystem, radius, conic float64, terms []ZernikeTerm, normRadius float64) (*Zernike, error) {
	if normRadius <= 0 {
		return nil, fmt.Errorf("geometry: zernike normalization radius must be positive (got %g)", normRadius)
	}
	for _, term := range terms {
		if term.N < 0 || abs(term.M) > term.N || (term.N-abs(term.M))%2 != 0 {
			return nil, fmt.Errorf("geometry: invalid zernike index (n=%d, m=%d)", term.N, term.M)
		}
	}
	base, err := NewStandard(cs, radius, conic)
	if err != nil {
		return nil, err
	}
	z := &Zernike{base: base, Terms: terms, NormRadius: normRadius}
	z.iterative = iterative{cs: cs, profile: z}
	return z, nil
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

func factorial(n int) float64 {
	out := 1.0
	for i := 2; i <= n; i++ {
		out *= float64(i)
	}
	return out
}

// radialCoeffs returns the coefficients of the radial polynomial R_n^m as
// powers of ρ, index = power.
func radialCoeffs(n, m int) []float64 {
	out := make([]float64, n+1)
	for s := 0; s <= (n-m)/2; s++ {
		sign := 1.0
		if s%2 == 1 {
			sign = -1
		}
		out[n-2*s] = sign * factorial(n-s) /
			(factorial(s) * factorial((n+m)/2-s) * factorial((n-m)/2-s))
	}
	return out
}

func (z *Zernike) Sag(b backend.Backend, x, y backend.Array) backend.Array {
	out := z.base.Sag(b, x, y)
	if len(z.Terms) == 0 {
		return out
	}
	rho, theta := z.polar(b, x, y)
	for _, term := range z.Terms {
		if term.Coefficient == 0 {
			continue
		}
		rCoeffs := radialCoeffs(term.N, abs(term.M))
		rad := polyval(b, rho, rCoeffs)
		ang := z.angular(b, theta, term.M)
		out = b.Add(out, b.MulScalar(b.Mul(rad, ang), term.Coefficient))
	}
	return out
}

// polar returns (ρ, θ) with the radius floored away from zero so angular
// derivatives stay finite on the axis.
func (z *Zernike) polar(b backend.Backend, x, y backend.Array) (backend.Array, backend.Array) {
	r := safeR(b, r2(b, x, y))
	rho := b.MulScalar(r, 1/z.NormRadius)
	theta := b.Atan2(y, x)
	return rho, theta
}

func (z *Zernike) angular(b backend.Backend, theta backend.Array, m int) backend.Array {
	if m == 0 {
		return b.Full(theta.Len(), 1)
	}
	if m > 0 {
		return b.Cos(b.MulScalar(theta, float64(m)))
	}
	return b.Sin(b.MulScalar(theta, float64(-m)))
}

// angularDeriv returns d/dθ of the angular factor
func (z *Zernike) angularDeriv(b backend.Backend, theta backend.Array, m int) backend.Array {
	if m == 0 {
		return b.Zeros(theta.Len())
	}
	if m > 0 {
		return b.MulScalar(b.Sin(b.MulScalar(theta, float64(m))), -float64(m))
	}
	return b.MulScalar(b.Cos(b.MulScalar(theta, float64(-m))), float64(-m))
}

func (z *Zernike) Partials(b backend.Backend, x, y backend.Array) (backend.Array, backend.Array) {
	dzdx, dzdy := z.base.Partials(b, x, y)
	if len(z.Terms) == 0 {
		return dzdx, dzdy
	}

	r := safeR(b, r2(b, x, y))
	rho, theta := z.polar(b, x, y)
	rsq := b.Mul(r, r)

	// Chain rule through polar coordinates:
	// dρ/dx = x/(r·R), dθ/dx = −y/r², dρ/dy = y/(r·R), dθ/dy = x/r²
	drhodx := b.Div(b.MulScalar(x, 1/z.NormRadius), r)
	drhody := b.Div(b.MulScalar(y, 1/z.NormRadius), r)
	dthetadx := b.Div(b.Neg(y), rsq)
	dthetady := b.Div(x, rsq)

	for _, term := range z.Terms {
		if term.Coefficient == 0 {
			continue
		}
		rCoeffs := radialCoeffs(term.N, abs(term.M))
		rad := polyval(b, rho, rCoeffs)
		dRad := polyval(b, rho, polyder(rCoeffs))
		ang := z.angular(b, theta, term.M)
		dAng := z.angularDeriv(b, theta, term.M)

		dzdx = b.Add(dzdx, b.MulScalar(
			b.Add(b.Mul(b.Mul(dRad, ang), drhodx), b.Mul(b.Mul(rad, dAng), dthetadx)),
			term.Coefficient))
		dzdy = b.Add(dzdy, b.MulScalar(
			b.Add(b.Mul(b.Mul(dRad, ang), drhody), b.Mul(b.Mul(rad, dAng), dthetady)),
			term.Coefficient))
	}
	return dzdx, dzdy
}
