// Package coatings computes the intensity and polarization effect of a
// surface on the rays that interact with it. Coefficients are evaluated
// per ray in the complex domain (so total internal reflection and absorbing
// media come out naturally) and returned as detached backend arrays:
// coating response is data, not a differentiation target.
package coatings

import (
	"fmt"
	"math/cmplx"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
)

// Coating turns incidence geometry and the index pair into an energy
// efficiency and a per-ray Jones factor.
type Coating interface {
	// Efficiency returns the fraction of intensity carried into the
	// outgoing ray: reflected fraction for mirrors, transmitted fraction
	// otherwise.
	Efficiency(b backend.Backend, cosI, n1, n2 backend.Array, reflective bool) backend.Array

	// Jones returns the polarization factor for one ray in the local
	// (s, p, z) basis.
	Jones(cosI, n1, n2 float64, reflective bool) [3][3]complex128
}

// Below this cos(incidence) the transmitted-energy projection factor is
// treated as grazing and the ray transmits nothing.
const grazingCosEps = 1e-12

// fresnelAmplitudes returns the complex s and p amplitude coefficients for
// one ray. cosT is taken in the complex domain, so beyond the critical
// angle the reflection coefficients land on the unit circle.
func fresnelAmplitudes(cosI, n1, n2 float64, reflective bool) (s, p complex128) {
	ci := complex(cosI, 0)
	eta1 := complex(n1, 0)
	eta2 := complex(n2, 0)
	sinTsq := (eta1 / eta2) * (eta1 / eta2) * (1 - ci*ci)
	ct := cmplx.Sqrt(1 - sinTsq)

	if reflective {
		rs := (eta1*ci - eta2*ct) / (eta1*ci + eta2*ct)
		rp := (eta2*ci - eta1*ct) / (eta2*ci + eta1*ct)
		return rs, rp
	}
	ts := 2 * eta1 * ci / (eta1*ci + eta2*ct)
	tp := 2 * eta1 * ci / (eta2*ci + eta1*ct)
	return ts, tp
}

// Fresnel models a bare (uncoated) interface exactly: Fresnel reflection
// and transmission coefficients averaged over s and p.
type Fresnel struct{}

// NewFresnel creates a bare-interface coating
func NewFresnel() *Fresnel { return &Fresnel{} }

func (f *Fresnel) Efficiency(b backend.Backend, cosI, n1, n2 backend.Array, reflective bool) backend.Array {
	out := make([]float64, cosI.Len())
	for i := range out {
		ci, e1, e2 := cosI.At(i), n1.At(i), n2.At(i)
		s, p := fresnelAmplitudes(ci, e1, e2, reflective)
		if reflective {
			out[i] = (real(s*cmplx.Conj(s)) + real(p*cmplx.Conj(p))) / 2
			continue
		}
		// Transmitted energy carries the n·cosθ projection factor, which
		// has no finite limit at grazing incidence
		denom := e1 * ci
		if denom < grazingCosEps {
			continue
		}
		ct := cmplx.Sqrt(1 - complex((e1/e2)*(e1/e2)*(1-ci*ci), 0))
		factor := real(complex(e2, 0)*ct) / denom
		out[i] = factor * (real(s*cmplx.Conj(s)) + real(p*cmplx.Conj(p))) / 2
	}
	return b.FromSlice(out)
}

func (f *Fresnel) Jones(cosI, n1, n2 float64, reflective bool) [3][3]complex128 {
	s, p := fresnelAmplitudes(cosI, n1, n2, reflective)
	return [3][3]complex128{
		{s, 0, 0},
		{0, p, 0},
		{0, 0, 1},
	}
}

// Ideal applies a fixed, angle-independent efficiency; useful for quick
// models of AR coatings or lossy mirrors.
type Ideal struct {
	Transmittance float64
	amplitude     complex128
}

// NewIdeal creates a fixed-efficiency coating
func NewIdeal(transmittance float64) (*Ideal, error) {
	if transmittance < 0 || transmittance > 1 {
		return nil, fmt.Errorf("coatings: transmittance must be in [0,1] (got %g)", transmittance)
	}
	return &Ideal{
		Transmittance: transmittance,
		amplitude:     cmplx.Sqrt(complex(transmittance, 0)),
	}, nil
}

func (c *Ideal) Efficiency(b backend.Backend, cosI, n1, n2 backend.Array, reflective bool) backend.Array {
	return b.Full(cosI.Len(), c.Transmittance)
}

func (c *Ideal) Jones(cosI, n1, n2 float64, reflective bool) [3][3]complex128 {
	return [3][3]complex128{
		{c.amplitude, 0, 0},
		{0, c.amplitude, 0},
		{0, 0, 1},
	}
}
