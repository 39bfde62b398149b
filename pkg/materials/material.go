// Package materials defines the refractive-index contract the tracer
// consumes and a few dispersion models. A material is a pure function of
// wavelength; the core never mutates one. Wavelengths are in micrometers.
package materials

import (
	"fmt"
	"math"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
)

// Material provides the complex refractive index n(λ) + i·k(λ)
type Material interface {
	// N returns the real refractive index at wavelength λ (µm)
	N(wavelength float64) float64
	// K returns the extinction coefficient at wavelength λ (µm)
	K(wavelength float64) float64
}

// LookupByName resolves a material from an external database by name
type LookupByName func(name string) (Material, error)

// LookupByIndex resolves a material from an external database by
// (refractive index, Abbe number)
type LookupByIndex func(nd, vd float64) (Material, error)

// IndexArray evaluates n(λ) over a bundle's wavelength array. The result
// is a detached backend array: the index is data, not a differentiation
// target.
func IndexArray(b backend.Backend, m Material, wavelength backend.Array) backend.Array {
	out := make([]float64, wavelength.Len())
	for i := range out {
		out[i] = m.N(wavelength.At(i))
	}
	return b.FromSlice(out)
}

// Air is the identity medium n=1, k=0
type Air struct{}

func (Air) N(float64) float64 { return 1 }
func (Air) K(float64) float64 { return 0 }

// Ideal is a dispersionless material with constant n and k
type Ideal struct {
	N0, K0 float64
}

// NewIdeal creates a constant-index material
func NewIdeal(n, k float64) (*Ideal, error) {
	if n <= 0 {
		return nil, fmt.Errorf("materials: refractive index must be positive (got %g)", n)
	}
	if k < 0 {
		return nil, fmt.Errorf("materials: extinction coefficient must be non-negative (got %g)", k)
	}
	return &Ideal{N0: n, K0: k}, nil
}

func (m *Ideal) N(float64) float64 { return m.N0 }
func (m *Ideal) K(float64) float64 { return m.K0 }

// Fraunhofer line wavelengths (µm) used by the Abbe model
const (
	lambdaC = 0.6563
	lambdaD = 0.5876
	lambdaF = 0.4861
)

// Abbe models dispersion from a d-line index and Abbe number with a
// two-term Cauchy fit through the F and C lines.
type Abbe struct {
	Nd, Vd float64
	a, b   float64
}

// NewAbbe creates a material from (nd, Vd)
func NewAbbe(nd, vd float64) (*Abbe, error) {
	if nd <= 0 {
		return nil, fmt.Errorf("materials: refractive index must be positive (got %g)", nd)
	}
	if vd == 0 || math.IsNaN(vd) {
		return nil, fmt.Errorf("materials: abbe number must be nonzero (got %g)", vd)
	}
	// Cauchy n(λ) = a + b/λ² with nF − nC = (nd−1)/Vd
	b := ((nd - 1) / vd) / (1/(lambdaF*lambdaF) - 1/(lambdaC*lambdaC))
	a := nd - b/(lambdaD*lambdaD)
	return &Abbe{Nd: nd, Vd: vd, a: a, b: b}, nil
}

func (m *Abbe) N(wavelength float64) float64 {
	return m.a + m.b/(wavelength*wavelength)
}

func (m *Abbe) K(float64) float64 { return 0 }

// Sellmeier is the three-term Sellmeier dispersion equation
//
//	n²(λ) = 1 + Σ B_i·λ² / (λ² − C_i)
type Sellmeier struct {
	B, C [3]float64
}

// NewSellmeier creates a Sellmeier material from its B and C coefficients
func NewSellmeier(b, c [3]float64) (*Sellmeier, error) {
	for i := range b {
		if math.IsNaN(b[i]) || math.IsNaN(c[i]) {
			return nil, fmt.Errorf("materials: non-finite sellmeier coefficient %d", i)
		}
	}
	return &Sellmeier{B: b, C: c}, nil
}

func (m *Sellmeier) N(wavelength float64) float64 {
	lsq := wavelength * wavelength
	nsq := 1.0
	for i := range m.B {
		nsq += m.B[i] * lsq / (lsq - m.C[i])
	}
	return math.Sqrt(nsq)
}

func (m *Sellmeier) K(float64) float64 { return 0 }
