package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/coordsys"
)

// EvenAsphere adds even-order radial polynomial terms to a base conic:
//
//	z = z_conic(r) + Σ A_i · r^(2(i+1))
//
// so Coefficients[0] multiplies r², Coefficients[1] multiplies r⁴, and so
// on. Intersections are solved with the shared Newton iteration.
type EvenAsphere struct {
	iterative
	base         *Standard
	Coefficients []float64
}

// NewEvenAsphere creates an even asphere on a conic base
func NewEvenAsphere(cs *coordsys.CoordinateSystem, radius, conic float64, coefficients []float64) (*EvenAsphere, error) {
	base, err := NewStandard(cs, radius, conic)
	if err != nil {
		return nil, err
	}
	for i, c := range coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("geometry: non-finite asphere coefficient %d", i)
		}
	}
	e := &EvenAsphere{base: base, Coefficients: append([]float64(nil), coefficients...)}
	e.iterative = iterative{cs: cs, profile: e}
	return e, nil
}

// Curvature returns the base conic's vertex curvature
func (e *EvenAsphere) Curvature() float64 { return e.base.Curvature() }

// Base returns the base conic parameters
func (e *EvenAsphere) Base() (radius, conic float64) { return e.base.Radius, e.base.Conic }

// SetRadius replaces the base radius of curvature
func (e *EvenAsphere) SetRadius(radius float64) error { return e.base.SetRadius(radius) }

// SetCoefficient replaces polynomial coefficient i
func (e *EvenAsphere) SetCoefficient(i int, v float64) error {
	return setCoefficient(e.Coefficients, i, v)
}

func (e *EvenAsphere) Sag(b backend.Backend, x, y backend.Array) backend.Array {
	rsq := r2(b, x, y)
	// Σ A_i·s^(i+1) with s = r²
	poly := b.Mul(rsq, polyval(b, rsq, e.Coefficients))
	return b.Add(e.base.Sag(b, x, y), poly)
}

func (e *EvenAsphere) Partials(b backend.Backend, x, y backend.Array) (backend.Array, backend.Array) {
	dzdx, dzdy := e.base.Partials(b, x, y)
	rsq := r2(b, x, y)

	// d/dx [Σ A_i·s^(i+1)] = (Σ A_i·(i+1)·s^i) · 2x
	deriv := make([]float64, len(e.Coefficients))
	for i, c := range e.Coefficients {
		deriv[i] = float64(i+1) * c
	}
	slope := polyval(b, rsq, deriv)
	dzdx = b.Add(dzdx, b.MulScalar(b.Mul(slope, x), 2))
	dzdy = b.Add(dzdy, b.MulScalar(b.Mul(slope, y), 2))
	return dzdx, dzdy
}

// OddAsphere adds integer-order radial terms to a base conic:
//
//	z = z_conic(r) + Σ B_i · r^(i+1)
//
// covering odd powers the even asphere cannot express.
type OddAsphere struct {
	iterative
	base         *Standard
	Coefficients []float64
}

// NewOddAsphere creates an odd asphere on a conic base
func NewOddAsphere(cs *coordsys.CoordinateSystem, radius, conic float64, coefficients []float64) (*OddAsphere, error) {
	base, err := NewStandard(cs, radius, conic)
	if err != nil {
		return nil, err
	}
	for i, c := range coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("geometry: non-finite asphere coefficient %d", i)
		}
	}
	o := &OddAsphere{base: base, Coefficients: append([]float64(nil), coefficients...)}
	o.iterative = iterative{cs: cs, profile: o}
	return o, nil
}

// safeR returns r with a floor that keeps odd-power derivatives finite on
// the axis.
func safeR(b backend.Backend, rsq backend.Array) backend.Array {
	return b.Sqrt(b.Max(rsq, b.Full(rsq.Len(), 1e-24)))
}

// Curvature returns the base conic's vertex curvature
func (o *OddAsphere) Curvature() float64 { return o.base.Curvature() }

// Base returns the base conic parameters
func (o *OddAsphere) Base() (radius, conic float64) { return o.base.Radius, o.base.Conic }

// SetRadius replaces the base radius of curvature
func (o *OddAsphere) SetRadius(radius float64) error { return o.base.SetRadius(radius) }

// SetCoefficient replaces polynomial coefficient i
func (o *OddAsphere) SetCoefficient(i int, v float64) error {
	return setCoefficient(o.Coefficients, i, v)
}

func (o *OddAsphere) Sag(b backend.Backend, x, y backend.Array) backend.Array {
	r := safeR(b, r2(b, x, y))
	// Σ B_i·r^(i+1)
	poly := b.Mul(r, polyval(b, r, o.Coefficients))
	return b.Add(o.base.Sag(b, x, y), poly)
}

func (o *OddAsphere) Partials(b backend.Backend, x, y backend.Array) (backend.Array, backend.Array) {
	dzdx, dzdy := o.base.Partials(b, x, y)
	r := safeR(b, r2(b, x, y))

	// d/dr [Σ B_i·r^(i+1)] = Σ B_i·(i+1)·r^i, then dr/dx = x/r
	deriv := make([]float64, len(o.Coefficients))
	for i, c := range o.Coefficients {
		deriv[i] = float64(i+1) * c
	}
	slope := b.Div(polyval(b, r, deriv), r)
	dzdx = b.Add(dzdx, b.Mul(slope, x))
	dzdy = b.Add(dzdy, b.Mul(slope, y))
	return dzdx, dzdy
}
