package interactions

import (
	"fmt"
	"math"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/coatings"
	"github.com/df07/go-sequential-raytracer/pkg/rays"
)

// Diffractive implements the vector grating equation for one diffraction
// order. The tangential components of n·d shift by mλ/Λ along the
// dispersion direction, where Λ is the groove period in the same units as
// wavelength (micrometers). Order 0 reduces to plain refraction or mirror
// reflection. Orders whose outgoing tangential component exceeds unity are
// evanescent and the ray is invalidated.
type Diffractive struct {
	Order        int
	Period       float64
	GrooveAngle  float64
	IsReflective bool
}

// NewDiffractive creates a grating interaction. Period is the groove
// spacing in micrometers; grooveAngle rotates the dispersion axis from +x
// in the vertex plane.
func NewDiffractive(order int, period, grooveAngle float64, reflective bool) (*Diffractive, error) {
	if period <= 0 {
		return nil, fmt.Errorf("interactions: grating period must be positive (got %g)", period)
	}
	return &Diffractive{
		Order:        order,
		Period:       period,
		GrooveAngle:  grooveAngle,
		IsReflective: reflective,
	}, nil
}

func (d *Diffractive) Interact(bundle *rays.Bundle, nx, ny, nz, n1, n2 backend.Array, coat coatings.Coating) error {
	b := bundle.Backend()
	size := bundle.Len()
	valid := bundle.ValidMask()
	ox, oy, oz, cosI := orientAgainstRay(b, bundle, nx, ny, nz)

	// Dispersion direction projected onto the local tangent plane
	px, py := math.Cos(d.GrooveAngle), math.Sin(d.GrooveAngle)
	pdotn := b.Add(b.MulScalar(ox, px), b.MulScalar(oy, py))
	ptx := b.Sub(b.Full(size, px), b.Mul(pdotn, ox))
	pty := b.Sub(b.Full(size, py), b.Mul(pdotn, oy))
	ptz := b.Neg(b.Mul(pdotn, oz))

	// Tangential part of the incident direction
	dtx := b.Sub(bundle.L, b.Mul(cosI, ox))
	dty := b.Sub(bundle.M, b.Mul(cosI, oy))
	dtz := b.Sub(bundle.N, b.Mul(cosI, oz))

	shift := b.MulScalar(bundle.Wavelength, float64(d.Order)/d.Period)
	eta2 := n2
	if d.IsReflective {
		eta2 = n1
	}
	tx := b.Div(b.Add(b.Mul(n1, dtx), b.Mul(shift, ptx)), eta2)
	ty := b.Div(b.Add(b.Mul(n1, dty), b.Mul(shift, pty)), eta2)
	tz := b.Div(b.Add(b.Mul(n1, dtz), b.Mul(shift, ptz)), eta2)

	tsq := dot3(b, tx, ty, tz, tx, ty, tz)
	ones := b.Full(size, 1)
	evanescent := b.Greater(tsq, ones)
	cosOut := b.Sqrt(b.Max(b.Sub(ones, tsq), b.Zeros(size)))
	if d.IsReflective {
		cosOut = b.Neg(cosOut)
	}

	l := b.Add(tx, b.Mul(cosOut, ox))
	m := b.Add(ty, b.Mul(cosOut, oy))
	n := b.Add(tz, b.Mul(cosOut, oz))

	ok := b.And(valid, b.Not(evanescent))
	updateWhere(b, bundle, ok, l, m, n)
	bundle.Invalidate(b.And(valid, evanescent))
	applyCoating(b, bundle, coat, cosI, n1, n2, ok, d.IsReflective)
	return nil
}
