package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/coordsys"
)

// Biconic has independent curvature and conic constant in x and y:
//
//	z = (cx·x² + cy·y²) / (1 + sqrt(1 − (1+kx)·cx²·x² − (1+ky)·cy²·y²))
type Biconic struct {
	iterative
	RadiusX, RadiusY float64
	ConicX, ConicY   float64
}

// NewBiconic creates a biconic surface
func NewBiconic(cs *coordsys.CoordinateSystem, radiusX, radiusY, conicX, conicY float64) (*Biconic, error) {
	for _, v := range []float64{radiusX, radiusY, conicX, conicY} {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("geometry: non-finite biconic parameter")
		}
	}
	bi := &Biconic{RadiusX: radiusX, RadiusY: radiusY, ConicX: conicX, ConicY: conicY}
	bi.iterative = iterative{cs: cs, profile: bi}
	return bi, nil
}

func curvatureOf(radius float64) float64 {
	if radius == 0 || math.IsInf(radius, 0) {
		return 0
	}
	return 1 / radius
}

// root returns sqrt(1 − (1+kx)·cx²·x² − (1+ky)·cy²·y²) with a small floor
func (bi *Biconic) root(b backend.Backend, x, y backend.Array) backend.Array {
	cx, cy := curvatureOf(bi.RadiusX), curvatureOf(bi.RadiusY)
	n := x.Len()
	arg := b.AddScalar(b.Add(
		b.MulScalar(b.Mul(x, x), -(1+bi.ConicX)*cx*cx),
		b.MulScalar(b.Mul(y, y), -(1+bi.ConicY)*cy*cy)), 1)
	return b.Sqrt(b.Max(arg, b.Full(n, derivGuard*derivGuard)))
}

func (bi *Biconic) Sag(b backend.Backend, x, y backend.Array) backend.Array {
	cx, cy := curvatureOf(bi.RadiusX), curvatureOf(bi.RadiusY)
	num := b.Add(b.MulScalar(b.Mul(x, x), cx), b.MulScalar(b.Mul(y, y), cy))
	return b.Div(num, b.AddScalar(bi.root(b, x, y), 1))
}

func (bi *Biconic) Partials(b backend.Backend, x, y backend.Array) (backend.Array, backend.Array) {
	cx, cy := curvatureOf(bi.RadiusX), curvatureOf(bi.RadiusY)
	root := bi.root(b, x, y)
	onePlus := b.AddScalar(root, 1)
	num := b.Add(b.MulScalar(b.Mul(x, x), cx), b.MulScalar(b.Mul(y, y), cy))
	denomSq := b.Mul(onePlus, onePlus)

	// dz/dx = 2·cx·x/(1+D) + N·(1+kx)·cx²·x / (D·(1+D)²), D the root term
	dzdx := b.Add(
		b.Div(b.MulScalar(x, 2*cx), onePlus),
		b.Div(b.MulScalar(b.Mul(num, x), (1+bi.ConicX)*cx*cx), b.Mul(root, denomSq)))
	dzdy := b.Add(
		b.Div(b.MulScalar(y, 2*cy), onePlus),
		b.Div(b.MulScalar(b.Mul(num, y), (1+bi.ConicY)*cy*cy), b.Mul(root, denomSq)))
	return dzdx, dzdy
}
