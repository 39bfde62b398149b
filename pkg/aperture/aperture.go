// Package aperture implements physical aperture boundary tests in local 2D
// surface coordinates. Apertures never remove rays; the surface zeroes the
// intensity of rays that fail the test and carries them on unchanged.
package aperture

import (
	"fmt"
	"math"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
)

// Aperture reports which (x,y) points fall inside the open area. The
// result is a backend mask (1 inside, 0 outside).
type Aperture interface {
	Contains(b backend.Backend, x, y backend.Array) backend.Array
}

// Radial is a circular or annular aperture. An inner radius of zero gives
// a plain circular opening.
type Radial struct {
	RMax float64
	RMin float64
}

// NewRadial creates a circular (rMin = 0) or annular aperture
func NewRadial(rMax, rMin float64) (*Radial, error) {
	if rMax <= 0 || rMin < 0 || rMin >= rMax {
		return nil, fmt.Errorf("aperture: invalid radial bounds (rMin=%g, rMax=%g)", rMin, rMax)
	}
	return &Radial{RMax: rMax, RMin: rMin}, nil
}

func (a *Radial) Contains(b backend.Backend, x, y backend.Array) backend.Array {
	rsq := b.Add(b.Mul(x, x), b.Mul(y, y))
	n := x.Len()
	inside := b.LessEq(rsq, b.Full(n, a.RMax*a.RMax))
	if a.RMin > 0 {
		inside = b.And(inside, b.GreaterEq(rsq, b.Full(n, a.RMin*a.RMin)))
	}
	return inside
}

// Offset decenters a radial aperture by (DX, DY) in the surface plane
type Offset struct {
	Radial
	DX, DY float64
}

// NewOffset creates a decentered radial aperture
func NewOffset(rMax, rMin, dx, dy float64) (*Offset, error) {
	radial, err := NewRadial(rMax, rMin)
	if err != nil {
		return nil, err
	}
	return &Offset{Radial: *radial, DX: dx, DY: dy}, nil
}

func (a *Offset) Contains(b backend.Backend, x, y backend.Array) backend.Array {
	return a.Radial.Contains(b, b.AddScalar(x, -a.DX), b.AddScalar(y, -a.DY))
}

// Rectangular is an axis-aligned rectangular aperture of half-widths
// (HalfX, HalfY) centered on the surface vertex.
type Rectangular struct {
	HalfX, HalfY float64
}

// NewRectangular creates a rectangular aperture from half-widths
func NewRectangular(halfX, halfY float64) (*Rectangular, error) {
	if halfX <= 0 || halfY <= 0 {
		return nil, fmt.Errorf("aperture: rectangular half-widths must be positive (got %g, %g)", halfX, halfY)
	}
	return &Rectangular{HalfX: halfX, HalfY: halfY}, nil
}

func (a *Rectangular) Contains(b backend.Backend, x, y backend.Array) backend.Array {
	n := x.Len()
	inX := b.LessEq(b.Abs(x), b.Full(n, a.HalfX))
	inY := b.LessEq(b.Abs(y), b.Full(n, a.HalfY))
	return b.And(inX, inY)
}

// Elliptical is an elliptical aperture with semi-axes (HalfX, HalfY)
type Elliptical struct {
	HalfX, HalfY float64
}

// NewElliptical creates an elliptical aperture from semi-axes
func NewElliptical(halfX, halfY float64) (*Elliptical, error) {
	if halfX <= 0 || halfY <= 0 {
		return nil, fmt.Errorf("aperture: elliptical semi-axes must be positive (got %g, %g)", halfX, halfY)
	}
	return &Elliptical{HalfX: halfX, HalfY: halfY}, nil
}

func (a *Elliptical) Contains(b backend.Backend, x, y backend.Array) backend.Array {
	u := b.MulScalar(x, 1/a.HalfX)
	v := b.MulScalar(y, 1/a.HalfY)
	return b.LessEq(b.Add(b.Mul(u, u), b.Mul(v, v)), b.Full(x.Len(), 1))
}

// Polygon tests containment in a simple polygon by the even-odd rule. The
// vertex test runs per ray; polygons are the one aperture variant that is
// not vectorizable as pure array arithmetic.
type Polygon struct {
	XS, YS []float64
}

// NewPolygon creates a polygon aperture from vertex coordinates
func NewPolygon(xs, ys []float64) (*Polygon, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("aperture: polygon coordinate lengths differ (%d vs %d)", len(xs), len(ys))
	}
	if len(xs) < 3 {
		return nil, fmt.Errorf("aperture: polygon needs at least 3 vertices (got %d)", len(xs))
	}
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			return nil, fmt.Errorf("aperture: polygon vertex %d is not finite", i)
		}
	}
	return &Polygon{
		XS: append([]float64(nil), xs...),
		YS: append([]float64(nil), ys...),
	}, nil
}

func (a *Polygon) Contains(b backend.Backend, x, y backend.Array) backend.Array {
	n := x.Len()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if a.containsPoint(x.At(i), y.At(i)) {
			out[i] = 1
		}
	}
	return b.FromSlice(out)
}

func (a *Polygon) containsPoint(px, py float64) bool {
	inside := false
	j := len(a.XS) - 1
	for i := 0; i < len(a.XS); i++ {
		xi, yi := a.XS[i], a.YS[i]
		xj, yj := a.XS[j], a.YS[j]
		if (yi > py) != (yj > py) &&
			px < (xj-xi)*(py-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}
