package geometry

import (
	"fmt"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/coordsys"
)

// NURBS is a freeform sag surface defined by a rational B-spline control
// net over a rectangular domain:
//
//	z(u,v) = Σ_ij N_i,p(u)·N_j,p(v)·w_ij·z_ij / Σ_ij N_i,p(u)·N_j,p(v)·w_ij
//
// with clamped uniform knot vectors, u and v mapping the x and y extents
// onto [0,1]. Outside the domain the sag holds its boundary value.
type NURBS struct {
	iterative
	// Degree applies to both parametric directions
	Degree int
	// Points[i][j] is the control sag height; rows run along x
	Points [][]float64
	// Weights shapes the rational blend; must be positive, same grid as
	// Points
	Weights [][]float64

	xMin, xMax, yMin, yMax float64
	knotsU, knotsV         []float64
}

// NewNURBS creates a NURBS sag surface from a rectangular control net on
// the domain [xMin,xMax]×[yMin,yMax]. Both grid dimensions need at least
// degree+1 entries.
func NewNURBS(cs *coordsys.CoordinateSystem, degree int, points, weights [][]float64, xMin, xMax, yMin, yMax float64) (*NURBS, error) {
	if degree < 1 {
		return nil, fmt.Errorf("geometry: nurbs degree must be at least 1 (got %d)", degree)
	}
	if !(xMax > xMin) || !(yMax > yMin) {
		return nil, fmt.Errorf("geometry: nurbs domain must have positive extent")
	}
	rows := len(points)
	if rows < degree+1 {
		return nil, fmt.Errorf("geometry: nurbs needs at least %d control rows (got %d)", degree+1, rows)
	}
	cols := len(points[0])
	if cols < degree+1 {
		return nil, fmt.Errorf("geometry: nurbs needs at least %d control columns (got %d)", degree+1, cols)
	}
	if len(weights) != rows {
		return nil, fmt.Errorf("geometry: nurbs weights have %d rows, want %d", len(weights), rows)
	}
	for i, row := range points {
		if len(row) != cols || len(weights[i]) != cols {
			return nil, fmt.Errorf("geometry: nurbs control net must be rectangular (row %d)", i)
		}
		for j, w := range weights[i] {
			if w <= 0 {
				return nil, fmt.Errorf("geometry: nurbs weight (%d,%d) must be positive (got %g)", i, j, w)
			}
		}
	}

	n := &NURBS{
		Degree:  degree,
		Points:  points,
		Weights: weights,
		xMin:    xMin, xMax: xMax, yMin: yMin, yMax: yMax,
		knotsU: clampedKnots(rows, degree),
		knotsV: clampedKnots(cols, degree),
	}
	n.iterative = iterative{cs: cs, profile: n}
	return n, nil
}

// clampedKnots builds the clamped uniform knot vector on [0,1] for n
// control points of degree p.
func clampedKnots(n, p int) []float64 {
	out := make([]float64, n+p+1)
	for i := range out {
		switch {
		case i <= p:
			out[i] = 0
		case i >= n:
			out[i] = 1
		default:
			out[i] = float64(i-p) / float64(n-p)
		}
	}
	return out
}

// bsplineBasis evaluates every degree-p basis function over knots at the
// parameter array u, which must lie in [0,1]. The final non-empty span is
// closed on the right so u=1 lands in it.
func bsplineBasis(b backend.Backend, u backend.Array, knots []float64, p int) []backend.Array {
	size := u.Len()
	zero := b.Zeros(size)

	last := -1
	for i := 0; i+1 < len(knots); i++ {
		if knots[i] < knots[i+1] {
			last = i
		}
	}

	basis := make([]backend.Array, len(knots)-1)
	for i := range basis {
		if knots[i] == knots[i+1] {
			basis[i] = zero
			continue
		}
		lo := b.GreaterEq(u, b.Full(size, knots[i]))
		hi := b.Less(u, b.Full(size, knots[i+1]))
		if i == last {
			hi = b.LessEq(u, b.Full(size, knots[i+1]))
		}
		basis[i] = b.And(lo, hi)
	}

	for k := 1; k <= p; k++ {
		next := make([]backend.Array, len(basis)-1)
		for i := range next {
			term := zero
			if d := knots[i+k] - knots[i]; d > 0 {
				term = b.Add(term, b.Mul(b.MulScalar(b.AddScalar(u, -knots[i]), 1/d), basis[i]))
			}
			if d := knots[i+k+1] - knots[i+1]; d > 0 {
				term = b.Add(term, b.Mul(b.MulScalar(b.AddScalar(b.Neg(u), knots[i+k+1]), 1/d), basis[i+1]))
			}
			next[i] = term
		}
		basis = next
	}
	return basis
}

// bsplineBasisDeriv returns d/du of every degree-p basis function, from the
// standard two-term recurrence over the degree-(p−1) basis.
func bsplineBasisDeriv(b backend.Backend, u backend.Array, knots []float64, p int) []backend.Array {
	lower := bsplineBasis(b, u, knots, p-1)
	zero := b.Zeros(u.Len())

	out := make([]backend.Array, len(knots)-1-p)
	for i := range out {
		term := zero
		if d := knots[i+p] - knots[i]; d > 0 {
			term = b.Add(term, b.MulScalar(lower[i], float64(p)/d))
		}
		if d := knots[i+p+1] - knots[i+1]; d > 0 {
			term = b.Sub(term, b.MulScalar(lower[i+1], float64(p)/d))
		}
		out[i] = term
	}
	return out
}

// param maps a coordinate onto the [0,1] knot domain, clamped so rays
// outside the control net see the boundary value.
func (s *NURBS) param(b backend.Backend, x backend.Array, lo, hi float64) backend.Array {
	return b.Clamp(b.MulScalar(b.AddScalar(x, -lo), 1/(hi-lo)), 0, 1)
}

// net accumulates the weighted numerator and denominator of the rational
// form for the given per-direction basis values.
func (s *NURBS) net(b backend.Backend, nu, nv []backend.Array) (num, den backend.Array) {
	size := nu[0].Len()
	num, den = b.Zeros(size), b.Zeros(size)
	for i, row := range s.Points {
		for j, z := range row {
			bij := b.MulScalar(b.Mul(nu[i], nv[j]), s.Weights[i][j])
			num = b.Add(num, b.MulScalar(bij, z))
			den = b.Add(den, bij)
		}
	}
	return num, den
}

func (s *NURBS) Sag(b backend.Backend, x, y backend.Array) backend.Array {
	u := s.param(b, x, s.xMin, s.xMax)
	v := s.param(b, y, s.yMin, s.yMax)
	num, den := s.net(b, bsplineBasis(b, u, s.knotsU, s.Degree), bsplineBasis(b, v, s.knotsV, s.Degree))
	return b.Div(num, den)
}

func (s *NURBS) Partials(b backend.Backend, x, y backend.Array) (backend.Array, backend.Array) {
	u := s.param(b, x, s.xMin, s.xMax)
	v := s.param(b, y, s.yMin, s.yMax)
	nu := bsplineBasis(b, u, s.knotsU, s.Degree)
	nv := bsplineBasis(b, v, s.knotsV, s.Degree)
	du := bsplineBasisDeriv(b, u, s.knotsU, s.Degree)
	dv := bsplineBasisDeriv(b, v, s.knotsV, s.Degree)

	num, den := s.net(b, nu, nv)
	numU, denU := s.net(b, du, nv)
	numV, denV := s.net(b, nu, dv)

	// Quotient rule in parameter space, then the chain rule back to x, y
	denSq := b.Mul(den, den)
	dzdu := b.Div(b.Sub(b.Mul(numU, den), b.Mul(num, denU)), denSq)
	dzdv := b.Div(b.Sub(b.Mul(numV, den), b.Mul(num, denV)), denSq)

	size := x.Len()
	zero := b.Zeros(size)
	inX := b.And(b.GreaterEq(x, b.Full(size, s.xMin)), b.LessEq(x, b.Full(size, s.xMax)))
	inY := b.And(b.GreaterEq(y, b.Full(size, s.yMin)), b.LessEq(y, b.Full(size, s.yMax)))
	dzdx := b.Where(inX, b.MulScalar(dzdu, 1/(s.xMax-s.xMin)), zero)
	dzdy := b.Where(inY, b.MulScalar(dzdv, 1/(s.yMax-s.yMin)), zero)
	return dzdx, dzdy
}
