package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/coordsys"
	"github.com/df07/go-sequential-raytracer/pkg/rays"
)

// Standard is the spherical/conic surface
//
//	z = c·r² / (1 + sqrt(1 − (1+k)·c²·r²))
//
// with curvature c = 1/R and conic constant k. Positive radius places the
// center of curvature on the +z side of the vertex. The ray intersection is
// solved in closed form from the implicit equation
// c·(x² + y² + (1+k)·z²) − 2z = 0.
type Standard struct {
	cs *coordsys.CoordinateSystem
	// Radius is the radius of curvature; 0 or ±Inf means flat
	Radius float64
	// Conic is the conic constant k (0 sphere, −1 paraboloid, ...)
	Conic float64
}

// NewStandard creates a spherical or conic surface
func NewStandard(cs *coordsys.CoordinateSystem, radius, conic float64) (*Standard, error) {
	if math.IsNaN(radius) || math.IsNaN(conic) {
		return nil, fmt.Errorf("geometry: non-finite standard surface parameters (R=%g, k=%g)", radius, conic)
	}
	return &Standard{cs: cs, Radius: radius, Conic: conic}, nil
}

// curvature returns 1/R, treating R = 0 and R = ±Inf as flat
func (s *Standard) curvature() float64 {
	if s.Radius == 0 || math.IsInf(s.Radius, 0) {
		return 0
	}
	return 1 / s.Radius
}

// Curvature returns the vertex curvature 1/R, zero for a flat surface
func (s *Standard) Curvature() float64 { return s.curvature() }

// SetRadius replaces the radius of curvature
func (s *Standard) SetRadius(radius float64) error {
	if math.IsNaN(radius) {
		return fmt.Errorf("geometry: radius must not be NaN")
	}
	s.Radius = radius
	return nil
}

func (s *Standard) CoordinateSystem() *coordsys.CoordinateSystem { return s.cs }

func (s *Standard) Sag(b backend.Backend, x, y backend.Array) backend.Array {
	c := s.curvature()
	n := x.Len()
	if c == 0 {
		return b.Zeros(n)
	}
	rsq := r2(b, x, y)
	// 1 − (1+k)·c²·r², clamped at zero beyond the surface's valid extent
	arg := b.AddScalar(b.MulScalar(rsq, -(1+s.Conic)*c*c), 1)
	root := b.Sqrt(b.Max(arg, b.Zeros(n)))
	return b.Div(b.MulScalar(rsq, c), b.AddScalar(root, 1))
}

// Partials returns the analytic sag derivatives
// dz/dx = c·x / sqrt(1 − (1+k)·c²·r²), and likewise for y.
func (s *Standard) Partials(b backend.Backend, x, y backend.Array) (backend.Array, backend.Array) {
	c := s.curvature()
	n := x.Len()
	if c == 0 {
		return b.Zeros(n), b.Zeros(n)
	}
	rsq := r2(b, x, y)
	arg := b.AddScalar(b.MulScalar(rsq, -(1+s.Conic)*c*c), 1)
	root := b.Sqrt(b.Max(arg, b.Full(n, derivGuard*derivGuard)))
	return b.Div(b.MulScalar(x, c), root), b.Div(b.MulScalar(y, c), root)
}

// Distance solves the quadratic A·t² + 2B·t + C = 0 built from the implicit
// conic equation and selects the physically first positive root along the
// propagation direction. Negative or complex roots are misses.
func (s *Standard) Distance(bundle *rays.Bundle) (backend.Array, backend.Array) {
	b := bundle.Backend()
	n := bundle.Len()
	c := s.curvature()
	if c == 0 {
		p := Plane{cs: s.cs}
		return p.Distance(bundle)
	}
	k1 := 1 + s.Conic

	// A = c·(L² + M² + (1+k)·N²)
	// B = c·(x·L + y·M + (1+k)·z·N) − N
	// C = c·(x² + y² + (1+k)·z²) − 2z
	a := b.MulScalar(b.Add(b.Add(b.Mul(bundle.L, bundle.L), b.Mul(bundle.M, bundle.M)),
		b.MulScalar(b.Mul(bundle.N, bundle.N), k1)), c)
	bb := b.Sub(b.MulScalar(b.Add(b.Add(b.Mul(bundle.X, bundle.L), b.Mul(bundle.Y, bundle.M)),
		b.MulScalar(b.Mul(bundle.Z, bundle.N), k1)), c), bundle.N)
	cc := b.Sub(b.MulScalar(b.Add(r2(b, bundle.X, bundle.Y),
		b.MulScalar(b.Mul(bundle.Z, bundle.Z), k1)), c),
		b.MulScalar(bundle.Z, 2))

	disc := b.Sub(b.Mul(bb, bb), b.Mul(a, cc))
	realRoots := b.GreaterEq(disc, b.Zeros(n))
	sqrtD := b.Sqrt(b.Max(disc, b.Zeros(n)))

	// Quadratic path: both roots, nearest positive wins. Linear fallback
	// covers A ≈ 0 (e.g. paraboloid traced along the axis).
	linear := b.LessEq(b.Abs(a), b.Full(n, 1e-14))
	aSafe := b.Where(linear, b.Full(n, 1), a)
	t1 := b.Div(b.Sub(b.Neg(bb), sqrtD), aSafe)
	t2 := b.Div(b.Add(b.Neg(bb), sqrtD), aSafe)
	tNear := b.Min(t1, t2)
	tFar := b.Max(t1, t2)
	tMinArr := b.Full(n, tHitMin)
	useNear := b.Greater(tNear, tMinArr)
	tQuad := b.Where(useNear, tNear, tFar)

	bSafe := b.Where(b.Greater(b.Abs(bb), b.Full(n, derivGuard)), bb, b.Full(n, 1))
	tLin := b.Div(b.Neg(cc), b.MulScalar(bSafe, 2))

	t := b.Where(linear, tLin, tQuad)
	hit := b.And(realRoots, b.Greater(t, tMinArr))
	return t, hit
}

func (s *Standard) SurfaceNormal(bundle *rays.Bundle) (backend.Array, backend.Array, backend.Array) {
	b := bundle.Backend()
	dzdx, dzdy := s.Partials(b, bundle.X, bundle.Y)
	return normalFromPartials(b, dzdx, dzdy)
}
