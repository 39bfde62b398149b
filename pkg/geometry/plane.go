package geometry

import (
	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/coordsys"
	"github.com/df07/go-sequential-raytracer/pkg/rays"
)

// Plane is the flat surface z = 0 in its local frame
type Plane struct {
	cs *coordsys.CoordinateSystem
}

// NewPlane creates a plane placed by the given coordinate system
func NewPlane(cs *coordsys.CoordinateSystem) *Plane {
	return &Plane{cs: cs}
}

func (p *Plane) CoordinateSystem() *coordsys.CoordinateSystem { return p.cs }

func (p *Plane) Sag(b backend.Backend, x, y backend.Array) backend.Array {
	return b.Zeros(x.Len())
}

// Distance solves z + t·N = 0. Rays parallel to the plane, starting on it
// or moving away from it are misses.
func (p *Plane) Distance(bundle *rays.Bundle) (backend.Array, backend.Array) {
	b := bundle.Backend()
	n := bundle.Len()

	parallel := b.LessEq(b.Abs(bundle.N), b.Full(n, derivGuard))
	denom := b.Where(parallel, b.Full(n, 1), bundle.N)
	t := b.Div(b.Neg(bundle.Z), denom)

	hit := b.And(b.Not(parallel), b.Greater(t, b.Full(n, tHitMin)))
	return t, hit
}

func (p *Plane) SurfaceNormal(bundle *rays.Bundle) (backend.Array, backend.Array, backend.Array) {
	b := bundle.Backend()
	n := bundle.Len()
	return b.Zeros(n), b.Zeros(n), b.Full(n, 1)
}
