package geometry

import (
	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/coordsys"
	"github.com/df07/go-sequential-raytracer/pkg/rays"
)

const (
	// newtonTol is the absolute tolerance on F(x,y,z) = z − sag(x,y)
	newtonTol = 1e-11
	// newtonMaxIter caps the Newton iteration count; rays that have not
	// converged by then are reported as misses, not errors.
	newtonMaxIter = 100
	// derivGuard rejects steps where the directional derivative of F is
	// near zero, which is the grazing-incidence case.
	derivGuard = 1e-10
)

// iterative is the shared base for every shape whose sag cannot be inverted
// in closed form. It solves F(x,y,z) = z − sag(x,y) = 0 along each ray by
// Newton-Raphson, starting from the planar intersection estimate, and
// derives normals from the profile's analytic partials.
type iterative struct {
	cs      *coordsys.CoordinateSystem
	profile profile
}

func (it *iterative) CoordinateSystem() *coordsys.CoordinateSystem { return it.cs }

// Distance runs the whole bundle through a vectorized Newton iteration.
// Converged rays are frozen by masking; rays that fail to converge, graze
// the surface, or intersect behind the origin come back with hit=0.
func (it *iterative) Distance(bundle *rays.Bundle) (backend.Array, backend.Array) {
	b := bundle.Backend()
	n := bundle.Len()
	zero := b.Zeros(n)

	// Planar start estimate t0 = −z/N, guarded against rays parallel to
	// the vertex plane.
	nzSafe := b.Greater(b.Abs(bundle.N), b.Full(n, derivGuard))
	denom := b.Where(nzSafe, bundle.N, b.Full(n, 1))
	t := b.Where(nzSafe, b.Div(b.Neg(bundle.Z), denom), zero)
	alive := nzSafe

	converged := zero
	for i := 0; i < newtonMaxIter; i++ {
		x := b.Add(bundle.X, b.Mul(bundle.L, t))
		y := b.Add(bundle.Y, b.Mul(bundle.M, t))
		z := b.Add(bundle.Z, b.Mul(bundle.N, t))

		f := b.Sub(z, it.profile.Sag(b, x, y))
		nowConverged := b.LessEq(b.Abs(f), b.Full(n, newtonTol))
		converged = b.Or(converged, b.And(alive, nowConverged))

		active := b.And(alive, b.Not(converged))
		if !b.Any(active) {
			break
		}

		// dF/dt = N − (dz/dx)·L − (dz/dy)·M
		dzdx, dzdy := it.profile.Partials(b, x, y)
		dfdt := b.Sub(bundle.N, b.Add(b.Mul(dzdx, bundle.L), b.Mul(dzdy, bundle.M)))
		safe := b.Greater(b.Abs(dfdt), b.Full(n, derivGuard))
		alive = b.And(alive, b.Or(safe, converged))

		step := b.Div(f, b.Where(safe, dfdt, b.Full(n, 1)))
		t = b.Where(active, b.Sub(t, step), t)
	}

	hit := b.And(converged, b.Greater(t, b.Full(n, tHitMin)))
	return t, hit
}

func (it *iterative) SurfaceNormal(bundle *rays.Bundle) (backend.Array, backend.Array, backend.Array) {
	b := bundle.Backend()
	dzdx, dzdy := it.profile.Partials(b, bundle.X, bundle.Y)
	return normalFromPartials(b, dzdx, dzdy)
}
