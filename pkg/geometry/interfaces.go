// Package geometry implements the surface shape family: sag evaluation,
// ray/surface intersection and surface normals, each computed for a whole
// bundle at once in the surface's local frame. Closed-form shapes (plane,
// sphere/conic) solve the intersection analytically; every other shape
// shares one Newton-Raphson solver parameterized by its sag function and
// partial derivatives.
package geometry

import (
	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/coordsys"
	"github.com/df07/go-sequential-raytracer/pkg/rays"
)

// Geometry is the capability set every surface shape provides. All
// operations work in the surface's local frame on whole bundles.
type Geometry interface {
	// CoordinateSystem returns the frame that places this shape
	CoordinateSystem() *coordsys.CoordinateSystem

	// Sag returns the surface height z(x,y)
	Sag(b backend.Backend, x, y backend.Array) backend.Array

	// Distance returns the propagation distance along each ray to the
	// first valid intersection plus a hit mask. Tangent rays, rays
	// starting on the surface and rays diverging from it are reported as
	// misses, never as errors.
	Distance(bundle *rays.Bundle) (t, hit backend.Array)

	// SurfaceNormal returns the unit normal at each ray's current
	// position, oriented with positive z.
	SurfaceNormal(bundle *rays.Bundle) (nx, ny, nz backend.Array)
}

// profile supplies a sag function and its analytic partial derivatives; it
// is what the shared Newton solver and the generic normal computation are
// parameterized by.
type profile interface {
	Sag(b backend.Backend, x, y backend.Array) backend.Array
	// Partials returns (dz/dx, dz/dy)
	Partials(b backend.Backend, x, y backend.Array) (backend.Array, backend.Array)
}

// Intersections closer than tHitMin are treated as the ray starting on the
// surface and classified as misses.
const tHitMin = 1e-10

// r2 returns x² + y²
func r2(b backend.Backend, x, y backend.Array) backend.Array {
	return b.Add(b.Mul(x, x), b.Mul(y, y))
}

// normalFromPartials assembles the unit normal proportional to
// (−dz/dx, −dz/dy, 1).
func normalFromPartials(b backend.Backend, dzdx, dzdy backend.Array) (backend.Array, backend.Array, backend.Array) {
	n := dzdx.Len()
	one := b.Full(n, 1)
	norm := b.Sqrt(b.Add(b.Add(b.Mul(dzdx, dzdx), b.Mul(dzdy, dzdy)), one))
	nx := b.Div(b.Neg(dzdx), norm)
	ny := b.Div(b.Neg(dzdy), norm)
	nz := b.Div(one, norm)
	return nx, ny, nz
}
