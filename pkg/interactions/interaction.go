// Package interactions implements the models that turn geometric contact
// into new ray state: Snell refraction / mirror reflection, the idealized
// thin lens, and the grating equation. Each model updates direction,
// intensity and polarization for a whole bundle sitting on the surface in
// its local frame. Rays that are already invalid are left untouched, so a
// blocked ray is carried inertly through the rest of the system.
package interactions

import (
	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/coatings"
	"github.com/df07/go-sequential-raytracer/pkg/rays"
)

// Model is the per-surface interaction strategy
type Model interface {
	// Interact updates the bundle in place. The normal arrays are unit
	// vectors at each ray's intersection point; n1 and n2 are the
	// refractive indices before and after the surface at each ray's
	// wavelength. A nil coating passes intensity through unchanged.
	Interact(bundle *rays.Bundle, nx, ny, nz, n1, n2 backend.Array, coat coatings.Coating) error
}

// dot3 returns the elementwise dot product of two direction triples
func dot3(b backend.Backend, ax, ay, az, bx, by, bz backend.Array) backend.Array {
	return b.Add(b.Add(b.Mul(ax, bx), b.Mul(ay, by)), b.Mul(az, bz))
}

// orientAgainstRay flips the normal where needed so it points along the
// propagation direction, and returns the non-negative incidence cosine.
func orientAgainstRay(b backend.Backend, bundle *rays.Bundle, nx, ny, nz backend.Array) (ox, oy, oz, cosI backend.Array) {
	d := dot3(b, bundle.L, bundle.M, bundle.N, nx, ny, nz)
	forward := b.GreaterEq(d, b.Zeros(d.Len()))
	ox = b.Where(forward, nx, b.Neg(nx))
	oy = b.Where(forward, ny, b.Neg(ny))
	oz = b.Where(forward, nz, b.Neg(nz))
	cosI = b.Abs(d)
	return ox, oy, oz, cosI
}

// applyCoating scales intensity by the coating efficiency and composes the
// per-ray Jones factors for polarization-tracking bundles. Only rays in
// the valid mask are touched.
func applyCoating(b backend.Backend, bundle *rays.Bundle, coat coatings.Coating,
	cosI, n1, n2, valid backend.Array, reflective bool) {
	if coat == nil {
		return
	}
	eff := coat.Efficiency(b, cosI, n1, n2, reflective)
	scaled := b.Mul(bundle.Intensity, eff)
	bundle.Intensity = b.Where(valid, scaled, bundle.Intensity)

	if bundle.Pol != nil {
		for i := 0; i < bundle.Len(); i++ {
			if valid.At(i) == 0 {
				continue
			}
			bundle.Pol.Compose(i, coat.Jones(cosI.At(i), n1.At(i), n2.At(i), reflective))
		}
	}
}

// updateWhere writes the new direction only for rays in the mask
func updateWhere(b backend.Backend, bundle *rays.Bundle, mask, l, m, n backend.Array) {
	bundle.L = b.Where(mask, l, bundle.L)
	bundle.M = b.Where(mask, m, bundle.M)
	bundle.N = b.Where(mask, n, bundle.N)
}
