package interactions

import (
	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/coatings"
	"github.com/df07/go-sequential-raytracer/pkg/rays"
)

// RefractiveReflective applies Snell's law at a dielectric boundary, or the
// mirror law when IsReflective is set. Rays past the critical angle of a
// refractive surface are invalidated rather than reflected: a sequential
// trace has one outgoing branch per surface.
type RefractiveReflective struct {
	IsReflective bool
}

// NewRefract creates the standard refractive interaction
func NewRefract() *RefractiveReflective { return &RefractiveReflective{} }

// NewReflect creates the mirror interaction
func NewReflect() *RefractiveReflective { return &RefractiveReflective{IsReflective: true} }

func (rr *RefractiveReflective) Interact(bundle *rays.Bundle, nx, ny, nz, n1, n2 backend.Array, coat coatings.Coating) error {
	b := bundle.Backend()
	valid := bundle.ValidMask()
	ox, oy, oz, cosI := orientAgainstRay(b, bundle, nx, ny, nz)

	if rr.IsReflective {
		// r = d − 2(d·n̂)n̂ with n̂ oriented along the ray
		two := b.MulScalar(cosI, 2)
		l := b.Sub(bundle.L, b.Mul(two, ox))
		m := b.Sub(bundle.M, b.Mul(two, oy))
		n := b.Sub(bundle.N, b.Mul(two, oz))
		updateWhere(b, bundle, valid, l, m, n)
		applyCoating(b, bundle, coat, cosI, n1, n2, valid, true)
		return nil
	}

	size := bundle.Len()
	ones := b.Full(size, 1)
	mu := b.Div(n1, n2)
	sinTsq := b.Mul(b.Mul(mu, mu), b.Sub(ones, b.Mul(cosI, cosI)))
	tir := b.Greater(sinTsq, ones)
	cosT := b.Sqrt(b.Max(b.Sub(ones, sinTsq), b.Zeros(size)))

	// t = μd + (cosT − μ·cosI)n̂ keeps the tangential component on
	// Snell's law and reduces to d at normal incidence
	gamma := b.Sub(cosT, b.Mul(mu, cosI))
	l := b.Add(b.Mul(mu, bundle.L), b.Mul(gamma, ox))
	m := b.Add(b.Mul(mu, bundle.M), b.Mul(gamma, oy))
	n := b.Add(b.Mul(mu, bundle.N), b.Mul(gamma, oz))

	ok := b.And(valid, b.Not(tir))
	updateWhere(b, bundle, ok, l, m, n)
	bundle.Invalidate(b.And(valid, tir))
	applyCoating(b, bundle, coat, cosI, n1, n2, ok, false)
	return nil
}
