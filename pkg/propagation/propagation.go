// Package propagation moves a ray bundle through the medium between two
// surfaces. The homogeneous model is a straight-line transfer; the GRIN
// model integrates the ray equation through a graded-index medium with a
// fixed-step RK4 scheme. Both accumulate optical path length and leave
// invalid rays frozen in place.
package propagation

import (
	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/materials"
	"github.com/df07/go-sequential-raytracer/pkg/rays"
)

// Model advances every valid ray by its own path length t through the
// medium described by m, updating position and OPL in place.
type Model interface {
	Propagate(bundle *rays.Bundle, t backend.Array, m materials.Material) error
}

// Homogeneous is straight-line propagation through a uniform medium
type Homogeneous struct{}

// NewHomogeneous creates the uniform-medium transfer
func NewHomogeneous() *Homogeneous { return &Homogeneous{} }

func (h *Homogeneous) Propagate(bundle *rays.Bundle, t backend.Array, m materials.Material) error {
	b := bundle.Backend()
	valid := bundle.ValidMask()
	step := b.Where(valid, t, b.Zeros(bundle.Len()))

	bundle.X = b.Add(bundle.X, b.Mul(bundle.L, step))
	bundle.Y = b.Add(bundle.Y, b.Mul(bundle.M, step))
	bundle.Z = b.Add(bundle.Z, b.Mul(bundle.N, step))

	n := materials.IndexArray(b, m, bundle.Wavelength)
	bundle.OPL = b.Add(bundle.OPL, b.Mul(n, step))
	return nil
}
