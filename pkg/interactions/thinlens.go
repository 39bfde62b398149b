package interactions

import (
	"fmt"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/coatings"
	"github.com/df07/go-sequential-raytracer/pkg/rays"
)

// ThinLens bends rays at a plane as an ideal lens of the given focal length
// would: each ray's ray slope drops by height/f in x and y. There is no
// substrate, so the surface normal and index pair only feed the coating.
type ThinLens struct {
	FocalLength float64
}

// NewThinLens creates an ideal thin lens interaction
func NewThinLens(focalLength float64) (*ThinLens, error) {
	if focalLength == 0 {
		return nil, fmt.Errorf("interactions: thin lens focal length must be non-zero")
	}
	return &ThinLens{FocalLength: focalLength}, nil
}

func (t *ThinLens) Interact(bundle *rays.Bundle, nx, ny, nz, n1, n2 backend.Array, coat coatings.Coating) error {
	b := bundle.Backend()
	size := bundle.Len()
	valid := bundle.ValidMask()

	// Slopes are taken against z; a ray running in the lens plane has no
	// defined slope and must already be invalid.
	safeN := b.Where(b.Greater(b.Abs(bundle.N), b.Zeros(size)), bundle.N, b.Full(size, 1))
	tx := b.Sub(b.Div(bundle.L, safeN), b.MulScalar(bundle.X, 1/t.FocalLength))
	ty := b.Sub(b.Div(bundle.M, safeN), b.MulScalar(bundle.Y, 1/t.FocalLength))

	norm := b.Sqrt(b.AddScalar(b.Add(b.Mul(tx, tx), b.Mul(ty, ty)), 1))
	l := b.Div(tx, norm)
	m := b.Div(ty, norm)
	n := b.Div(b.Full(size, 1), norm)

	cosI := b.Abs(bundle.N)
	updateWhere(b, bundle, valid, l, m, n)
	applyCoating(b, bundle, coat, cosI, n1, n2, valid, false)
	return nil
}
