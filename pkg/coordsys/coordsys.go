// Package coordsys implements the rigid transform chain between the global
// reference frame and each surface's local frame.
package coordsys

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
	vmath "github.com/df07/go-sequential-raytracer/pkg/math"
	"github.com/df07/go-sequential-raytracer/pkg/rays"
)

// CoordinateSystem places a surface relative to a reference frame: a
// translation plus Euler tilt angles composed as Rz·Ry·Rx. An optional
// Reference chains frames for nested placement. Immutable during a trace;
// edited only between traces.
type CoordinateSystem struct {
	Translation vmath.Vec3
	// Tilt holds rotation angles (rx, ry, rz) in radians
	Tilt      vmath.Vec3
	Reference *CoordinateSystem
}

// New creates a coordinate system from a translation and tilt angles
func New(translation, tilt vmath.Vec3) *CoordinateSystem {
	return &CoordinateSystem{Translation: translation, Tilt: tilt}
}

// NewRelative creates a coordinate system defined relative to a reference
func NewRelative(translation, tilt vmath.Vec3, ref *CoordinateSystem) *CoordinateSystem {
	return &CoordinateSystem{Translation: translation, Tilt: tilt, Reference: ref}
}

// Validate rejects non-finite placement parameters before any tracing
func (cs *CoordinateSystem) Validate() error {
	for _, v := range []float64{
		cs.Translation.X, cs.Translation.Y, cs.Translation.Z,
		cs.Tilt.X, cs.Tilt.Y, cs.Tilt.Z,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("coordsys: non-finite placement parameter %g", v)
		}
	}
	if cs.Reference != nil {
		return cs.Reference.Validate()
	}
	return nil
}

// Effective resolves the reference chain into a single rotation and
// translation mapping local points to global ones.
func (cs *CoordinateSystem) Effective() (vmath.Mat3, vmath.Vec3) {
	rot := vmath.EulerRotation(cs.Tilt.X, cs.Tilt.Y, cs.Tilt.Z)
	trans := cs.Translation
	if cs.Reference != nil {
		refRot, refTrans := cs.Reference.Effective()
		var prod mat.Dense
		prod.Mul(refRot.ToDense(), rot.ToDense())
		rot = vmath.Mat3FromDense(&prod)
		trans = refRot.Apply(trans).Add(refTrans)
	}
	return rot, trans
}

// rotate applies a 3x3 matrix to a vectorized coordinate triple
func rotate(b backend.Backend, m vmath.Mat3, x, y, z backend.Array) (backend.Array, backend.Array, backend.Array) {
	rx := b.Add(b.Add(b.MulScalar(x, m[0][0]), b.MulScalar(y, m[0][1])), b.MulScalar(z, m[0][2]))
	ry := b.Add(b.Add(b.MulScalar(x, m[1][0]), b.MulScalar(y, m[1][1])), b.MulScalar(z, m[1][2]))
	rz := b.Add(b.Add(b.MulScalar(x, m[2][0]), b.MulScalar(y, m[2][1])), b.MulScalar(z, m[2][2]))
	return rx, ry, rz
}

// ToLocal maps a global-frame bundle into this frame. Pure: the input
// bundle is not modified.
func (cs *CoordinateSystem) ToLocal(bundle *rays.Bundle) *rays.Bundle {
	b := bundle.Backend()
	rot, trans := cs.Effective()
	inv := rot.Transpose()

	px := b.AddScalar(bundle.X, -trans.X)
	py := b.AddScalar(bundle.Y, -trans.Y)
	pz := b.AddScalar(bundle.Z, -trans.Z)
	px, py, pz = rotate(b, inv, px, py, pz)
	dl, dm, dn := rotate(b, inv, bundle.L, bundle.M, bundle.N)
	return bundle.WithFrame(px, py, pz, dl, dm, dn)
}

// ToGlobal maps a local-frame bundle back to the global frame. Inverse of
// ToLocal to numerical precision.
func (cs *CoordinateSystem) ToGlobal(bundle *rays.Bundle) *rays.Bundle {
	b := bundle.Backend()
	rot, trans := cs.Effective()

	px, py, pz := rotate(b, rot, bundle.X, bundle.Y, bundle.Z)
	px = b.AddScalar(px, trans.X)
	py = b.AddScalar(py, trans.Y)
	pz = b.AddScalar(pz, trans.Z)
	dl, dm, dn := rotate(b, rot, bundle.L, bundle.M, bundle.N)
	return bundle.WithFrame(px, py, pz, dl, dm, dn)
}

// ToLocalPoint maps a single global point into this frame
func (cs *CoordinateSystem) ToLocalPoint(p vmath.Vec3) vmath.Vec3 {
	rot, trans := cs.Effective()
	return rot.Transpose().Apply(p.Subtract(trans))
}

// ToGlobalPoint maps a single local point to the global frame
func (cs *CoordinateSystem) ToGlobalPoint(p vmath.Vec3) vmath.Vec3 {
	rot, trans := cs.Effective()
	return rot.Apply(p).Add(trans)
}
