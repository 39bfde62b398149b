// Package rays defines the ray bundle data model: a fixed-size batch of rays
// whose per-ray fields live in backend arrays so every trace step can operate
// on the whole bundle at once.
package rays

import (
	"fmt"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
	vmath "github.com/df07/go-sequential-raytracer/pkg/math"
)

// Bundle is a fixed-size batch of rays. Positions are (X,Y,Z), directions
// are the cosines (L,M,N) with L²+M²+N²=1. Intensity 0 marks a ray as
// blocked/invalid; such rays are carried inertly, never removed, so the
// bundle keeps its size and index correspondence for the whole trace.
type Bundle struct {
	X, Y, Z    backend.Array
	L, M, N    backend.Array
	Wavelength backend.Array
	Intensity  backend.Array
	OPL        backend.Array

	// Pol is non-nil only for polarization-tracking traces
	Pol *Polarization

	b backend.Backend
}

// Spec carries the per-ray fields for bundle construction. All slices must
// have equal length. Intensity defaults to 1 when nil; directions are
// normalized on construction.
type Spec struct {
	X, Y, Z           []float64
	L, M, N           []float64
	Wavelength        []float64
	Intensity         []float64
	TrackPolarization bool
}

// NewBundle validates spec and builds a bundle on the given backend.
// Wavelengths must be positive and intensities non-negative; violations are
// construction errors, never discovered mid-trace.
func NewBundle(b backend.Backend, spec Spec) (*Bundle, error) {
	n := len(spec.X)
	for name, s := range map[string][]float64{
		"y": spec.Y, "z": spec.Z, "l": spec.L, "m": spec.M, "n": spec.N,
		"wavelength": spec.Wavelength,
	} {
		if len(s) != n {
			return nil, fmt.Errorf("rays: field %s has length %d, want %d", name, len(s), n)
		}
	}
	for i, w := range spec.Wavelength {
		if w <= 0 {
			return nil, fmt.Errorf("rays: ray %d has non-positive wavelength %g", i, w)
		}
	}
	intensity := spec.Intensity
	if intensity == nil {
		intensity = make([]float64, n)
		for i := range intensity {
			intensity[i] = 1
		}
	} else if len(intensity) != n {
		return nil, fmt.Errorf("rays: field intensity has length %d, want %d", len(intensity), n)
	}
	for i, v := range intensity {
		if v < 0 {
			return nil, fmt.Errorf("rays: ray %d has negative intensity %g", i, v)
		}
	}

	bundle := &Bundle{
		X:          b.FromSlice(spec.X),
		Y:          b.FromSlice(spec.Y),
		Z:          b.FromSlice(spec.Z),
		L:          b.FromSlice(spec.L),
		M:          b.FromSlice(spec.M),
		N:          b.FromSlice(spec.N),
		Wavelength: b.FromSlice(spec.Wavelength),
		Intensity:  b.FromSlice(intensity),
		OPL:        b.Zeros(n),
		b:          b,
	}
	bundle.NormalizeDirections()
	if spec.TrackPolarization {
		bundle.Pol = NewPolarization(n)
	}
	return bundle, nil
}

// Len returns the number of rays in the bundle
func (r *Bundle) Len() int { return r.X.Len() }

// Backend returns the numeric engine the bundle lives on
func (r *Bundle) Backend() backend.Backend { return r.b }

// Clone returns a deep copy of the bundle on the same backend
func (r *Bundle) Clone() *Bundle {
	out := &Bundle{
		X: r.b.Copy(r.X), Y: r.b.Copy(r.Y), Z: r.b.Copy(r.Z),
		L: r.b.Copy(r.L), M: r.b.Copy(r.M), N: r.b.Copy(r.N),
		Wavelength: r.b.Copy(r.Wavelength),
		Intensity:  r.b.Copy(r.Intensity),
		OPL:        r.b.Copy(r.OPL),
		b:          r.b,
	}
	if r.Pol != nil {
		out.Pol = r.Pol.Clone()
	}
	return out
}

// WithFrame returns a copy of the bundle whose position and direction arrays
// are replaced, sharing the remaining per-ray state. Backend arrays are
// immutable, so sharing is safe; the polarization record is shared because a
// frame change never alters it.
func (r *Bundle) WithFrame(x, y, z, l, m, n backend.Array) *Bundle {
	return &Bundle{
		X: x, Y: y, Z: z, L: l, M: m, N: n,
		Wavelength: r.Wavelength,
		Intensity:  r.Intensity,
		OPL:        r.OPL,
		Pol:        r.Pol,
		b:          r.b,
	}
}

// RayView is a detached scalar view of one ray, for diagnostics and tests.
type RayView struct {
	Position   vmath.Vec3
	Direction  vmath.Vec3
	Wavelength float64
	Intensity  float64
	OPL        float64
}

// Ray returns the view as a geometric ray for point-along-ray queries
func (v RayView) Ray() vmath.Ray {
	return vmath.NewRay(v.Position, v.Direction)
}

// At returns a detached view of ray i
func (r *Bundle) At(i int) RayView {
	return RayView{
		Position:   vmath.NewVec3(r.X.At(i), r.Y.At(i), r.Z.At(i)),
		Direction:  vmath.NewVec3(r.L.At(i), r.M.At(i), r.N.At(i)),
		Wavelength: r.Wavelength.At(i),
		Intensity:  r.Intensity.At(i),
		OPL:        r.OPL.At(i),
	}
}

// Invalidate zeroes the intensity of every ray selected by mask. Position
// and direction are kept for diagnostic inspection.
func (r *Bundle) Invalidate(mask backend.Array) {
	r.Intensity = r.b.Where(mask, r.b.Zeros(r.Len()), r.Intensity)
}

// ValidMask returns a mask of rays that still carry intensity
func (r *Bundle) ValidMask() backend.Array {
	return r.b.Greater(r.Intensity, r.b.Zeros(r.Len()))
}

// NormalizeDirections rescales (L,M,N) to unit length. A zero-length
// direction is left untouched; such rays must already be invalid.
func (r *Bundle) NormalizeDirections() {
	b := r.b
	norm := b.Sqrt(b.Add(b.Add(b.Mul(r.L, r.L), b.Mul(r.M, r.M)), b.Mul(r.N, r.N)))
	safe := b.Where(b.Greater(norm, b.Zeros(r.Len())), norm, b.Full(r.Len(), 1))
	r.L = b.Div(r.L, safe)
	r.M = b.Div(r.M, safe)
	r.N = b.Div(r.N, safe)
}

// DirectionError returns the largest |L²+M²+N²−1| over the valid rays,
// used by tests to assert the unit-direction invariant.
func (r *Bundle) DirectionError() float64 {
	b := r.b
	normSq := b.Add(b.Add(b.Mul(r.L, r.L), b.Mul(r.M, r.M)), b.Mul(r.N, r.N))
	err := b.Abs(b.AddScalar(normSq, -1))
	valid := r.ValidMask()
	masked := b.Mul(err, valid)

	worst := 0.0
	for i := 0; i < masked.Len(); i++ {
		if v := masked.At(i); v > worst {
			worst = v
		}
	}
	return worst
}
