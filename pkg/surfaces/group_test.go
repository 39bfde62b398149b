package surfaces

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-sequential-raytracer/pkg/aperture"
	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/coordsys"
	"github.com/df07/go-sequential-raytracer/pkg/geometry"
	"github.com/df07/go-sequential-raytracer/pkg/interactions"
	"github.com/df07/go-sequential-raytracer/pkg/materials"
	vmath "github.com/df07/go-sequential-raytracer/pkg/math"
	"github.com/df07/go-sequential-raytracer/pkg/rays"
)

func frameAt(z float64) *coordsys.CoordinateSystem {
	return coordsys.New(vmath.NewVec3(0, 0, z), vmath.NewVec3(0, 0, 0))
}

func mustSurface(t *testing.T, cfg Config) *Surface {
	t.Helper()
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

// singlet builds a plano-convex lens: R=50 front at z=0, flat back at z=2,
// n=1.5. Paraxially EFL=100, BFL=98.6667.
func singlet(t *testing.T) *Group {
	t.Helper()
	glass, err := materials.NewIdeal(1.5, 0)
	require.NoError(t, err)

	front, err := geometry.NewStandard(frameAt(0), 50, 0)
	require.NoError(t, err)
	back := geometry.NewPlane(frameAt(2))

	return NewGroup(
		mustSurface(t, Config{Geometry: front, After: glass, Thickness: 2}),
		mustSurface(t, Config{Geometry: back, Before: glass, Thickness: 98.6667}),
	)
}

func parallelBundle(t *testing.T, b backend.Backend, heights []float64) *rays.Bundle {
	t.Helper()
	n := len(heights)
	zeros := make([]float64, n)
	ones := make([]float64, n)
	wl := make([]float64, n)
	for i := range ones {
		ones[i] = 1
		wl[i] = 0.5876
	}
	bundle, err := rays.NewBundle(b, rays.Spec{
		X: make([]float64, n), Y: heights, Z: zeros,
		L: make([]float64, n), M: make([]float64, n), N: ones,
		Wavelength: wl,
	})
	require.NoError(t, err)
	return bundle
}

func TestTrace_PlanarMirror(t *testing.T) {
	b := backend.NewVector(backend.Float64)
	mirror := mustSurface(t, Config{
		Geometry:    geometry.NewPlane(frameAt(10)),
		Interaction: interactions.NewReflect(),
	})
	g := NewGroup(mirror)

	out, err := g.Trace(parallelBundle(t, b, []float64{0}))
	require.NoError(t, err)

	got := out.At(0)
	assert.InDelta(t, 0, got.Position.X, 1e-12)
	assert.InDelta(t, 10, got.Position.Z, 1e-12)
	assert.InDelta(t, -1, got.Direction.Z, 1e-12)
	assert.InDelta(t, 10, got.OPL, 1e-12, "air path of 10 accumulates OPL 10")
}

func TestTrace_SingletFocus(t *testing.T) {
	b := backend.NewVector(backend.Float64)
	g := singlet(t)

	out, err := g.Trace(parallelBundle(t, b, []float64{0.01}))
	require.NoError(t, err)

	// A near-axis parallel ray crosses the axis one BFL behind the lens
	ray := out.At(0).Ray()
	crossing := ray.At(-ray.Origin.Y / ray.Direction.Y).Z
	assert.InDelta(t, 2+98.6667, crossing, 1e-3)
	assert.Less(t, out.DirectionError(), 1e-9)
}

func TestTrace_GradBackendMatchesVector(t *testing.T) {
	g := singlet(t)

	outV, err := g.Trace(parallelBundle(t, backend.NewVector(backend.Float64), []float64{3}))
	require.NoError(t, err)
	outG, err := g.Trace(parallelBundle(t, backend.NewGrad(backend.Float64), []float64{3}))
	require.NoError(t, err)

	assert.InDelta(t, outV.At(0).Position.Y, outG.At(0).Position.Y, 1e-12)
	assert.InDelta(t, outV.At(0).Direction.Y, outG.At(0).Direction.Y, 1e-12)
	assert.InDelta(t, outV.At(0).OPL, outG.At(0).OPL, 1e-12)
}

func TestTrace_ApertureClipKeepsShape(t *testing.T) {
	b := backend.NewVector(backend.Float64)
	stop, err := aperture.NewRadial(1, 0)
	require.NoError(t, err)
	g := NewGroup(mustSurface(t, Config{
		Geometry: geometry.NewPlane(frameAt(5)),
		Aperture: stop,
		IsStop:   true,
	}))

	in := parallelBundle(t, b, []float64{0.5, 2})
	out, err := g.Trace(in)
	require.NoError(t, err)

	require.Equal(t, 2, out.Len(), "bundle shape is invariant under clipping")
	assert.Equal(t, 1.0, out.At(0).Intensity)
	assert.Equal(t, 0.0, out.At(1).Intensity)
	// Clipped ray keeps position and direction for diagnostics
	assert.InDelta(t, 2, out.At(1).Position.Y, 1e-12)

	// Energy never increases across a surface
	for i := 0; i < out.Len(); i++ {
		assert.LessOrEqual(t, out.At(i).Intensity, in.At(i).Intensity)
	}
}

func TestTrace_InputBundleUntouched(t *testing.T) {
	b := backend.NewVector(backend.Float64)
	g := NewGroup(mustSurface(t, Config{
		Geometry:    geometry.NewPlane(frameAt(10)),
		Interaction: interactions.NewReflect(),
	}))

	in := parallelBundle(t, b, []float64{0})
	_, err := g.Trace(in)
	require.NoError(t, err)

	assert.Equal(t, 0.0, in.At(0).Position.Z)
	assert.Equal(t, 1.0, in.At(0).Direction.Z)
}

func TestTrace_MissInvalidates(t *testing.T) {
	b := backend.NewVector(backend.Float64)
	// Sphere of radius 5 only extends to r=5; a ray at height 8 misses
	sphere, err := geometry.NewStandard(frameAt(10), 5, 0)
	require.NoError(t, err)
	g := NewGroup(mustSurface(t, Config{Geometry: sphere}))

	out, err := g.Trace(parallelBundle(t, b, []float64{0, 8}))
	require.NoError(t, err)
	assert.NotZero(t, out.At(0).Intensity)
	assert.Zero(t, out.At(1).Intensity)
}

func TestRecorded(t *testing.T) {
	b := backend.NewVector(backend.Float64)
	g := NewGroup(mustSurface(t, Config{
		Geometry:    geometry.NewPlane(frameAt(10)),
		Interaction: interactions.NewReflect(),
	}))

	_, err := g.Recorded(0)
	assert.Error(t, err, "no recordings before the first trace")

	_, err = g.Trace(parallelBundle(t, b, []float64{0}))
	require.NoError(t, err)

	rec, err := g.Recorded(0)
	require.NoError(t, err)
	// Snapshot is in the surface's local frame, post interaction
	assert.InDelta(t, 0, rec.At(0).Position.Z, 1e-12)
	assert.InDelta(t, -1, rec.At(0).Direction.Z, 1e-12)

	_, err = g.Recorded(5)
	assert.Error(t, err)
}

func TestValidate_StructuralErrors(t *testing.T) {
	glassA, _ := materials.NewIdeal(1.5, 0)
	glassB, _ := materials.NewIdeal(1.6, 0)

	t.Run("empty group", func(t *testing.T) {
		err := NewGroup().Validate()
		var serr *StructuralError
		require.ErrorAs(t, err, &serr)
	})

	t.Run("two stops", func(t *testing.T) {
		g := NewGroup(
			mustSurface(t, Config{Geometry: geometry.NewPlane(frameAt(0)), IsStop: true}),
			mustSurface(t, Config{Geometry: geometry.NewPlane(frameAt(1)), IsStop: true}),
		)
		assert.Error(t, g.Validate())
	})

	t.Run("broken material chain", func(t *testing.T) {
		g := NewGroup(
			mustSurface(t, Config{Geometry: geometry.NewPlane(frameAt(0)), After: glassA}),
			mustSurface(t, Config{Geometry: geometry.NewPlane(frameAt(1)), Before: glassB}),
		)
		var serr *StructuralError
		require.ErrorAs(t, g.Validate(), &serr)
		assert.Equal(t, 0, serr.Surface)
	})

	t.Run("valid singlet", func(t *testing.T) {
		assert.NoError(t, singlet(t).Validate())
	})
}

func TestParaxialTrace_Singlet(t *testing.T) {
	g := singlet(t)
	pb, err := rays.NewParaxialBundle([]float64{1}, []float64{0}, []float64{0.5876})
	require.NoError(t, err)

	require.NoError(t, g.ParaxialTrace(pb))

	// After the curved surface u = −φ/n = −1/150; the flat back leaves the
	// reduced angle, so u' = 1.5·(−1/150) = −0.01.
	assert.InDelta(t, -0.01, pb.U[0], 1e-12)
	// y at the back surface, then transferred by the back focal gap
	yBack := 1 - 2.0/150
	assert.InDelta(t, yBack+98.6667*-0.01, pb.Y[0], 1e-9)
}

func TestFirstOrderProperties(t *testing.T) {
	g := singlet(t)

	fo, err := g.FirstOrderProperties(0.5876)
	require.NoError(t, err)
	assert.InDelta(t, 100, fo.EFL, 1e-9)
	assert.InDelta(t, 98.666666667, fo.BFL, 1e-6)
}

func TestSetters_InvalidateFirstOrderCache(t *testing.T) {
	g := singlet(t)

	fo, err := g.FirstOrderProperties(0.5876)
	require.NoError(t, err)
	require.InDelta(t, 100, fo.EFL, 1e-9)

	require.NoError(t, g.SetRadius(0, 100))
	fo, err = g.FirstOrderProperties(0.5876)
	require.NoError(t, err)
	assert.InDelta(t, 200, fo.EFL, 1e-9, "doubling the radius halves the power")
}

func TestSetThickness_MovesDownstreamSurfaces(t *testing.T) {
	b := backend.NewVector(backend.Float64)
	g := singlet(t)

	before, err := g.Trace(parallelBundle(t, b, []float64{3}))
	require.NoError(t, err)
	require.InDelta(t, 2, before.At(0).Position.Z, 1e-12)

	require.NoError(t, g.SetThickness(0, 20))

	after, err := g.Trace(parallelBundle(t, b, []float64{3}))
	require.NoError(t, err)
	// The flat back surface moved from z=2 to z=20
	assert.InDelta(t, 20, after.At(0).Position.Z, 1e-12)
	// A converging ray exits lower after the longer glass path
	assert.Less(t, after.At(0).Position.Y, before.At(0).Position.Y)

	// The paraxial model sees the same edit: BFL = EFL − t/n
	fo, err := g.FirstOrderProperties(0.5876)
	require.NoError(t, err)
	assert.InDelta(t, 100-20/1.5, fo.BFL, 1e-9)
}

func TestSetters_Validation(t *testing.T) {
	g := singlet(t)

	assert.Error(t, g.SetRadius(5, 10), "index out of range")
	assert.Error(t, g.SetRadius(1, 10), "planes have no radius")
	assert.Error(t, g.SetThickness(0, math.NaN()))
	assert.Error(t, g.SetTilt(0, vmath.NewVec3(math.Inf(1), 0, 0)))
	assert.NoError(t, g.SetThickness(0, 3))
	assert.Error(t, g.SetCoefficient(0, 0, 1), "conics have no coefficients")
}

func TestStop(t *testing.T) {
	g := singlet(t)
	assert.Equal(t, -1, g.Stop())

	g.Surfaces[1].IsStop = true
	assert.Equal(t, 1, g.Stop())
}
