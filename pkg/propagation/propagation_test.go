package propagation

import (
	"math"
	"testing"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/materials"
	"github.com/df07/go-sequential-raytracer/pkg/rays"
)

func newTestBundle(t *testing.T, b backend.Backend, spec rays.Spec) *rays.Bundle {
	t.Helper()
	bundle, err := rays.NewBundle(b, spec)
	if err != nil {
		t.Fatalf("NewBundle failed: %v", err)
	}
	return bundle
}

func TestHomogeneous_Transfer(t *testing.T) {
	b := backend.NewVector(backend.Float64)
	bundle := newTestBundle(t, b, rays.Spec{
		X: []float64{0}, Y: []float64{0}, Z: []float64{0},
		L: []float64{0.6}, M: []float64{0}, N: []float64{0.8},
		Wavelength: []float64{0.55},
	})
	glass, _ := materials.NewIdeal(1.5, 0)

	if err := NewHomogeneous().Propagate(bundle, b.Full(1, 10), glass); err != nil {
		t.Fatalf("Propagate failed: %v", err)
	}

	got := bundle.At(0)
	if math.Abs(got.Position.X-6) > 1e-12 || math.Abs(got.Position.Z-8) > 1e-12 {
		t.Errorf("Expected position (6,0,8), got %v", got.Position)
	}
	if math.Abs(got.OPL-15) > 1e-12 {
		t.Errorf("Expected OPL 15, got %g", got.OPL)
	}
}

func TestHomogeneous_InvalidRaysStayPut(t *testing.T) {
	b := backend.NewVector(backend.Float64)
	bundle := newTestBundle(t, b, rays.Spec{
		X: []float64{1, 2}, Y: []float64{0, 0}, Z: []float64{0, 0},
		L: []float64{0, 0}, M: []float64{0, 0}, N: []float64{1, 1},
		Wavelength: []float64{0.55, 0.55},
		Intensity:  []float64{0, 1},
	})

	if err := NewHomogeneous().Propagate(bundle, b.Full(2, 5), materials.Air{}); err != nil {
		t.Fatalf("Propagate failed: %v", err)
	}

	if got := bundle.At(0); got.Position.Z != 0 || got.OPL != 0 {
		t.Errorf("Invalid ray must not move, got z=%g opl=%g", got.Position.Z, got.OPL)
	}
	if got := bundle.At(1); got.Position.Z != 5 {
		t.Errorf("Valid ray should advance to z=5, got %g", got.Position.Z)
	}
}

func TestGRIN_UniformProfileMatchesStraightLine(t *testing.T) {
	b := backend.NewVector(backend.Float64)
	bundle := newTestBundle(t, b, rays.Spec{
		X: []float64{0.3}, Y: []float64{-0.1}, Z: []float64{0},
		L: []float64{0.1}, M: []float64{0}, N: []float64{math.Sqrt(1 - 0.01)},
		Wavelength: []float64{0.55},
	})

	g, err := NewGRIN(&RadialQuadratic{N0: 1.5}, 0)
	if err != nil {
		t.Fatalf("NewGRIN failed: %v", err)
	}
	if err := g.Propagate(bundle, b.Full(1, 3), nil); err != nil {
		t.Fatalf("Propagate failed: %v", err)
	}

	got := bundle.At(0)
	wantX := 0.3 + 0.1*3
	if math.Abs(got.Position.X-wantX) > 1e-9 {
		t.Errorf("Expected x=%g, got %g", wantX, got.Position.X)
	}
	if math.Abs(got.OPL-1.5*3) > 1e-9 {
		t.Errorf("Expected OPL %g, got %g", 1.5*3, got.OPL)
	}
	if err := bundle.DirectionError(); err > 1e-12 {
		t.Errorf("Direction not unit length after GRIN: %g", err)
	}
}

func TestGRIN_ParabolicProfileFocuses(t *testing.T) {
	// n(r) = n0(1 − g²r²/2) carries a paraxial ray as x(s) = x0·cos(gs);
	// a quarter pitch brings it to the axis.
	b := backend.NewVector(backend.Float64)
	n0, g := 1.5, 0.1
	bundle := newTestBundle(t, b, rays.Spec{
		X: []float64{0.1}, Y: []float64{0}, Z: []float64{0},
		L: []float64{0}, M: []float64{0}, N: []float64{1},
		Wavelength: []float64{0.55},
	})

	grin, err := NewGRIN(&RadialQuadratic{N0: n0, NR2: -n0 * g * g / 2}, 1e-2)
	if err != nil {
		t.Fatalf("NewGRIN failed: %v", err)
	}
	quarter := math.Pi / (2 * g)
	if err := grin.Propagate(bundle, b.Full(1, quarter), nil); err != nil {
		t.Fatalf("Propagate failed: %v", err)
	}

	got := bundle.At(0)
	if math.Abs(got.Position.X) > 1e-3 {
		t.Errorf("Expected ray near axis after quarter pitch, got x=%g", got.Position.X)
	}
	// Slope at the axis crossing is −x0·g
	slope := got.Direction.X / got.Direction.Z
	if math.Abs(slope+0.1*g) > 1e-3 {
		t.Errorf("Expected slope %g, got %g", -0.1*g, slope)
	}
}

func TestGRIN_PerRayPathLengths(t *testing.T) {
	b := backend.NewVector(backend.Float64)
	bundle := newTestBundle(t, b, rays.Spec{
		X: []float64{0, 0}, Y: []float64{0, 0}, Z: []float64{0, 0},
		L: []float64{0, 0}, M: []float64{0, 0}, N: []float64{1, 1},
		Wavelength: []float64{0.55, 0.55},
	})

	g, err := NewGRIN(&RadialQuadratic{N0: 1.2}, 0)
	if err != nil {
		t.Fatalf("NewGRIN failed: %v", err)
	}
	if err := g.Propagate(bundle, b.FromSlice([]float64{1, 2.5}), nil); err != nil {
		t.Fatalf("Propagate failed: %v", err)
	}

	if got := bundle.At(0).Position.Z; math.Abs(got-1) > 1e-9 {
		t.Errorf("Ray 0: expected z=1, got %g", got)
	}
	if got := bundle.At(1).Position.Z; math.Abs(got-2.5) > 1e-9 {
		t.Errorf("Ray 1: expected z=2.5, got %g", got)
	}
}

func TestNewGRIN_Validation(t *testing.T) {
	if _, err := NewGRIN(nil, 0.01); err == nil {
		t.Error("Expected error for nil profile")
	}
	g, err := NewGRIN(&RadialQuadratic{N0: 1.5}, -1)
	if err != nil {
		t.Fatalf("NewGRIN failed: %v", err)
	}
	if g.StepSize != defaultGrinStep {
		t.Errorf("Expected default step %g, got %g", defaultGrinStep, g.StepSize)
	}
}
