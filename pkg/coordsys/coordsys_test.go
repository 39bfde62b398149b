package coordsys

import (
	"math"
	"testing"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
	vmath "github.com/df07/go-sequential-raytracer/pkg/math"
	"github.com/df07/go-sequential-raytracer/pkg/rays"
)

func newTestBundle(t *testing.T) *rays.Bundle {
	t.Helper()
	b := backend.NewVector(backend.Float64)
	bundle, err := rays.NewBundle(b, rays.Spec{
		X: []float64{0, 1, -2.5}, Y: []float64{0, 2, 0.5}, Z: []float64{0, 3, 7},
		L: []float64{0, 0.1, 0.3}, M: []float64{0, 0.2, -0.4}, N: []float64{1, 1, 1},
		Wavelength: []float64{0.55, 0.55, 0.48},
	})
	if err != nil {
		t.Fatalf("NewBundle failed: %v", err)
	}
	return bundle
}

func TestCoordinateSystem_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cs   *CoordinateSystem
	}{
		{"identity", New(vmath.NewVec3(0, 0, 0), vmath.NewVec3(0, 0, 0))},
		{"translation only", New(vmath.NewVec3(1, -2, 30), vmath.NewVec3(0, 0, 0))},
		{"tilt only", New(vmath.NewVec3(0, 0, 0), vmath.NewVec3(0.2, -0.5, 1.1))},
		{"full placement", New(vmath.NewVec3(3, 4, -5), vmath.NewVec3(0.7, 0.1, -0.9))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newTestBundle(t)
			out := tt.cs.ToGlobal(tt.cs.ToLocal(in))

			for i := 0; i < in.Len(); i++ {
				orig, got := in.At(i), out.At(i)
				if orig.Position.Subtract(got.Position).Length() > 1e-10 {
					t.Errorf("Ray %d position: expected %v, got %v", i, orig.Position, got.Position)
				}
				if orig.Direction.Subtract(got.Direction).Length() > 1e-10 {
					t.Errorf("Ray %d direction: expected %v, got %v", i, orig.Direction, got.Direction)
				}
			}
			if out.DirectionError() > 1e-12 {
				t.Errorf("Direction no longer unit after round trip: %g", out.DirectionError())
			}
		})
	}
}

func TestCoordinateSystem_ToLocalTranslation(t *testing.T) {
	cs := New(vmath.NewVec3(0, 0, 10), vmath.NewVec3(0, 0, 0))
	in := newTestBundle(t)
	out := cs.ToLocal(in)

	if got := out.At(0).Position.Z; math.Abs(got-(-10)) > 1e-12 {
		t.Errorf("Expected z=-10 in local frame, got %g", got)
	}
}

func TestCoordinateSystem_NestedReference(t *testing.T) {
	// A frame 5 units down the z axis of a reference that is itself rotated
	// 90 degrees about y: local origin should land at global (5, 0, 0).
	ref := New(vmath.NewVec3(0, 0, 0), vmath.NewVec3(0, math.Pi/2, 0))
	cs := NewRelative(vmath.NewVec3(0, 0, 5), vmath.NewVec3(0, 0, 0), ref)

	got := cs.ToGlobalPoint(vmath.NewVec3(0, 0, 0))
	want := vmath.NewVec3(5, 0, 0)
	if got.Subtract(want).Length() > 1e-12 {
		t.Errorf("Expected %v, got %v", want, got)
	}

	back := cs.ToLocalPoint(got)
	if back.Length() > 1e-12 {
		t.Errorf("Point round trip failed: %v", back)
	}
}

func TestCoordinateSystem_ValidateRejectsNonFinite(t *testing.T) {
	cs := New(vmath.NewVec3(0, math.NaN(), 0), vmath.NewVec3(0, 0, 0))
	if err := cs.Validate(); err == nil {
		t.Error("Expected validation error for NaN translation")
	}

	ok := New(vmath.NewVec3(0, 0, 5), vmath.NewVec3(0.1, 0, 0))
	if err := ok.Validate(); err != nil {
		t.Errorf("Unexpected validation error: %v", err)
	}
}
