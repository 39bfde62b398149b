package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/coordsys"
	vmath "github.com/df07/go-sequential-raytracer/pkg/math"
	"github.com/df07/go-sequential-raytracer/pkg/rays"
)

func originFrame() *coordsys.CoordinateSystem {
	return coordsys.New(vmath.NewVec3(0, 0, 0), vmath.NewVec3(0, 0, 0))
}

// localBundle builds a bundle already expressed in the surface frame
func localBundle(t *testing.T, pos, dir []vmath.Vec3) *rays.Bundle {
	t.Helper()
	b := backend.NewVector(backend.Float64)
	n := len(pos)
	spec := rays.Spec{
		X: make([]float64, n), Y: make([]float64, n), Z: make([]float64, n),
		L: make([]float64, n), M: make([]float64, n), N: make([]float64, n),
		Wavelength: make([]float64, n),
	}
	for i := range pos {
		spec.X[i], spec.Y[i], spec.Z[i] = pos[i].X, pos[i].Y, pos[i].Z
		spec.L[i], spec.M[i], spec.N[i] = dir[i].X, dir[i].Y, dir[i].Z
		spec.Wavelength[i] = 0.55
	}
	bundle, err := rays.NewBundle(b, spec)
	if err != nil {
		t.Fatalf("NewBundle failed: %v", err)
	}
	return bundle
}

func TestStandard_SphereVertexIntersection(t *testing.T) {
	// Axial ray aimed at the vertex of an R=20 sphere from z=-10 must hit
	// at exactly t=10.
	s, err := NewStandard(originFrame(), 20, 0)
	if err != nil {
		t.Fatalf("NewStandard failed: %v", err)
	}
	bundle := localBundle(t,
		[]vmath.Vec3{vmath.NewVec3(0, 0, -10)},
		[]vmath.Vec3{vmath.NewVec3(0, 0, 1)})

	dist, hit := s.Distance(bundle)
	if hit.At(0) == 0 {
		t.Fatal("Expected hit, got miss")
	}
	if rel := math.Abs(dist.At(0)-10) / 10; rel > 1e-9 {
		t.Errorf("Expected t=10 within 1e-9 relative error, got %g", dist.At(0))
	}
}

func TestStandard_RootSelection(t *testing.T) {
	s, err := NewStandard(originFrame(), 20, 0)
	if err != nil {
		t.Fatalf("NewStandard failed: %v", err)
	}

	tests := []struct {
		name    string
		pos     vmath.Vec3
		dir     vmath.Vec3
		wantHit bool
		wantT   float64
	}{
		{
			name: "near root from outside", pos: vmath.NewVec3(0, 0, -10),
			dir: vmath.NewVec3(0, 0, 1), wantHit: true, wantT: 10,
		},
		{
			name: "far root when origin past the vertex", pos: vmath.NewVec3(0, 0, 10),
			dir: vmath.NewVec3(0, 0, 1), wantHit: true, wantT: 30, // exits the far side at z=40
		},
		{
			name: "diverging ray misses", pos: vmath.NewVec3(0, 0, -10),
			dir: vmath.NewVec3(0, 0, -1), wantHit: false,
		},
		{
			name: "ray wide of the sphere misses", pos: vmath.NewVec3(0, 45, -10),
			dir: vmath.NewVec3(0, 0, 1), wantHit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bundle := localBundle(t, []vmath.Vec3{tt.pos}, []vmath.Vec3{tt.dir})
			dist, hit := s.Distance(bundle)
			gotHit := hit.At(0) != 0
			if gotHit != tt.wantHit {
				t.Fatalf("Expected hit=%v, got hit=%v (t=%g)", tt.wantHit, gotHit, dist.At(0))
			}
			if tt.wantHit && math.Abs(dist.At(0)-tt.wantT) > 1e-9 {
				t.Errorf("Expected t=%g, got %g", tt.wantT, dist.At(0))
			}
		})
	}
}

func TestStandard_RayStartingOnSurfaceMisses(t *testing.T) {
	s, err := NewStandard(originFrame(), 20, 0)
	if err != nil {
		t.Fatalf("NewStandard failed: %v", err)
	}
	// Vertex is on the surface; a ray leaving it outward has no further
	// intersection in the forward direction.
	bundle := localBundle(t,
		[]vmath.Vec3{vmath.NewVec3(0, 0, 0)},
		[]vmath.Vec3{vmath.NewVec3(0, 0, -1)})

	_, hit := s.Distance(bundle)
	if hit.At(0) != 0 {
		t.Error("Expected miss for a ray starting on the surface and leaving it")
	}
}

func TestStandard_TangentRayMisses(t *testing.T) {
	s, err := NewStandard(originFrame(), 10, 0)
	if err != nil {
		t.Fatalf("NewStandard failed: %v", err)
	}
	// Grazes the sphere's equator plane at x = 2R (well wide of the cap)
	bundle := localBundle(t,
		[]vmath.Vec3{vmath.NewVec3(25, 0, -50)},
		[]vmath.Vec3{vmath.NewVec3(0, 0, 1)})

	_, hit := s.Distance(bundle)
	if hit.At(0) != 0 {
		t.Error("Expected miss for ray passing wide of the surface")
	}
}

func TestStandard_SagAndNormal(t *testing.T) {
	s, err := NewStandard(originFrame(), 20, 0)
	if err != nil {
		t.Fatalf("NewStandard failed: %v", err)
	}
	b := backend.NewVector(backend.Float64)

	// Exact sphere sag: z = R − sqrt(R² − r²)
	x := b.FromSlice([]float64{0, 1, 5})
	y := b.FromSlice([]float64{0, 2, 0})
	sag := s.Sag(b, x, y)
	for i := 0; i < 3; i++ {
		r := math.Hypot(x.At(i), y.At(i))
		want := 20 - math.Sqrt(20*20-r*r)
		if math.Abs(sag.At(i)-want) > 1e-12 {
			t.Errorf("Sag at r=%g: expected %g, got %g", r, want, sag.At(i))
		}
	}

	// Normal at the vertex points along +z
	bundle := localBundle(t,
		[]vmath.Vec3{vmath.NewVec3(0, 0, 0)},
		[]vmath.Vec3{vmath.NewVec3(0, 0, 1)})
	nx, ny, nz := s.SurfaceNormal(bundle)
	if nx.At(0) != 0 || ny.At(0) != 0 || math.Abs(nz.At(0)-1) > 1e-12 {
		t.Errorf("Vertex normal: expected (0,0,1), got (%g,%g,%g)", nx.At(0), ny.At(0), nz.At(0))
	}

	// Off-axis normal is unit length
	bundle = localBundle(t,
		[]vmath.Vec3{vmath.NewVec3(3, 4, 0)},
		[]vmath.Vec3{vmath.NewVec3(0, 0, 1)})
	nx, ny, nz = s.SurfaceNormal(bundle)
	norm := math.Sqrt(nx.At(0)*nx.At(0) + ny.At(0)*ny.At(0) + nz.At(0)*nz.At(0))
	if math.Abs(norm-1) > 1e-12 {
		t.Errorf("Normal is not unit length: %g", norm)
	}
}

func TestStandard_FlatRadiusBehavesAsPlane(t *testing.T) {
	s, err := NewStandard(originFrame(), 0, 0)
	if err != nil {
		t.Fatalf("NewStandard failed: %v", err)
	}
	bundle := localBundle(t,
		[]vmath.Vec3{vmath.NewVec3(1, 1, -5)},
		[]vmath.Vec3{vmath.NewVec3(0, 0, 1)})

	dist, hit := s.Distance(bundle)
	if hit.At(0) == 0 || math.Abs(dist.At(0)-5) > 1e-12 {
		t.Errorf("Expected plane hit at t=5, got hit=%v t=%g", hit.At(0) != 0, dist.At(0))
	}
}

func TestPlane_Distance(t *testing.T) {
	p := NewPlane(originFrame())

	tests := []struct {
		name    string
		pos     vmath.Vec3
		dir     vmath.Vec3
		wantHit bool
		wantT   float64
	}{
		{"head on", vmath.NewVec3(0, 0, -10), vmath.NewVec3(0, 0, 1), true, 10},
		{"oblique", vmath.NewVec3(0, 0, -1), vmath.NewVec3(0, 1, 1).Normalize(), true, math.Sqrt2},
		{"parallel", vmath.NewVec3(0, 0, -1), vmath.NewVec3(1, 0, 0), false, 0},
		{"diverging", vmath.NewVec3(0, 0, -1), vmath.NewVec3(0, 0, -1), false, 0},
		{"starting on surface", vmath.NewVec3(0, 0, 0), vmath.NewVec3(0, 0, 1), false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bundle := localBundle(t, []vmath.Vec3{tt.pos}, []vmath.Vec3{tt.dir})
			dist, hit := p.Distance(bundle)
			gotHit := hit.At(0) != 0
			if gotHit != tt.wantHit {
				t.Fatalf("Expected hit=%v, got hit=%v", tt.wantHit, gotHit)
			}
			if tt.wantHit && math.Abs(dist.At(0)-tt.wantT) > 1e-12 {
				t.Errorf("Expected t=%g, got %g", tt.wantT, dist.At(0))
			}
		})
	}
}
