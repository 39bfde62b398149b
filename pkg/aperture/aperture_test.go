package aperture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
)

func checkContains(t *testing.T, a Aperture, x, y float64, want bool) {
	t.Helper()
	b := backend.NewVector(backend.Float64)
	got := a.Contains(b, b.FromSlice([]float64{x}), b.FromSlice([]float64{y})).At(0) != 0
	if got != want {
		t.Errorf("Contains(%g, %g): expected %v, got %v", x, y, want, got)
	}
}

func TestRadial_Contains(t *testing.T) {
	circ, err := NewRadial(5, 0)
	if err != nil {
		t.Fatalf("NewRadial failed: %v", err)
	}

	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"center", 0, 0, true},
		{"inside", 3, 0, true},
		{"on edge", 5, 0, true},
		{"outside", 5.001, 0, false},
		{"diagonal inside", 3, 3, true},
		{"diagonal outside", 4, 4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkContains(t, circ, tt.x, tt.y, tt.want)
		})
	}
}

func TestRadial_Annular(t *testing.T) {
	ann, err := NewRadial(5, 2)
	if err != nil {
		t.Fatalf("NewRadial failed: %v", err)
	}
	checkContains(t, ann, 0, 0, false)
	checkContains(t, ann, 3, 0, true)
	checkContains(t, ann, 0, 1.9, false)
}

func TestRadial_RejectsBadBounds(t *testing.T) {
	for _, bounds := range [][2]float64{{0, 0}, {-1, 0}, {5, 5}, {5, 6}, {5, -1}} {
		if _, err := NewRadial(bounds[0], bounds[1]); err == nil {
			t.Errorf("Expected error for bounds %v", bounds)
		}
	}
}

func TestOffset_Contains(t *testing.T) {
	off, err := NewOffset(2, 0, 10, 0)
	if err != nil {
		t.Fatalf("NewOffset failed: %v", err)
	}
	checkContains(t, off, 10, 0, true)
	checkContains(t, off, 0, 0, false)
	checkContains(t, off, 11.5, 0, true)
}

func TestRectangularAndElliptical(t *testing.T) {
	rect, err := NewRectangular(4, 2)
	if err != nil {
		t.Fatalf("NewRectangular failed: %v", err)
	}
	checkContains(t, rect, 3.9, 1.9, true)
	checkContains(t, rect, 4.1, 0, false)
	checkContains(t, rect, 0, -2.1, false)

	ell, err := NewElliptical(4, 2)
	if err != nil {
		t.Fatalf("NewElliptical failed: %v", err)
	}
	checkContains(t, ell, 4, 0, true)
	checkContains(t, ell, 0, 2, true)
	checkContains(t, ell, 3.9, 1.9, false) // corner is outside the ellipse
}

func TestPolygon_Contains(t *testing.T) {
	// Unit square
	poly, err := NewPolygon([]float64{0, 1, 1, 0}, []float64{0, 0, 1, 1})
	if err != nil {
		t.Fatalf("NewPolygon failed: %v", err)
	}
	checkContains(t, poly, 0.5, 0.5, true)
	checkContains(t, poly, 1.5, 0.5, false)
	checkContains(t, poly, -0.1, 0.5, false)
}

func TestPolygon_RejectsDegenerate(t *testing.T) {
	if _, err := NewPolygon([]float64{0, 1}, []float64{0, 1}); err == nil {
		t.Error("Expected error for polygon with fewer than 3 vertices")
	}
	if _, err := NewPolygon([]float64{0, 1, 2}, []float64{0, 1}); err == nil {
		t.Error("Expected error for mismatched coordinate lengths")
	}
}

func TestFromFile_LoadsBoundary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boundary.txt")
	content := strings.Join([]string{
		"# triangle boundary",
		"0 0",
		"4 0",
		"",
		"2 3",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	poly, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile failed: %v", err)
	}
	checkContains(t, poly, 2, 1, true)
	checkContains(t, poly, 0, 3, false)
}

func TestFromFile_RejectsMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	if err := os.WriteFile(path, []byte("1 2\n3\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := FromFile(path); err == nil {
		t.Error("Expected error for malformed boundary line")
	}
}
