package cmd

import (
	"encoding/csv"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/rays"
)

func testBundle(t *testing.T) *rays.Bundle {
	t.Helper()
	b := backend.NewVector(backend.Float64)
	bundle, err := rays.NewBundle(b, rays.Spec{
		X: []float64{0, 0.1, -0.1, 0.3}, Y: []float64{0, 0.1, 0.2, 0},
		Z: []float64{100, 100, 100, 100},
		L: []float64{0, 0, 0, 0}, M: []float64{0, 0, 0, 0}, N: []float64{1, 1, 1, 1},
		Wavelength: []float64{0.55, 0.55, 0.55, 0.55},
		Intensity:  []float64{1, 1, 1, 0},
	})
	if err != nil {
		t.Fatalf("NewBundle failed: %v", err)
	}
	return bundle
}

func TestWriteSpotPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spot.png")
	if err := writeSpotPNG(path, testBundle(t), 64); err != nil {
		t.Fatalf("writeSpotPNG failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 64 {
		t.Errorf("Expected 64x64 image, got %v", img.Bounds())
	}
}

func TestWriteSpotPNG_NoValidRays(t *testing.T) {
	b := backend.NewVector(backend.Float64)
	bundle, err := rays.NewBundle(b, rays.Spec{
		X: []float64{0}, Y: []float64{0}, Z: []float64{0},
		L: []float64{0}, M: []float64{0}, N: []float64{1},
		Wavelength: []float64{0.55},
		Intensity:  []float64{0},
	})
	if err != nil {
		t.Fatalf("NewBundle failed: %v", err)
	}
	if err := writeSpotPNG(filepath.Join(t.TempDir(), "spot.png"), bundle, 64); err == nil {
		t.Error("Expected error when every ray is invalid")
	}
}

func TestWriteRayCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rays.csv")
	if err := writeRayCSV(path, testBundle(t)); err != nil {
		t.Fatalf("writeRayCSV failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("Expected header plus 4 rows, got %d", len(records))
	}
	if records[0][0] != "x" || records[0][7] != "opl" {
		t.Errorf("Unexpected header %v", records[0])
	}
	if records[1][6] != "1" || records[4][6] != "0" {
		t.Errorf("Intensity column mismatch: %v / %v", records[1], records[4])
	}
}
