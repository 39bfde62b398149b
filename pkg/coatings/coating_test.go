package coatings

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
)

func TestFresnel_NormalIncidenceReflectance(t *testing.T) {
	// R = ((n1−n2)/(n1+n2))² at normal incidence: 4% for air/glass
	f := NewFresnel()
	b := backend.NewVector(backend.Float64)

	r := f.Efficiency(b,
		b.FromSlice([]float64{1}),
		b.FromSlice([]float64{1}),
		b.FromSlice([]float64{1.5}), true).At(0)
	want := math.Pow(0.5/2.5, 2)
	if math.Abs(r-want) > 1e-12 {
		t.Errorf("Expected R=%g, got %g", want, r)
	}
}

func TestFresnel_EnergyConservation(t *testing.T) {
	// R + T = 1 at a lossless dielectric interface, at any angle below TIR
	f := NewFresnel()
	b := backend.NewVector(backend.Float64)

	for _, cosI := range []float64{1, 0.9, 0.7, 0.5} {
		ci := b.FromSlice([]float64{cosI})
		n1 := b.FromSlice([]float64{1.0})
		n2 := b.FromSlice([]float64{1.5})
		r := f.Efficiency(b, ci, n1, n2, true).At(0)
		tr := f.Efficiency(b, ci, n1, n2, false).At(0)
		if math.Abs(r+tr-1) > 1e-10 {
			t.Errorf("cosI=%g: R+T = %g, want 1", cosI, r+tr)
		}
	}
}

func TestFresnel_TotalInternalReflectionIsLossless(t *testing.T) {
	// Glass to air beyond the critical angle: |r|² = 1
	f := NewFresnel()
	b := backend.NewVector(backend.Float64)

	critical := math.Asin(1 / 1.5)
	cosI := math.Cos(critical + 0.1)
	r := f.Efficiency(b,
		b.FromSlice([]float64{cosI}),
		b.FromSlice([]float64{1.5}),
		b.FromSlice([]float64{1.0}), true).At(0)
	if math.Abs(r-1) > 1e-12 {
		t.Errorf("Expected unit reflectance under TIR, got %g", r)
	}
}

func TestFresnel_GrazingIncidenceTransmitsNothing(t *testing.T) {
	f := NewFresnel()
	b := backend.NewVector(backend.Float64)

	tr := f.Efficiency(b,
		b.FromSlice([]float64{0, 1e-15}),
		b.FromSlice([]float64{1, 1}),
		b.FromSlice([]float64{1.5, 1.5}), false)
	for i := 0; i < 2; i++ {
		if got := tr.At(i); math.IsNaN(got) || math.IsInf(got, 0) || got != 0 {
			t.Errorf("Ray %d: expected zero transmitted energy at grazing incidence, got %g", i, got)
		}
	}
}

func TestFresnel_JonesDiagonal(t *testing.T) {
	f := NewFresnel()
	m := f.Jones(1, 1, 1.5, true)

	// At normal incidence |rs| = |rp| = 0.2
	if math.Abs(cmplx.Abs(m[0][0])-0.2) > 1e-12 {
		t.Errorf("Expected |rs|=0.2, got %g", cmplx.Abs(m[0][0]))
	}
	if m[0][1] != 0 || m[1][0] != 0 || m[2][2] != 1 {
		t.Error("Jones factor should be diagonal with unit z element")
	}
}

func TestIdeal_FixedEfficiency(t *testing.T) {
	c, err := NewIdeal(0.98)
	if err != nil {
		t.Fatalf("NewIdeal failed: %v", err)
	}
	b := backend.NewVector(backend.Float64)

	eff := c.Efficiency(b,
		b.FromSlice([]float64{1, 0.5}),
		b.FromSlice([]float64{1, 1}),
		b.FromSlice([]float64{1.5, 1.5}), false)
	for i := 0; i < 2; i++ {
		if eff.At(i) != 0.98 {
			t.Errorf("Expected 0.98, got %g", eff.At(i))
		}
	}

	m := c.Jones(1, 1, 1.5, false)
	if math.Abs(real(m[0][0]*m[0][0])-0.98) > 1e-12 {
		t.Errorf("Jones amplitude should square to the transmittance, got %v", m[0][0])
	}
}

func TestIdeal_RejectsOutOfRange(t *testing.T) {
	if _, err := NewIdeal(1.2); err == nil {
		t.Error("Expected error for transmittance > 1")
	}
	if _, err := NewIdeal(-0.1); err == nil {
		t.Error("Expected error for negative transmittance")
	}
}
