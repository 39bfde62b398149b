package rays

import "fmt"

// ParaxialBundle is the reduced first-order representation: ray height y and
// angle u at axial position z, valid only under the small-angle
// approximation. Paraxial quantities are plain slices; they never need the
// vectorized backend.
type ParaxialBundle struct {
	Y, U       []float64
	Wavelength []float64
	Z          []float64
}

// NewParaxialBundle validates field lengths and wavelengths
func NewParaxialBundle(y, u, wavelength []float64) (*ParaxialBundle, error) {
	if len(u) != len(y) || len(wavelength) != len(y) {
		return nil, fmt.Errorf("rays: paraxial field lengths differ: y=%d u=%d wavelength=%d",
			len(y), len(u), len(wavelength))
	}
	for i, w := range wavelength {
		if w <= 0 {
			return nil, fmt.Errorf("rays: paraxial ray %d has non-positive wavelength %g", i, w)
		}
	}
	return &ParaxialBundle{
		Y:          append([]float64(nil), y...),
		U:          append([]float64(nil), u...),
		Wavelength: append([]float64(nil), wavelength...),
		Z:          make([]float64, len(y)),
	}, nil
}

// Len returns the number of paraxial rays
func (p *ParaxialBundle) Len() int { return len(p.Y) }

// Clone returns a deep copy
func (p *ParaxialBundle) Clone() *ParaxialBundle {
	return &ParaxialBundle{
		Y:          append([]float64(nil), p.Y...),
		U:          append([]float64(nil), p.U...),
		Wavelength: append([]float64(nil), p.Wavelength...),
		Z:          append([]float64(nil), p.Z...),
	}
}
