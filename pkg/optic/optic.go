// Package optic aggregates a surface group with the system-level aperture,
// field and wavelength definitions, and (de)serializes complete systems to
// a nested JSON document.
package optic

import (
	"fmt"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
	vmath "github.com/df07/go-sequential-raytracer/pkg/math"
	"github.com/df07/go-sequential-raytracer/pkg/raygen"
	"github.com/df07/go-sequential-raytracer/pkg/rays"
	"github.com/df07/go-sequential-raytracer/pkg/surfaces"
)

// Optic is a complete optical system: the traced surface chain plus the
// aperture, field and wavelength definitions ray generation needs.
type Optic struct {
	Group *surfaces.Group

	// EPD is the entrance pupil diameter
	EPD float64
	// FieldType and MaxField define what a normalized field coordinate
	// means; ObjectDistance applies to object-height fields
	FieldType      raygen.FieldType
	MaxField       float64
	ObjectDistance float64
	// Fields lists the normalized (Hx, Hy) field points of the system
	Fields [][2]float64
	// Wavelengths lists the system wavelengths in micrometers
	Wavelengths []float64
}

// Validate checks the aggregate: a valid surface chain plus usable
// aperture, field and wavelength definitions.
func (o *Optic) Validate() error {
	if o.Group == nil {
		return fmt.Errorf("optic: surface group must not be nil")
	}
	if err := o.Group.Validate(); err != nil {
		return err
	}
	if o.EPD <= 0 {
		return fmt.Errorf("optic: entrance pupil diameter must be positive (got %g)", o.EPD)
	}
	if len(o.Wavelengths) == 0 {
		return fmt.Errorf("optic: at least one wavelength is required")
	}
	for i, w := range o.Wavelengths {
		if w <= 0 {
			return fmt.Errorf("optic: wavelength %d must be positive (got %g)", i, w)
		}
	}
	return nil
}

// Generator builds the ray generator for this system
func (o *Optic) Generator() (*raygen.Generator, error) {
	return raygen.NewGenerator(o.EPD, o.FieldType, o.MaxField, o.ObjectDistance)
}

// Trace runs a prepared bundle through the system
func (o *Optic) Trace(bundle *rays.Bundle) (*rays.Bundle, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o.Group.Trace(bundle)
}

// TraceField samples the given pupil coordinates for field point f at
// wavelength index w and traces the bundle.
func (o *Optic) TraceField(b backend.Backend, f, w int, px, py []float64) (*rays.Bundle, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if f < 0 || f >= len(o.Fields) {
		return nil, fmt.Errorf("optic: field index %d out of range [0,%d)", f, len(o.Fields))
	}
	if w < 0 || w >= len(o.Wavelengths) {
		return nil, fmt.Errorf("optic: wavelength index %d out of range [0,%d)", w, len(o.Wavelengths))
	}
	gen, err := o.Generator()
	if err != nil {
		return nil, err
	}
	return raygen.TraceGeneric(o.Group, b, gen, o.Fields[f][0], o.Fields[f][1], px, py, o.Wavelengths[w])
}

// SetRadius replaces the radius of surface i, invalidating cached
// first-order properties.
func (o *Optic) SetRadius(i int, radius float64) error { return o.Group.SetRadius(i, radius) }

// SetThickness replaces the gap after surface i
func (o *Optic) SetThickness(i int, thickness float64) error {
	return o.Group.SetThickness(i, thickness)
}

// SetTilt replaces the tilt of surface i's frame
func (o *Optic) SetTilt(i int, tilt vmath.Vec3) error { return o.Group.SetTilt(i, tilt) }

// SetCoefficient replaces shape coefficient j of surface i
func (o *Optic) SetCoefficient(i, j int, v float64) error { return o.Group.SetCoefficient(i, j, v) }
