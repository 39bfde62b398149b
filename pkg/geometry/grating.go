package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-sequential-raytracer/pkg/coordsys"
)

// Grating is a ruled diffraction grating on a standard (plane or conic)
// substrate. The geometry is the substrate's; the groove period and
// orientation are carried here for the diffractive interaction model to
// consume.
type Grating struct {
	*Standard
	// Period is the groove spacing, in the same length units as the
	// ray wavelengths
	Period float64
	// GrooveAngle orients the grooves in the local x-y plane, radians.
	// Zero means grooves parallel to y (dispersion along x).
	GrooveAngle float64
}

// NewGrating creates a ruled grating on a conic substrate
func NewGrating(cs *coordsys.CoordinateSystem, radius, conic, period, grooveAngle float64) (*Grating, error) {
	if period <= 0 || math.IsNaN(period) {
		return nil, fmt.Errorf("geometry: grating period must be positive (got %g)", period)
	}
	base, err := NewStandard(cs, radius, conic)
	if err != nil {
		return nil, err
	}
	return &Grating{Standard: base, Period: period, GrooveAngle: grooveAngle}, nil
}
