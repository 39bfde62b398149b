// Package raygen turns normalized field and pupil coordinates into ray
// bundles aimed at the entrance pupil. Field points Hx,Hy and pupil points
// Px,Py are both normalized to [−1,1]; the generator scales them by the
// field definition and the entrance pupil diameter.
package raygen

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
	vmath "github.com/df07/go-sequential-raytracer/pkg/math"
	"github.com/df07/go-sequential-raytracer/pkg/rays"
	"github.com/df07/go-sequential-raytracer/pkg/surfaces"
)

// FieldType selects how normalized field coordinates are interpreted
type FieldType int

const (
	// Angle fields measure the chief ray angle in degrees
	Angle FieldType = iota
	// ObjectHeight fields measure height on the object plane
	ObjectHeight
)

// Generator builds ray bundles for a system. The entrance pupil is modeled
// at the first surface's vertex plane.
type Generator struct {
	// EPD is the entrance pupil diameter
	EPD float64
	// Field selects angle or object-height field definition
	Field FieldType
	// MaxField is the field at |H| = 1: degrees for Angle, lens units for
	// ObjectHeight
	MaxField float64
	// ObjectDistance is the distance from the object plane to the pupil;
	// required for object-height fields
	ObjectDistance float64
}

// NewGenerator validates the aperture and field definition
func NewGenerator(epd float64, field FieldType, maxField, objectDistance float64) (*Generator, error) {
	if epd <= 0 {
		return nil, fmt.Errorf("raygen: entrance pupil diameter must be positive (got %g)", epd)
	}
	if field == ObjectHeight && objectDistance <= 0 {
		return nil, fmt.Errorf("raygen: object-height fields need a positive object distance (got %g)", objectDistance)
	}
	return &Generator{EPD: epd, Field: field, MaxField: maxField, ObjectDistance: objectDistance}, nil
}

// Bundle builds one ray per (Hx[i], Hy[i], Px[i], Py[i]) sample at the
// given wavelength. All four slices must have equal length.
func (g *Generator) Bundle(b backend.Backend, hx, hy, px, py []float64, wavelength float64) (*rays.Bundle, error) {
	n := len(hx)
	if len(hy) != n || len(px) != n || len(py) != n {
		return nil, fmt.Errorf("raygen: coordinate lengths differ: hx=%d hy=%d px=%d py=%d",
			len(hx), len(hy), len(px), len(py))
	}

	spec := rays.Spec{
		X: make([]float64, n), Y: make([]float64, n), Z: make([]float64, n),
		L: make([]float64, n), M: make([]float64, n), N: make([]float64, n),
		Wavelength: make([]float64, n),
	}
	radius := g.EPD / 2
	for i := 0; i < n; i++ {
		spec.Wavelength[i] = wavelength
		pupilX, pupilY := px[i]*radius, py[i]*radius
		spec.X[i], spec.Y[i] = pupilX, pupilY

		var dir vmath.Vec3
		switch g.Field {
		case Angle:
			tx := math.Tan(hx[i] * g.MaxField * math.Pi / 180)
			ty := math.Tan(hy[i] * g.MaxField * math.Pi / 180)
			dir = vmath.FromR3(r3.Unit(vmath.NewVec3(tx, ty, 1).ToR3()))
		case ObjectHeight:
			dx := pupilX - hx[i]*g.MaxField
			dy := pupilY - hy[i]*g.MaxField
			dir = vmath.FromR3(r3.Unit(vmath.NewVec3(dx, dy, g.ObjectDistance).ToR3()))
		default:
			return nil, fmt.Errorf("raygen: unknown field type %d", g.Field)
		}
		spec.L[i], spec.M[i], spec.N[i] = dir.X, dir.Y, dir.Z
	}
	return rays.NewBundle(b, spec)
}

// TraceGeneric samples the pupil, builds the bundle for one field point and
// traces it through the group.
func TraceGeneric(g *surfaces.Group, b backend.Backend, gen *Generator, hx, hy float64, px, py []float64, wavelength float64) (*rays.Bundle, error) {
	n := len(px)
	fieldX := make([]float64, n)
	fieldY := make([]float64, n)
	for i := range fieldX {
		fieldX[i], fieldY[i] = hx, hy
	}
	bundle, err := gen.Bundle(b, fieldX, fieldY, px, py, wavelength)
	if err != nil {
		return nil, err
	}
	return g.Trace(bundle)
}
