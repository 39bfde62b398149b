// Package surfaces assembles the optical elements into a traced sequence.
// A Surface couples a geometry with the media on both sides, the
// interaction that bends rays and the propagation model for the following
// gap. A Group iterates the surfaces in order over a whole bundle at once,
// recording the local ray state at every surface.
package surfaces

import (
	"math"

	"github.com/df07/go-sequential-raytracer/pkg/aperture"
	"github.com/df07/go-sequential-raytracer/pkg/coatings"
	"github.com/df07/go-sequential-raytracer/pkg/geometry"
	"github.com/df07/go-sequential-raytracer/pkg/interactions"
	"github.com/df07/go-sequential-raytracer/pkg/materials"
	"github.com/df07/go-sequential-raytracer/pkg/propagation"
)

// Surface is one element of a sequential system
type Surface struct {
	Geometry geometry.Geometry
	// Before and After are the media on the incoming and outgoing side
	Before, After materials.Material
	Interaction   interactions.Model
	// Propagation carries rays through the gap after this surface
	Propagation propagation.Model
	Coating     coatings.Coating
	Aperture    aperture.Aperture
	IsStop      bool
	// Thickness is the axial gap to the next surface
	Thickness float64
}

// Config carries every constructor parameter of a surface. Zero values
// select the defaults: air on both sides, plain refraction, homogeneous
// propagation, no coating, no aperture.
type Config struct {
	Geometry    geometry.Geometry
	Before      materials.Material
	After       materials.Material
	Interaction interactions.Model
	Propagation propagation.Model
	Coating     coatings.Coating
	Aperture    aperture.Aperture
	IsStop      bool
	Thickness   float64
}

// New builds a surface from cfg, filling in defaults
func New(cfg Config) (*Surface, error) {
	if cfg.Geometry == nil {
		return nil, &StructuralError{Surface: -1, Param: "geometry", Reason: "must not be nil"}
	}
	if math.IsNaN(cfg.Thickness) || math.IsInf(cfg.Thickness, 0) {
		return nil, &StructuralError{Surface: -1, Param: "thickness", Reason: "must be finite"}
	}
	s := &Surface{
		Geometry:    cfg.Geometry,
		Before:      cfg.Before,
		After:       cfg.After,
		Interaction: cfg.Interaction,
		Propagation: cfg.Propagation,
		Coating:     cfg.Coating,
		Aperture:    cfg.Aperture,
		IsStop:      cfg.IsStop,
		Thickness:   cfg.Thickness,
	}
	if s.Before == nil {
		s.Before = materials.Air{}
	}
	if s.After == nil {
		s.After = materials.Air{}
	}
	if s.Interaction == nil {
		s.Interaction = interactions.NewRefract()
	}
	if s.Propagation == nil {
		s.Propagation = propagation.NewHomogeneous()
	}
	return s, nil
}

// reflective reports whether the surface mirrors rays
func (s *Surface) reflective() bool {
	rr, ok := s.Interaction.(*interactions.RefractiveReflective)
	return ok && rr.IsReflective
}
