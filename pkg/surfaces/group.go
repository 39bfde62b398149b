package surfaces

import (
	"fmt"
	"math"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/materials"
	vmath "github.com/df07/go-sequential-raytracer/pkg/math"
	"github.com/df07/go-sequential-raytracer/pkg/propagation"
	"github.com/df07/go-sequential-raytracer/pkg/rays"
)

// Group is an ordered surface sequence, traced object side to image side.
// The recorded per-surface state and the first-order cache are overwritten
// wholesale by each trace; a group must not be shared by concurrent traces.
type Group struct {
	Surfaces []*Surface

	recorded []*rays.Bundle
	gen      uint64
	fo       firstOrderCache
}

// NewGroup creates a group over the given surfaces
func NewGroup(surfaces ...*Surface) *Group {
	return &Group{Surfaces: surfaces}
}

// Add appends a surface and invalidates cached first-order properties
func (g *Group) Add(s *Surface) {
	g.Surfaces = append(g.Surfaces, s)
	g.gen++
}

// Generation counts parameter edits; cached quantities keyed on it are
// stale once it moves.
func (g *Group) Generation() uint64 { return g.gen }

// Validate checks the structural integrity of the chain: surfaces present,
// at most one stop, media chained consistently, placements finite. It runs
// before every trace so a malformed system fails before any ray moves.
func (g *Group) Validate() error {
	if len(g.Surfaces) == 0 {
		return &StructuralError{Surface: -1, Param: "surfaces", Reason: "group is empty"}
	}
	stops := 0
	for i, s := range g.Surfaces {
		if s.Geometry == nil {
			return &StructuralError{Surface: i, Param: "geometry", Reason: "must not be nil"}
		}
		if err := s.Geometry.CoordinateSystem().Validate(); err != nil {
			return &StructuralError{Surface: i, Param: "coordinate system", Reason: err.Error()}
		}
		if math.IsNaN(s.Thickness) || math.IsInf(s.Thickness, 0) {
			return &StructuralError{Surface: i, Param: "thickness", Reason: "must be finite"}
		}
		if s.IsStop {
			stops++
		}
		if i+1 < len(g.Surfaces) && g.Surfaces[i+1].Before != s.After {
			return &StructuralError{Surface: i, Param: "material chain",
				Reason: fmt.Sprintf("medium after surface %d differs from medium before surface %d", i, i+1)}
		}
	}
	if stops > 1 {
		return &StructuralError{Surface: -1, Param: "stop", Reason: fmt.Sprintf("%d stop surfaces, want at most 1", stops)}
	}
	return nil
}

// Stop returns the index of the stop surface, or -1 when none is marked
func (g *Group) Stop() int {
	for i, s := range g.Surfaces {
		if s.IsStop {
			return i
		}
	}
	return -1
}

// Trace runs the bundle through every surface in order. The input bundle
// is not modified. Per-ray failures (miss, aperture clip, TIR) zero the
// ray's intensity and the bundle keeps its shape; only a structural
// problem returns an error.
func (g *Group) Trace(bundle *rays.Bundle) (*rays.Bundle, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	b := bundle.Backend()
	current := bundle.Clone()
	g.recorded = make([]*rays.Bundle, len(g.Surfaces))

	// Rays reach each surface through the gap before it; object space is
	// homogeneous.
	var gap propagation.Model = propagation.NewHomogeneous()

	for i, s := range g.Surfaces {
		cs := s.Geometry.CoordinateSystem()
		local := cs.ToLocal(current)

		t, hit := s.Geometry.Distance(local)
		local.Invalidate(b.And(local.ValidMask(), b.Not(hit)))

		if err := gap.Propagate(local, t, s.Before); err != nil {
			return nil, fmt.Errorf("surfaces: surface %d: %w", i, err)
		}

		if s.Aperture != nil {
			inside := s.Aperture.Contains(b, local.X, local.Y)
			local.Invalidate(b.And(local.ValidMask(), b.Not(inside)))
		}

		nx, ny, nz := s.Geometry.SurfaceNormal(local)
		n1 := materials.IndexArray(b, s.Before, local.Wavelength)
		n2 := materials.IndexArray(b, s.After, local.Wavelength)
		if err := s.Interaction.Interact(local, nx, ny, nz, n1, n2, s.Coating); err != nil {
			return nil, fmt.Errorf("surfaces: surface %d: %w", i, err)
		}

		g.recorded[i] = local.Clone()
		current = cs.ToGlobal(local)
		gap = s.Propagation

		logger.Debug("surface traced", "surface", i,
			"valid", int(backend.Scalar(b.Sum(local.ValidMask()))))
	}
	return current, nil
}

// Recorded returns the surface-local ray state captured at surface i by
// the most recent trace.
func (g *Group) Recorded(i int) (*rays.Bundle, error) {
	if g.recorded == nil {
		return nil, fmt.Errorf("surfaces: no trace recorded")
	}
	if i < 0 || i >= len(g.recorded) {
		return nil, fmt.Errorf("surfaces: recorded index %d out of range [0,%d)", i, len(g.recorded))
	}
	return g.recorded[i], nil
}

// SetRadius replaces the radius of curvature of surface i
func (g *Group) SetRadius(i int, radius float64) error {
	s, err := g.surface(i)
	if err != nil {
		return err
	}
	rs, ok := s.Geometry.(interface{ SetRadius(float64) error })
	if !ok {
		return &StructuralError{Surface: i, Param: "radius", Reason: "geometry has no radius of curvature"}
	}
	if err := rs.SetRadius(radius); err != nil {
		return err
	}
	g.gen++
	return nil
}

// SetThickness replaces the gap after surface i and displaces every
// downstream surface by the change, along surface i's local z axis, so the
// traced geometry and the paraxial thickness always describe the same
// system.
func (g *Group) SetThickness(i int, thickness float64) error {
	s, err := g.surface(i)
	if err != nil {
		return err
	}
	if math.IsNaN(thickness) || math.IsInf(thickness, 0) {
		return &StructuralError{Surface: i, Param: "thickness", Reason: "must be finite"}
	}
	if delta := thickness - s.Thickness; delta != 0 {
		rot, _ := s.Geometry.CoordinateSystem().Effective()
		shift := rot.Apply(vmath.NewVec3(0, 0, delta))
		for _, next := range g.Surfaces[i+1:] {
			cs := next.Geometry.CoordinateSystem()
			step := shift
			if cs.Reference != nil {
				// Translation is expressed in the reference frame
				refRot, _ := cs.Reference.Effective()
				step = refRot.Transpose().Apply(shift)
			}
			cs.Translation = cs.Translation.Add(step)
		}
	}
	s.Thickness = thickness
	g.gen++
	return nil
}

// SetTilt replaces the tilt angles of surface i's frame
func (g *Group) SetTilt(i int, tilt vmath.Vec3) error {
	s, err := g.surface(i)
	if err != nil {
		return err
	}
	cs := s.Geometry.CoordinateSystem()
	old := cs.Tilt
	cs.Tilt = tilt
	if err := cs.Validate(); err != nil {
		cs.Tilt = old
		return err
	}
	g.gen++
	return nil
}

// SetCoefficient replaces shape coefficient j of surface i
func (g *Group) SetCoefficient(i, j int, v float64) error {
	s, err := g.surface(i)
	if err != nil {
		return err
	}
	cs, ok := s.Geometry.(interface{ SetCoefficient(int, float64) error })
	if !ok {
		return &StructuralError{Surface: i, Param: "coefficient", Reason: "geometry has no coefficients"}
	}
	if err := cs.SetCoefficient(j, v); err != nil {
		return err
	}
	g.gen++
	return nil
}

func (g *Group) surface(i int) (*Surface, error) {
	if i < 0 || i >= len(g.Surfaces) {
		return nil, fmt.Errorf("surfaces: surface index %d out of range [0,%d)", i, len(g.Surfaces))
	}
	return g.Surfaces[i], nil
}
