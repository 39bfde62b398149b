package surfaces

import (
	"fmt"

	"github.com/df07/go-sequential-raytracer/pkg/interactions"
	"github.com/df07/go-sequential-raytracer/pkg/rays"
)

// FirstOrder holds the first-order properties of a group at one wavelength
type FirstOrder struct {
	// EFL is the effective focal length
	EFL float64
	// BFL is the back focal distance from the last surface
	BFL float64
}

type firstOrderCache struct {
	valid      bool
	gen        uint64
	wavelength float64
	fo         FirstOrder
}

// power returns the paraxial power of one surface at a wavelength. The
// sign argument tracks propagation reversal through mirrors.
func (s *Surface) power(wavelength, sign float64) (phi, n1, n2 float64) {
	n1 = s.Before.N(wavelength) * sign
	if tl, ok := s.Interaction.(*interactions.ThinLens); ok {
		return 1 / tl.FocalLength, n1, n1
	}
	c := 0.0
	if cg, ok := s.Geometry.(interface{ Curvature() float64 }); ok {
		c = cg.Curvature()
	}
	if s.reflective() {
		// Reflection is refraction into index −n
		return -2 * n1 * c, n1, -n1
	}
	n2 = s.After.N(wavelength) * sign
	return (n2 - n1) * c, n1, n2
}

// ParaxialTrace runs the y-u trace through the group, refracting at each
// surface and transferring across each gap, including the gap after the
// last surface. The bundle is updated in place.
func (g *Group) ParaxialTrace(pb *rays.ParaxialBundle) error {
	if err := g.Validate(); err != nil {
		return err
	}
	for j := range pb.Y {
		y, u, z := pb.Y[j], pb.U[j], pb.Z[j]
		sign := 1.0
		for _, s := range g.Surfaces {
			phi, n1, n2 := s.power(pb.Wavelength[j], sign)
			u = (n1*u - y*phi) / n2
			if s.reflective() {
				sign = -sign
			}
			y += s.Thickness * u
			z += s.Thickness
		}
		pb.Y[j], pb.U[j], pb.Z[j] = y, u, z
	}
	return nil
}

// FirstOrderProperties computes EFL and BFL from a parallel marginal ray,
// cached until a parameter setter bumps the generation.
func (g *Group) FirstOrderProperties(wavelength float64) (FirstOrder, error) {
	if c := g.fo; c.valid && c.gen == g.gen && c.wavelength == wavelength {
		return c.fo, nil
	}
	if err := g.Validate(); err != nil {
		return FirstOrder{}, err
	}

	y, u := 1.0, 0.0
	sign := 1.0
	for i, s := range g.Surfaces {
		phi, n1, n2 := s.power(wavelength, sign)
		u = (n1*u - y*phi) / n2
		if s.reflective() {
			sign = -sign
		}
		if i+1 < len(g.Surfaces) {
			y += s.Thickness * u
		}
	}
	if u == 0 {
		return FirstOrder{}, fmt.Errorf("surfaces: afocal system has no focal length")
	}
	fo := FirstOrder{EFL: -1 / u, BFL: -y / u}
	g.fo = firstOrderCache{valid: true, gen: g.gen, wavelength: wavelength, fo: fo}
	return fo, nil
}
