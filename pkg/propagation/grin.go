package propagation

import (
	"fmt"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/materials"
	"github.com/df07/go-sequential-raytracer/pkg/rays"
)

// Profile describes a graded-index medium: the index and its spatial
// gradient at any point, evaluated over whole position arrays.
type Profile interface {
	Index(b backend.Backend, x, y, z, wavelength backend.Array) backend.Array
	Gradient(b backend.Backend, x, y, z, wavelength backend.Array) (gx, gy, gz backend.Array)
}

// RadialQuadratic is the parabolic radial profile n(r) = n0 + nr2·r²,
// the standard model for GRIN rod lenses. Dispersion is not modeled.
type RadialQuadratic struct {
	N0, NR2 float64
}

func (p *RadialQuadratic) Index(b backend.Backend, x, y, z, wavelength backend.Array) backend.Array {
	r2 := b.Add(b.Mul(x, x), b.Mul(y, y))
	return b.AddScalar(b.MulScalar(r2, p.NR2), p.N0)
}

func (p *RadialQuadratic) Gradient(b backend.Backend, x, y, z, wavelength backend.Array) (gx, gy, gz backend.Array) {
	return b.MulScalar(x, 2*p.NR2), b.MulScalar(y, 2*p.NR2), b.Zeros(x.Len())
}

const (
	defaultGrinStep = 1e-2
	maxGrinSteps    = 1 << 20
)

// GRIN integrates the ray equation d/ds(n·dr/ds) = ∇n with fixed-step
// RK4. Each ray advances by its own geometric path length; the step size
// is in lens units.
type GRIN struct {
	Profile  Profile
	StepSize float64
}

// NewGRIN creates a graded-index propagation model. A non-positive step
// selects the default.
func NewGRIN(p Profile, stepSize float64) (*GRIN, error) {
	if p == nil {
		return nil, fmt.Errorf("propagation: grin profile must not be nil")
	}
	if stepSize <= 0 {
		stepSize = defaultGrinStep
	}
	return &GRIN{Profile: p, StepSize: stepSize}, nil
}

// grinState is the integration state: position and the optical direction
// vector T = n·d.
type grinState struct {
	x, y, z    backend.Array
	tx, ty, tz backend.Array
}

// deriv evaluates dr/ds = T/n and dT/ds = ∇n at one RK4 stage. The stage
// index n is returned for the OPL quadrature.
func (g *GRIN) deriv(b backend.Backend, s grinState, wavelength backend.Array) (drx, dry, drz, dtx, dty, dtz, n backend.Array) {
	n = g.Profile.Index(b, s.x, s.y, s.z, wavelength)
	drx = b.Div(s.tx, n)
	dry = b.Div(s.ty, n)
	drz = b.Div(s.tz, n)
	dtx, dty, dtz = g.Profile.Gradient(b, s.x, s.y, s.z, wavelength)
	return
}

// advance returns the state shifted by h·k for one RK4 stage
func advance(b backend.Backend, s grinState, h backend.Array, krx, kry, krz, ktx, kty, ktz backend.Array) grinState {
	return grinState{
		x:  b.Add(s.x, b.Mul(h, krx)),
		y:  b.Add(s.y, b.Mul(h, kry)),
		z:  b.Add(s.z, b.Mul(h, krz)),
		tx: b.Add(s.tx, b.Mul(h, ktx)),
		ty: b.Add(s.ty, b.Mul(h, kty)),
		tz: b.Add(s.tz, b.Mul(h, ktz)),
	}
}

// Propagate ignores the surrounding material argument; the profile is the
// medium.
func (g *GRIN) Propagate(bundle *rays.Bundle, t backend.Array, m materials.Material) error {
	b := bundle.Backend()
	size := bundle.Len()
	zeros := b.Zeros(size)
	valid := bundle.ValidMask()
	remaining := b.Where(valid, b.Max(t, zeros), zeros)

	n0 := g.Profile.Index(b, bundle.X, bundle.Y, bundle.Z, bundle.Wavelength)
	s := grinState{
		x: bundle.X, y: bundle.Y, z: bundle.Z,
		tx: b.Mul(n0, bundle.L), ty: b.Mul(n0, bundle.M), tz: b.Mul(n0, bundle.N),
	}
	opl := bundle.OPL

	for steps := 0; b.Any(b.Greater(remaining, zeros)); steps++ {
		if steps >= maxGrinSteps {
			return fmt.Errorf("propagation: grin integration exceeded %d steps", maxGrinSteps)
		}
		ds := b.Min(remaining, b.Full(size, g.StepSize))
		half := b.MulScalar(ds, 0.5)

		k1rx, k1ry, k1rz, k1tx, k1ty, k1tz, nA := g.deriv(b, s, bundle.Wavelength)
		s2 := advance(b, s, half, k1rx, k1ry, k1rz, k1tx, k1ty, k1tz)
		k2rx, k2ry, k2rz, k2tx, k2ty, k2tz, nB := g.deriv(b, s2, bundle.Wavelength)
		s3 := advance(b, s, half, k2rx, k2ry, k2rz, k2tx, k2ty, k2tz)
		k3rx, k3ry, k3rz, k3tx, k3ty, k3tz, nC := g.deriv(b, s3, bundle.Wavelength)
		s4 := advance(b, s, ds, k3rx, k3ry, k3rz, k3tx, k3ty, k3tz)
		k4rx, k4ry, k4rz, k4tx, k4ty, k4tz, nD := g.deriv(b, s4, bundle.Wavelength)

		sixth := b.MulScalar(ds, 1.0/6)
		comb := func(k1, k2, k3, k4 backend.Array) backend.Array {
			return b.Mul(sixth, b.Add(b.Add(k1, k4), b.MulScalar(b.Add(k2, k3), 2)))
		}
		s = grinState{
			x:  b.Add(s.x, comb(k1rx, k2rx, k3rx, k4rx)),
			y:  b.Add(s.y, comb(k1ry, k2ry, k3ry, k4ry)),
			z:  b.Add(s.z, comb(k1rz, k2rz, k3rz, k4rz)),
			tx: b.Add(s.tx, comb(k1tx, k2tx, k3tx, k4tx)),
			ty: b.Add(s.ty, comb(k1ty, k2ty, k3ty, k4ty)),
			tz: b.Add(s.tz, comb(k1tz, k2tz, k3tz, k4tz)),
		}
		// OPL uses the same stage weights as the state update
		opl = b.Add(opl, comb(nA, nB, nC, nD))
		remaining = b.Max(b.Sub(remaining, ds), zeros)
	}

	// T carries the index magnitude; renormalizing recovers the unit
	// direction without another profile evaluation.
	norm := b.Sqrt(dotSelf(b, s.tx, s.ty, s.tz))
	safe := b.Where(b.Greater(norm, zeros), norm, b.Full(size, 1))

	bundle.X = b.Where(valid, s.x, bundle.X)
	bundle.Y = b.Where(valid, s.y, bundle.Y)
	bundle.Z = b.Where(valid, s.z, bundle.Z)
	bundle.L = b.Where(valid, b.Div(s.tx, safe), bundle.L)
	bundle.M = b.Where(valid, b.Div(s.ty, safe), bundle.M)
	bundle.N = b.Where(valid, b.Div(s.tz, safe), bundle.N)
	bundle.OPL = b.Where(valid, opl, bundle.OPL)
	return nil
}

func dotSelf(b backend.Backend, x, y, z backend.Array) backend.Array {
	return b.Add(b.Add(b.Mul(x, x), b.Mul(y, y)), b.Mul(z, z))
}
