package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/coordsys"
)

// Toroidal sweeps a YZ profile curve around an axis parallel to y at
// distance RadiusRotation from the vertex:
//
//	z(x,y) = R − sign(R)·sqrt((R − z_y(y))² − x²)
//
// where z_y is a conic-free curve of radius RadiusYZ plus even polynomial
// terms in y. An infinite RadiusRotation degenerates to a cylinder
// z(x,y) = z_y(y).
type Toroidal struct {
	iterative
	// RadiusRotation is the radius of the sweep in the XZ plane
	RadiusRotation float64
	// RadiusYZ is the radius of the profile curve in the YZ plane
	RadiusYZ float64
	// Coefficients add even polynomial terms Σ a_i·y^(2(i+1)) to the
	// profile curve
	Coefficients []float64
}

// NewToroidal creates a toroidal surface
func NewToroidal(cs *coordsys.CoordinateSystem, radiusRotation, radiusYZ float64, coefficients []float64) (*Toroidal, error) {
	if radiusRotation == 0 {
		return nil, fmt.Errorf("geometry: toroidal rotation radius must be nonzero (use Inf for a cylinder)")
	}
	if math.IsNaN(radiusRotation) || math.IsNaN(radiusYZ) {
		return nil, fmt.Errorf("geometry: non-finite toroidal radius")
	}
	tor := &Toroidal{
		RadiusRotation: radiusRotation,
		RadiusYZ:       radiusYZ,
		Coefficients:   append([]float64(nil), coefficients...),
	}
	tor.iterative = iterative{cs: cs, profile: tor}
	return tor, nil
}

// profileSag evaluates the YZ curve z_y(y) and its derivative
func (tor *Toroidal) profileSag(b backend.Backend, y backend.Array) (zy, dzy backend.Array) {
	cy := curvatureOf(tor.RadiusYZ)
	n := y.Len()
	ysq := b.Mul(y, y)

	if cy != 0 {
		arg := b.AddScalar(b.MulScalar(ysq, -cy*cy), 1)
		root := b.Sqrt(b.Max(arg, b.Full(n, derivGuard*derivGuard)))
		zy = b.Div(b.MulScalar(ysq, cy), b.AddScalar(root, 1))
		dzy = b.Div(b.MulScalar(y, cy), root)
	} else {
		zy, dzy = b.Zeros(n), b.Zeros(n)
	}

	if len(tor.Coefficients) > 0 {
		zy = b.Add(zy, b.Mul(ysq, polyval(b, ysq, tor.Coefficients)))
		deriv := make([]float64, len(tor.Coefficients))
		for i, c := range tor.Coefficients {
			deriv[i] = float64(i+1) * c
		}
		dzy = b.Add(dzy, b.MulScalar(b.Mul(polyval(b, ysq, deriv), y), 2))
	}
	return zy, dzy
}

func (tor *Toroidal) Sag(b backend.Backend, x, y backend.Array) backend.Array {
	zy, _ := tor.profileSag(b, y)
	if math.IsInf(tor.RadiusRotation, 0) {
		return zy
	}
	r := tor.RadiusRotation
	sign := 1.0
	if r < 0 {
		sign = -1
	}
	arm := b.AddScalar(b.Neg(zy), r)
	arg := b.Sub(b.Mul(arm, arm), b.Mul(x, x))
	root := b.Sqrt(b.Max(arg, b.Zeros(x.Len())))
	return b.AddScalar(b.MulScalar(root, -sign), r)
}

func (tor *Toroidal) Partials(b backend.Backend, x, y backend.Array) (backend.Array, backend.Array) {
	zy, dzy := tor.profileSag(b, y)
	n := x.Len()
	if math.IsInf(tor.RadiusRotation, 0) {
		return b.Zeros(n), dzy
	}
	r := tor.RadiusRotation
	sign := 1.0
	if r < 0 {
		sign = -1
	}
	arm := b.AddScalar(b.Neg(zy), r)
	arg := b.Sub(b.Mul(arm, arm), b.Mul(x, x))
	root := b.Sqrt(b.Max(arg, b.Full(n, derivGuard*derivGuard)))

	dzdx := b.MulScalar(b.Div(x, root), sign)
	dzdy := b.MulScalar(b.Div(b.Mul(arm, dzy), root), sign)
	return dzdx, dzdy
}
