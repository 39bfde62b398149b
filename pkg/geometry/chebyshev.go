package geometry

import (
	"fmt"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/coordsys"
)

// Chebyshev adds a 2D Chebyshev expansion to a base conic:
//
//	z = z_conic(r) + Σ C[i][j] · T_i(x/NormX) · T_j(y/NormY)
//
// The normalization half-widths map the useful aperture onto [−1, 1], where
// the Chebyshev basis is orthogonal.
type Chebyshev struct {
	iterative
	base         *Standard
	Coefficients [][]float64
	NormX, NormY float64
}

// NewChebyshev creates a Chebyshev freeform surface
func NewChebyshev(cs *coordsys.CoordinateSystem, radius, conic float64, coefficients [][]float64, normX, normY float64) (*Chebyshev, error) {
	if normX <= 0 || normY <= 0 {
		return nil, fmt.Errorf("geometry: chebyshev normalization must be positive (got %g, %g)", normX, normY)
	}
	base, err := NewStandard(cs, radius, conic)
	if err != nil {
		return nil, err
	}
	c := &Chebyshev{base: base, Coefficients: coefficients, NormX: normX, NormY: normY}
	c.iterative = iterative{cs: cs, profile: c}
	return c, nil
}

// chebBasis returns T_0..T_deg and their derivatives at u, using the
// recurrences T_{n+1} = 2u·T_n − T_{n−1} and T'_n = n·U_{n−1}.
func chebBasis(b backend.Backend, u backend.Array, deg int) (tt, dt []backend.Array) {
	n := u.Len()
	tt = make([]backend.Array, deg+1)
	dt = make([]backend.Array, deg+1)
	uu := make([]backend.Array, deg+1) // second-kind U_n

	tt[0] = b.Full(n, 1)
	dt[0] = b.Zeros(n)
	uu[0] = b.Full(n, 1)
	if deg == 0 {
		return tt, dt
	}
	tt[1] = u
	dt[1] = b.Full(n, 1)
	uu[1] = b.MulScalar(u, 2)
	twoU := b.MulScalar(u, 2)
	for i := 2; i <= deg; i++ {
		tt[i] = b.Sub(b.Mul(twoU, tt[i-1]), tt[i-2])
		uu[i] = b.Sub(b.Mul(twoU, uu[i-1]), uu[i-2])
		dt[i] = b.MulScalar(uu[i-1], float64(i))
	}
	return tt, dt
}

func (c *Chebyshev) maxDegrees() (int, int) {
	maxI := len(c.Coefficients) - 1
	maxJ := 0
	for _, row := range c.Coefficients {
		if len(row)-1 > maxJ {
			maxJ = len(row) - 1
		}
	}
	return maxI, maxJ
}

func (c *Chebyshev) Sag(b backend.Backend, x, y backend.Array) backend.Array {
	z := c.base.Sag(b, x, y)
	maxI, maxJ := c.maxDegrees()
	if maxI < 0 {
		return z
	}
	tx, _ := chebBasis(b, b.MulScalar(x, 1/c.NormX), maxI)
	ty, _ := chebBasis(b, b.MulScalar(y, 1/c.NormY), maxJ)
	for i, row := range c.Coefficients {
		for j, coef := range row {
			if coef == 0 {
				continue
			}
			z = b.Add(z, b.MulScalar(b.Mul(tx[i], ty[j]), coef))
		}
	}
	return z
}

func (c *Chebyshev) Partials(b backend.Backend, x, y backend.Array) (backend.Array, backend.Array) {
	dzdx, dzdy := c.base.Partials(b, x, y)
	maxI, maxJ := c.maxDegrees()
	if maxI < 0 {
		return dzdx, dzdy
	}
	tx, dtx := chebBasis(b, b.MulScalar(x, 1/c.NormX), maxI)
	ty, dty := chebBasis(b, b.MulScalar(y, 1/c.NormY), maxJ)
	for i, row := range c.Coefficients {
		for j, coef := range row {
			if coef == 0 {
				continue
			}
			dzdx = b.Add(dzdx, b.MulScalar(b.Mul(dtx[i], ty[j]), coef/c.NormX))
			dzdy = b.Add(dzdy, b.MulScalar(b.Mul(tx[i], dty[j]), coef/c.NormY))
		}
	}
	return dzdx, dzdy
}
