package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/coordsys"
)

// PolynomialXY adds a free-form power series in x and y to a base conic:
//
//	z = z_conic(r) + Σ C[i][j] · x^i · y^j
//
// Coefficients is indexed [i][j]; rows may be ragged.
type PolynomialXY struct {
	iterative
	base         *Standard
	Coefficients [][]float64
}

// NewPolynomialXY creates a free-form XY polynomial surface
func NewPolynomialXY(cs *coordsys.CoordinateSystem, radius, conic float64, coefficients [][]float64) (*PolynomialXY, error) {
	base, err := NewStandard(cs, radius, conic)
	if err != nil {
		return nil, err
	}
	for i, row := range coefficients {
		for j, c := range row {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return nil, fmt.Errorf("geometry: non-finite polynomial coefficient (%d,%d)", i, j)
			}
		}
	}
	p := &PolynomialXY{base: base, Coefficients: coefficients}
	p.iterative = iterative{cs: cs, profile: p}
	return p, nil
}

// powers returns [1, v, v², ...] up to the given degree
func powers(b backend.Backend, v backend.Array, degree int) []backend.Array {
	out := make([]backend.Array, degree+1)
	out[0] = b.Full(v.Len(), 1)
	for i := 1; i <= degree; i++ {
		out[i] = b.Mul(out[i-1], v)
	}
	return out
}

func (p *PolynomialXY) maxDegrees() (int, int) {
	maxI := len(p.Coefficients) - 1
	maxJ := 0
	for _, row := range p.Coefficients {
		if len(row)-1 > maxJ {
			maxJ = len(row) - 1
		}
	}
	return maxI, maxJ
}

func (p *PolynomialXY) Sag(b backend.Backend, x, y backend.Array) backend.Array {
	z := p.base.Sag(b, x, y)
	maxI, maxJ := p.maxDegrees()
	if maxI < 0 {
		return z
	}
	xp := powers(b, x, maxI)
	yp := powers(b, y, maxJ)
	for i, row := range p.Coefficients {
		for j, c := range row {
			if c == 0 {
				continue
			}
			z = b.Add(z, b.MulScalar(b.Mul(xp[i], yp[j]), c))
		}
	}
	return z
}

func (p *PolynomialXY) Partials(b backend.Backend, x, y backend.Array) (backend.Array, backend.Array) {
	dzdx, dzdy := p.base.Partials(b, x, y)
	maxI, maxJ := p.maxDegrees()
	if maxI < 0 {
		return dzdx, dzdy
	}
	xp := powers(b, x, maxI)
	yp := powers(b, y, maxJ)
	for i, row := range p.Coefficients {
		for j, c := range row {
			if c == 0 {
				continue
			}
			if i > 0 {
				dzdx = b.Add(dzdx, b.MulScalar(b.Mul(xp[i-1], yp[j]), c*float64(i)))
			}
			if j > 0 {
				dzdy = b.Add(dzdy, b.MulScalar(b.Mul(xp[i], yp[j-1]), c*float64(j)))
			}
		}
	}
	return dzdx, dzdy
}
