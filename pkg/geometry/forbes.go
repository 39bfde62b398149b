package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/coordsys"
)

// qbfsPolys holds the Forbes Q-bfs basis polynomials as coefficients in
// t = u², up to order 3. Higher orders are rejected at construction.
var qbfsPolys = [][]float64{
	{1},
	{13.0 / sqrt19, -16.0 / sqrt19},
	{29 * sqrt2_95, -100 * sqrt2_95, 76 * sqrt2_95},
	{207 * sqrt2_2545, -1260 * sqrt2_2545, 2308 * sqrt2_2545, -1280 * sqrt2_2545},
}

var (
	sqrt19     = math.Sqrt(19)
	sqrt2_95   = math.Sqrt(2.0 / 95.0)
	sqrt2_2545 = math.Sqrt(2.0 / 2545.0)
)

// Forbes is the Q-bfs (best-fit-sphere) freeform of Forbes:
//
//	z = z_sphere(r) + u²·(1−u²)·Σ a_m·Q_m(u²) / sqrt(1 − c²·r²),  u = r/NormRadius
//
// where c is the base curvature. The departure terms are orthogonalized so
// coefficients read directly as slope contributions.
type Forbes struct {
	iterative
	base         *Standard
	Coefficients []float64
	NormRadius   float64
}

// NewForbes creates a Forbes Q-bfs surface. At most 4 terms (orders 0..3)
// are supported.
func NewForbes(cs *coordsys.CoordinateSystem, radius float64, coefficients []float64, normRadius float64) (*Forbes, error) {
	if normRadius <= 0 {
		return nil, fmt.Errorf("geometry: forbes normalization radius must be positive (got %g)", normRadius)
	}
	if len(coefficients) > len(qbfsPolys) {
		return nil, fmt.Errorf("geometry: forbes supports at most %d terms (got %d)", len(qbfsPolys), len(coefficients))
	}
	base, err := NewStandard(cs, radius, 0)
	if err != nil {
		return nil, err
	}
	f := &Forbes{base: base, Coefficients: append([]float64(nil), coefficients...), NormRadius: normRadius}
	f.iterative = iterative{cs: cs, profile: f}
	return f, nil
}

// departurePoly combines the configured terms into one polynomial
// P(t) = t·(1−t)·Σ a_m·Q_m(t) in t = u².
func (f *Forbes) departurePoly() []float64 {
	// Σ a_m·Q_m(t)
	var sum []float64
	for m, a := range f.Coefficients {
		if a == 0 {
			continue
		}
		q := qbfsPolys[m]
		if len(q) > len(sum) {
			grown := make([]float64, len(q))
			copy(grown, sum)
			sum = grown
		}
		for i, c := range q {
			sum[i] += a * c
		}
	}
	if sum == nil {
		return nil
	}
	// multiply by t·(1−t) = t − t²
	out := make([]float64, len(sum)+2)
	for i, c := range sum {
		out[i+1] += c
		out[i+2] -= c
	}
	return out
}

func (f *Forbes) Sag(b backend.Backend, x, y backend.Array) backend.Array {
	z := f.base.Sag(b, x, y)
	poly := f.departurePoly()
	if poly == nil {
		return z
	}
	rsq := r2(b, x, y)
	t := b.MulScalar(rsq, 1/(f.NormRadius*f.NormRadius))
	c := f.base.curvature()
	w := b.Sqrt(b.Max(b.AddScalar(b.MulScalar(rsq, -c*c), 1), b.Full(x.Len(), derivGuard*derivGuard)))
	return b.Add(z, b.Div(polyval(b, t, poly), w))
}

func (f *Forbes) Partials(b backend.Backend, x, y backend.Array) (backend.Array, backend.Array) {
	dzdx, dzdy := f.base.Partials(b, x, y)
	poly := f.departurePoly()
	if poly == nil {
		return dzdx, dzdy
	}
	rsq := r2(b, x, y)
	invNorm2 := 1 / (f.NormRadius * f.NormRadius)
	t := b.MulScalar(rsq, invNorm2)
	c := f.base.curvature()
	n := x.Len()
	w := b.Sqrt(b.Max(b.AddScalar(b.MulScalar(rsq, -c*c), 1), b.Full(n, derivGuard*derivGuard)))

	p := polyval(b, t, poly)
	dp := polyval(b, t, polyder(poly))

	// d/dx [P(t)/W] = P'(t)·(2x/R²)/W + P(t)·c²·x/W³
	w3 := b.Mul(w, b.Mul(w, w))
	slopeX := b.Add(
		b.Div(b.MulScalar(b.Mul(dp, x), 2*invNorm2), w),
		b.Div(b.MulScalar(b.Mul(p, x), c*c), w3))
	slopeY := b.Add(
		b.Div(b.MulScalar(b.Mul(dp, y), 2*invNorm2), w),
		b.Div(b.MulScalar(b.Mul(p, y), c*c), w3))
	return b.Add(dzdx, slopeX), b.Add(dzdy, slopeY)
}
