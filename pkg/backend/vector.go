package backend

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Vector is the plain vectorized engine: float64 slices with elementwise
// kernels, no gradient tape. Dense slice arithmetic delegates to
// gonum/floats where a kernel exists.
type Vector struct {
	precision Precision
}

// NewVector creates a vector engine with the given precision
func NewVector(p Precision) *Vector {
	return &Vector{precision: p}
}

type denseArray struct {
	data []float64
}

func (d *denseArray) Len() int         { return len(d.data) }
func (d *denseArray) At(i int) float64 { return d.data[i] }
func (d *denseArray) Float64s() []float64 {
	out := make([]float64, len(d.data))
	copy(out, d.data)
	return out
}

// round truncates to float32 precision when configured, so a float32 trace
// can be emulated bit-faithfully on float64 storage.
func (v *Vector) round(d []float64) []float64 {
	if v.precision == Float32 {
		for i, x := range d {
			d[i] = float64(float32(x))
		}
	}
	return d
}

func (v *Vector) wrap(d []float64) Array { return &denseArray{data: v.round(d)} }

func data(a Array) []float64 {
	switch t := a.(type) {
	case *denseArray:
		return t.data
	case *tapeArray:
		return t.value
	default:
		return a.Float64s()
	}
}

func checkLen(a, b Array) {
	if a.Len() != b.Len() {
		panic("backend: length mismatch")
	}
}

func (v *Vector) Zeros(n int) Array { return v.wrap(make([]float64, n)) }

func (v *Vector) Full(n int, val float64) Array {
	d := make([]float64, n)
	for i := range d {
		d[i] = val
	}
	return v.wrap(d)
}

func (v *Vector) FromSlice(s []float64) Array {
	d := make([]float64, len(s))
	copy(d, s)
	return v.wrap(d)
}

func (v *Vector) Copy(a Array) Array { return v.wrap(a.Float64s()) }

func (v *Vector) Add(a, b Array) Array {
	checkLen(a, b)
	out := a.Float64s()
	floats.Add(out, data(b))
	return v.wrap(out)
}

func (v *Vector) Sub(a, b Array) Array {
	checkLen(a, b)
	out := a.Float64s()
	floats.Sub(out, data(b))
	return v.wrap(out)
}

func (v *Vector) Mul(a, b Array) Array {
	checkLen(a, b)
	out := a.Float64s()
	floats.Mul(out, data(b))
	return v.wrap(out)
}

func (v *Vector) Div(a, b Array) Array {
	checkLen(a, b)
	out := a.Float64s()
	floats.Div(out, data(b))
	return v.wrap(out)
}

func (v *Vector) AddScalar(a Array, s float64) Array {
	out := a.Float64s()
	floats.AddConst(s, out)
	return v.wrap(out)
}

func (v *Vector) MulScalar(a Array, s float64) Array {
	out := a.Float64s()
	floats.Scale(s, out)
	return v.wrap(out)
}

func (v *Vector) Neg(a Array) Array { return v.MulScalar(a, -1) }

func (v *Vector) unary(a Array, f func(float64) float64) Array {
	out := a.Float64s()
	for i, x := range out {
		out[i] = f(x)
	}
	return v.wrap(out)
}

func (v *Vector) Sqrt(a Array) Array { return v.unary(a, math.Sqrt) }
func (v *Vector) Abs(a Array) Array  { return v.unary(a, math.Abs) }
func (v *Vector) Sin(a Array) Array  { return v.unary(a, math.Sin) }
func (v *Vector) Cos(a Array) Array  { return v.unary(a, math.Cos) }
func (v *Vector) Exp(a Array) Array  { return v.unary(a, math.Exp) }

func (v *Vector) Pow(a Array, p float64) Array {
	return v.unary(a, func(x float64) float64 { return math.Pow(x, p) })
}

func (v *Vector) Atan2(y, x Array) Array {
	checkLen(y, x)
	out := y.Float64s()
	xd := data(x)
	for i := range out {
		out[i] = math.Atan2(out[i], xd[i])
	}
	return v.wrap(out)
}

func (v *Vector) Min(a, b Array) Array {
	checkLen(a, b)
	out := a.Float64s()
	bd := data(b)
	for i := range out {
		out[i] = math.Min(out[i], bd[i])
	}
	return v.wrap(out)
}

func (v *Vector) Max(a, b Array) Array {
	checkLen(a, b)
	out := a.Float64s()
	bd := data(b)
	for i := range out {
		out[i] = math.Max(out[i], bd[i])
	}
	return v.wrap(out)
}

func (v *Vector) Clamp(a Array, lo, hi float64) Array {
	return v.unary(a, func(x float64) float64 {
		if x < lo {
			return lo
		}
		if x > hi {
			return hi
		}
		return x
	})
}

func (v *Vector) compare(a, b Array, f func(x, y float64) bool) Array {
	checkLen(a, b)
	ad, bd := data(a), data(b)
	out := make([]float64, len(ad))
	for i := range ad {
		if f(ad[i], bd[i]) {
			out[i] = 1
		}
	}
	return &denseArray{data: out}
}

func (v *Vector) Less(a, b Array) Array {
	return v.compare(a, b, func(x, y float64) bool { return x < y })
}

func (v *Vector) LessEq(a, b Array) Array {
	return v.compare(a, b, func(x, y float64) bool { return x <= y })
}

func (v *Vector) Greater(a, b Array) Array {
	return v.compare(a, b, func(x, y float64) bool { return x > y })
}

func (v *Vector) GreaterEq(a, b Array) Array {
	return v.compare(a, b, func(x, y float64) bool { return x >= y })
}

func (v *Vector) And(a, b Array) Array {
	return v.compare(a, b, func(x, y float64) bool { return x != 0 && y != 0 })
}

func (v *Vector) Or(a, b Array) Array {
	return v.compare(a, b, func(x, y float64) bool { return x != 0 || y != 0 })
}

func (v *Vector) Not(a Array) Array {
	ad := data(a)
	out := make([]float64, len(ad))
	for i := range ad {
		if ad[i] == 0 {
			out[i] = 1
		}
	}
	return &denseArray{data: out}
}

func (v *Vector) Where(cond, a, b Array) Array {
	checkLen(cond, a)
	checkLen(a, b)
	cd, ad, bd := data(cond), data(a), data(b)
	out := make([]float64, len(ad))
	for i := range ad {
		if cd[i] != 0 {
			out[i] = ad[i]
		} else {
			out[i] = bd[i]
		}
	}
	return v.wrap(out)
}

func (v *Vector) Sum(a Array) Array {
	return v.wrap([]float64{floats.Sum(data(a))})
}

func (v *Vector) All(mask Array) bool {
	for _, x := range data(mask) {
		if x == 0 {
			return false
		}
	}
	return true
}

func (v *Vector) Any(mask Array) bool {
	for _, x := range data(mask) {
		if x != 0 {
			return true
		}
	}
	return false
}
