package backend

import (
	"errors"
	"math"
	"sort"
)

// Grad is the gradient-tracking engine. It computes the same forward values
// as Vector while recording every operation on a tape, so a scalar output
// can be differentiated with respect to Var-marked inputs by reverse-mode
// accumulation. Mask and comparison results are detached: gradients flow
// through Where selections, not through the conditions themselves.
type Grad struct {
	precision Precision
	nextID    int
}

// NewGrad creates a gradient-tracking engine with the given precision
func NewGrad(p Precision) *Grad {
	return &Grad{precision: p}
}

type tapeArray struct {
	value   []float64
	adjoint []float64
	parents []*tapeArray
	// back distributes the node's adjoint to its parents
	back  func(adj []float64)
	isVar bool
	id    int
}

func (t *tapeArray) Len() int         { return len(t.value) }
func (t *tapeArray) At(i int) float64 { return t.value[i] }
func (t *tapeArray) Float64s() []float64 {
	out := make([]float64, len(t.value))
	copy(out, t.value)
	return out
}

func (g *Grad) round(d []float64) []float64 {
	if g.precision == Float32 {
		for i, x := range d {
			d[i] = float64(float32(x))
		}
	}
	return d
}

func (g *Grad) node(value []float64, parents []*tapeArray, back func(adj []float64)) *tapeArray {
	g.nextID++
	return &tapeArray{value: g.round(value), parents: parents, back: back, id: g.nextID}
}

// leaf wraps a value with no recorded parents
func (g *Grad) leaf(value []float64) *tapeArray { return g.node(value, nil, nil) }

func asTape(a Array) *tapeArray {
	t, ok := a.(*tapeArray)
	if !ok {
		panic("backend: foreign array passed to gradient engine")
	}
	return t
}

// Var marks an array as a differentiation parameter
func (g *Grad) Var(a Array) Array {
	t := asTape(a)
	t.isVar = true
	return t
}

// ErrNoGradient is returned when GradOf is called for an array that was not
// marked with Var or was not reached by Backward.
var ErrNoGradient = errors.New("backend: no gradient recorded")

// Backward accumulates adjoints of a scalar (length-1) output across the
// recorded tape.
func (g *Grad) Backward(out Array) error {
	root := asTape(out)
	if root.Len() != 1 {
		return errors.New("backend: Backward requires a scalar output")
	}

	// Collect the reachable subgraph and replay it in reverse tape order.
	seen := map[*tapeArray]bool{}
	var nodes []*tapeArray
	var visit func(t *tapeArray)
	visit = func(t *tapeArray) {
		if seen[t] {
			return
		}
		seen[t] = true
		for _, p := range t.parents {
			visit(p)
		}
		nodes = append(nodes, t)
	}
	visit(root)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].id > nodes[j].id })

	for _, n := range nodes {
		n.adjoint = make([]float64, n.Len())
	}
	root.adjoint[0] = 1
	for _, n := range nodes {
		if n.back != nil {
			n.back(n.adjoint)
		}
	}
	return nil
}

// GradOf returns the accumulated adjoint of a Var-marked array
func (g *Grad) GradOf(a Array) ([]float64, error) {
	t := asTape(a)
	if !t.isVar || t.adjoint == nil {
		return nil, ErrNoGradient
	}
	out := make([]float64, len(t.adjoint))
	copy(out, t.adjoint)
	return out, nil
}

func (g *Grad) Zeros(n int) Array { return g.leaf(make([]float64, n)) }

func (g *Grad) Full(n int, v float64) Array {
	d := make([]float64, n)
	for i := range d {
		d[i] = v
	}
	return g.leaf(d)
}

func (g *Grad) FromSlice(s []float64) Array {
	d := make([]float64, len(s))
	copy(d, s)
	return g.leaf(d)
}

func (g *Grad) Copy(a Array) Array {
	t := asTape(a)
	return g.node(t.Float64s(), []*tapeArray{t}, func(adj []float64) {
		for i, x := range adj {
			t.adjoint[i] += x
		}
	})
}

// binary records an elementwise op with local partials da, db
func (g *Grad) binary(a, b Array, f func(x, y float64) float64,
	da, db func(x, y float64) float64) Array {
	checkLen(a, b)
	ta, tb := asTape(a), asTape(b)
	out := make([]float64, ta.Len())
	for i := range out {
		out[i] = f(ta.value[i], tb.value[i])
	}
	return g.node(out, []*tapeArray{ta, tb}, func(adj []float64) {
		for i, x := range adj {
			ta.adjoint[i] += x * da(ta.value[i], tb.value[i])
			tb.adjoint[i] += x * db(ta.value[i], tb.value[i])
		}
	})
}

// unary records an elementwise op with local partial df
func (g *Grad) unary(a Array, f, df func(x float64) float64) Array {
	ta := asTape(a)
	out := make([]float64, ta.Len())
	for i := range out {
		out[i] = f(ta.value[i])
	}
	return g.node(out, []*tapeArray{ta}, func(adj []float64) {
		for i, x := range adj {
			ta.adjoint[i] += x * df(ta.value[i])
		}
	})
}

func (g *Grad) Add(a, b Array) Array {
	return g.binary(a, b,
		func(x, y float64) float64 { return x + y },
		func(x, y float64) float64 { return 1 },
		func(x, y float64) float64 { return 1 })
}

func (g *Grad) Sub(a, b Array) Array {
	return g.binary(a, b,
		func(x, y float64) float64 { return x - y },
		func(x, y float64) float64 { return 1 },
		func(x, y float64) float64 { return -1 })
}

func (g *Grad) Mul(a, b Array) Array {
	return g.binary(a, b,
		func(x, y float64) float64 { return x * y },
		func(x, y float64) float64 { return y },
		func(x, y float64) float64 { return x })
}

func (g *Grad) Div(a, b Array) Array {
	return g.binary(a, b,
		func(x, y float64) float64 { return x / y },
		func(x, y float64) float64 { return 1 / y },
		func(x, y float64) float64 { return -x / (y * y) })
}

func (g *Grad) AddScalar(a Array, s float64) Array {
	return g.unary(a,
		func(x float64) float64 { return x + s },
		func(x float64) float64 { return 1 })
}

func (g *Grad) MulScalar(a Array, s float64) Array {
	return g.unary(a,
		func(x float64) float64 { return x * s },
		func(x float64) float64 { return s })
}

func (g *Grad) Neg(a Array) Array { return g.MulScalar(a, -1) }

func (g *Grad) Sqrt(a Array) Array {
	return g.unary(a, math.Sqrt,
		func(x float64) float64 { return 0.5 / math.Sqrt(x) })
}

func (g *Grad) Abs(a Array) Array {
	return g.unary(a, math.Abs,
		func(x float64) float64 {
			if x < 0 {
				return -1
			}
			return 1
		})
}

func (g *Grad) Sin(a Array) Array { return g.unary(a, math.Sin, math.Cos) }

func (g *Grad) Cos(a Array) Array {
	return g.unary(a, math.Cos, func(x float64) float64 { return -math.Sin(x) })
}

func (g *Grad) Exp(a Array) Array { return g.unary(a, math.Exp, math.Exp) }

func (g *Grad) Pow(a Array, p float64) Array {
	return g.unary(a,
		func(x float64) float64 { return math.Pow(x, p) },
		func(x float64) float64 { return p * math.Pow(x, p-1) })
}

func (g *Grad) Atan2(y, x Array) Array {
	return g.binary(y, x, math.Atan2,
		func(yy, xx float64) float64 { return xx / (xx*xx + yy*yy) },
		func(yy, xx float64) float64 { return -yy / (xx*xx + yy*yy) })
}

func (g *Grad) Min(a, b Array) Array {
	return g.binary(a, b, math.Min,
		func(x, y float64) float64 {
			if x <= y {
				return 1
			}
			return 0
		},
		func(x, y float64) float64 {
			if x > y {
				return 1
			}
			return 0
		})
}

func (g *Grad) Max(a, b Array) Array {
	return g.binary(a, b, math.Max,
		func(x, y float64) float64 {
			if x >= y {
				return 1
			}
			return 0
		},
		func(x, y float64) float64 {
			if x < y {
				return 1
			}
			return 0
		})
}

func (g *Grad) Clamp(a Array, lo, hi float64) Array {
	return g.unary(a,
		func(x float64) float64 {
			if x < lo {
				return lo
			}
			if x > hi {
				return hi
			}
			return x
		},
		func(x float64) float64 {
			if x < lo || x > hi {
				return 0
			}
			return 1
		})
}

// detachedCompare produces a mask leaf with no gradient flow
func (g *Grad) detachedCompare(a, b Array, f func(x, y float64) bool) Array {
	checkLen(a, b)
	ta, tb := asTape(a), asTape(b)
	out := make([]float64, ta.Len())
	for i := range out {
		if f(ta.value[i], tb.value[i]) {
			out[i] = 1
		}
	}
	return g.leaf(out)
}

func (g *Grad) Less(a, b Array) Array {
	return g.detachedCompare(a, b, func(x, y float64) bool { return x < y })
}

func (g *Grad) LessEq(a, b Array) Array {
	return g.detachedCompare(a, b, func(x, y float64) bool { return x <= y })
}

func (g *Grad) Greater(a, b Array) Array {
	return g.detachedCompare(a, b, func(x, y float64) bool { return x > y })
}

func (g *Grad) GreaterEq(a, b Array) Array {
	return g.detachedCompare(a, b, func(x, y float64) bool { return x >= y })
}

func (g *Grad) And(a, b Array) Array {
	return g.detachedCompare(a, b, func(x, y float64) bool { return x != 0 && y != 0 })
}

func (g *Grad) Or(a, b Array) Array {
	return g.detachedCompare(a, b, func(x, y float64) bool { return x != 0 || y != 0 })
}

func (g *Grad) Not(a Array) Array {
	ta := asTape(a)
	out := make([]float64, ta.Len())
	for i := range out {
		if ta.value[i] == 0 {
			out[i] = 1
		}
	}
	return g.leaf(out)
}

func (g *Grad) Where(cond, a, b Array) Array {
	checkLen(cond, a)
	checkLen(a, b)
	tc, ta, tb := asTape(cond), asTape(a), asTape(b)
	out := make([]float64, ta.Len())
	for i := range out {
		if tc.value[i] != 0 {
			out[i] = ta.value[i]
		} else {
			out[i] = tb.value[i]
		}
	}
	return g.node(out, []*tapeArray{ta, tb}, func(adj []float64) {
		for i, x := range adj {
			if tc.value[i] != 0 {
				ta.adjoint[i] += x
			} else {
				tb.adjoint[i] += x
			}
		}
	})
}

func (g *Grad) Sum(a Array) Array {
	ta := asTape(a)
	total := 0.0
	for _, x := range ta.value {
		total += x
	}
	return g.node([]float64{total}, []*tapeArray{ta}, func(adj []float64) {
		for i := range ta.adjoint {
			ta.adjoint[i] += adj[0]
		}
	})
}

func (g *Grad) All(mask Array) bool {
	for _, x := range asTape(mask).value {
		if x == 0 {
			return false
		}
	}
	return true
}

func (g *Grad) Any(mask Array) bool {
	for _, x := range asTape(mask).value {
		if x != 0 {
			return true
		}
	}
	return false
}
