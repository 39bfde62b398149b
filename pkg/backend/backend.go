// Package backend provides the numeric engine the tracer is written against.
// Every per-ray quantity lives in an Array, and every algorithmic step in the
// core is expressed as whole-bundle Array operations. Two engines implement
// the contract: a plain vectorized engine (Vector) and a gradient-tracking
// engine (Grad) that records a tape for reverse-mode differentiation. The
// engine is chosen once before a trace and injected by parameter passing;
// nothing in the core reads ambient global state.
package backend

import (
	"errors"
	"fmt"
)

// Array is an opaque fixed-length batch of per-ray scalars owned by a
// backend. Boolean masks are represented as arrays holding 0 or 1.
type Array interface {
	// Len returns the number of elements
	Len() int
	// At returns the element at index i, detached from any gradient tape
	At(i int) float64
	// Float64s returns a detached copy of the data
	Float64s() []float64
}

// Precision selects the storage precision of the vector engine.
type Precision int

const (
	Float64 Precision = iota
	Float32
)

// Config selects the engine and its global execution options. It must be
// fixed before a trace begins and never changed while one is in flight.
type Config struct {
	// Device names the compute device. Only "cpu" is supported.
	Device string
	// Precision selects float64 or float32 arithmetic rounding.
	Precision Precision
	// GradEnabled selects the gradient-tracking engine.
	GradEnabled bool
}

// ErrUnsupportedDevice is returned for any device other than "cpu".
var ErrUnsupportedDevice = errors.New("backend: unsupported device")

// New returns the backend selected by cfg.
func New(cfg Config) (Backend, error) {
	if cfg.Device != "" && cfg.Device != "cpu" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDevice, cfg.Device)
	}
	if cfg.GradEnabled {
		return NewGrad(cfg.Precision), nil
	}
	return NewVector(cfg.Precision), nil
}

// Backend is the uniform operation set the tracer uses. All binary
// operations require operands of equal length; mismatched lengths are a
// programming defect and panic.
type Backend interface {
	// Creation
	Zeros(n int) Array
	Full(n int, v float64) Array
	FromSlice(v []float64) Array
	Copy(a Array) Array

	// Elementwise arithmetic
	Add(a, b Array) Array
	Sub(a, b Array) Array
	Mul(a, b Array) Array
	Div(a, b Array) Array
	AddScalar(a Array, s float64) Array
	MulScalar(a Array, s float64) Array
	Neg(a Array) Array

	// Elementwise math
	Sqrt(a Array) Array
	Abs(a Array) Array
	Sin(a Array) Array
	Cos(a Array) Array
	Exp(a Array) Array
	Pow(a Array, p float64) Array
	Atan2(y, x Array) Array
	Min(a, b Array) Array
	Max(a, b Array) Array
	Clamp(a Array, lo, hi float64) Array

	// Comparisons and mask logic (results hold 0 or 1)
	Less(a, b Array) Array
	LessEq(a, b Array) Array
	Greater(a, b Array) Array
	GreaterEq(a, b Array) Array
	And(a, b Array) Array
	Or(a, b Array) Array
	Not(a Array) Array

	// Where returns a[i] where cond[i] != 0, else b[i]
	Where(cond, a, b Array) Array

	// Reductions. Sum stays on the gradient tape; the boolean queries are
	// detached.
	Sum(a Array) Array
	All(mask Array) bool
	Any(mask Array) bool
}

// Differentiable is implemented by engines that can run reverse-mode
// differentiation over recorded operations.
type Differentiable interface {
	// Var marks an array as a differentiation parameter
	Var(a Array) Array
	// Backward accumulates adjoints of a scalar (length-1) output
	Backward(out Array) error
	// GradOf returns the accumulated adjoint of a Var-marked array
	GradOf(a Array) ([]float64, error)
}

// Scalar reads the single element of a length-1 array, such as a Sum result.
func Scalar(a Array) float64 {
	if a.Len() != 1 {
		panic(fmt.Sprintf("backend: Scalar on array of length %d", a.Len()))
	}
	return a.At(0)
}
