package geometry

import (
	"fmt"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/coordsys"
)

// SagFunc evaluates a custom sag z(x,y) over a whole bundle
type SagFunc func(b backend.Backend, x, y backend.Array) backend.Array

// PartialsFunc evaluates the custom sag's partial derivatives (dz/dx, dz/dy)
type PartialsFunc func(b backend.Backend, x, y backend.Array) (backend.Array, backend.Array)

// UserDefined wraps an arbitrary sag function and its analytic partials in
// the shared Newton intersection machinery, so callers can register new
// shape variants without touching this package.
type UserDefined struct {
	iterative
	sag      SagFunc
	partials PartialsFunc
}

// NewUserDefined creates a custom surface from a sag function and its
// partial derivatives
func NewUserDefined(cs *coordsys.CoordinateSystem, sag SagFunc, partials PartialsFunc) (*UserDefined, error) {
	if sag == nil || partials == nil {
		return nil, fmt.Errorf("geometry: user-defined surface requires both sag and partials functions")
	}
	u := &UserDefined{sag: sag, partials: partials}
	u.iterative = iterative{cs: cs, profile: u}
	return u, nil
}

func (u *UserDefined) Sag(b backend.Backend, x, y backend.Array) backend.Array {
	return u.sag(b, x, y)
}

func (u *UserDefined) Partials(b backend.Backend, x, y backend.Array) (backend.Array, backend.Array) {
	return u.partials(b, x, y)
}
