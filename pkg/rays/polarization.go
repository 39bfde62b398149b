package rays

// Polarization stores a 3x3 complex Jones-like transformation matrix per
// ray, initialized to identity. Coatings compose their per-ray matrices onto
// it as the bundle moves through the system. Polarization state lives
// outside the backend arrays: it is bookkeeping, not a differentiation
// target.
type Polarization struct {
	// E[r][c][i] is element (r,c) of ray i's matrix
	E [3][3][]complex128
}

// NewPolarization allocates identity matrices for n rays
func NewPolarization(n int) *Polarization {
	p := &Polarization{}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			p.E[r][c] = make([]complex128, n)
		}
		for i := 0; i < n; i++ {
			p.E[r][r][i] = 1
		}
	}
	return p
}

// Len returns the number of rays tracked
func (p *Polarization) Len() int { return len(p.E[0][0]) }

// Matrix returns ray i's matrix
func (p *Polarization) Matrix(i int) [3][3]complex128 {
	var m [3][3]complex128
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m[r][c] = p.E[r][c][i]
		}
	}
	return m
}

// Compose left-multiplies ray i's matrix by m: E ← m·E
func (p *Polarization) Compose(i int, m [3][3]complex128) {
	var out [3][3]complex128
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			for k := 0; k < 3; k++ {
				out[r][c] += m[r][k] * p.E[k][c][i]
			}
		}
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			p.E[r][c][i] = out[r][c]
		}
	}
}

// Clone returns a deep copy
func (p *Polarization) Clone() *Polarization {
	out := &Polarization{}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out.E[r][c] = make([]complex128, len(p.E[r][c]))
			copy(out.E[r][c], p.E[r][c])
		}
	}
	return out
}
