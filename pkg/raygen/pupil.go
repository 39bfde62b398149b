package raygen

import (
	"math"
	"math/rand"
)

// GridPupil returns normalized pupil samples on an n×n grid, keeping the
// points inside the unit disk.
func GridPupil(n int) (px, py []float64) {
	if n < 1 {
		return nil, nil
	}
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			x, y := -1.0, -1.0
			if n > 1 {
				x = -1 + 2*float64(i)/float64(n-1)
				y = -1 + 2*float64(j)/float64(n-1)
			} else {
				x, y = 0, 0
			}
			if x*x+y*y <= 1 {
				px = append(px, x)
				py = append(py, y)
			}
		}
	}
	return px, py
}

// HexapolarPupil returns the axial point plus rings of 6·i samples at radii
// i/rings.
func HexapolarPupil(rings int) (px, py []float64) {
	px = append(px, 0)
	py = append(py, 0)
	for i := 1; i <= rings; i++ {
		r := float64(i) / float64(rings)
		count := 6 * i
		for k := 0; k < count; k++ {
			theta := 2 * math.Pi * float64(k) / float64(count)
			px = append(px, r*math.Cos(theta))
			py = append(py, r*math.Sin(theta))
		}
	}
	return px, py
}

// RandomPupil returns n samples drawn uniformly over the unit disk
func RandomPupil(n int, rng *rand.Rand) (px, py []float64) {
	px = make([]float64, n)
	py = make([]float64, n)
	for i := 0; i < n; i++ {
		r := math.Sqrt(rng.Float64())
		theta := 2 * math.Pi * rng.Float64()
		px[i] = r * math.Cos(theta)
		py[i] = r * math.Sin(theta)
	}
	return px, py
}
