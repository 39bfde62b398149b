package cmd

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/df07/go-sequential-raytracer/pkg/rays"
)

// writeSpotPNG renders the valid ray positions as a spot diagram: black
// dots on white, square axes centered on the spot centroid.
func writeSpotPNG(path string, bundle *rays.Bundle, size int) error {
	var xs, ys []float64
	for i := 0; i < bundle.Len(); i++ {
		r := bundle.At(i)
		if r.Intensity > 0 {
			xs = append(xs, r.Position.X)
			ys = append(ys, r.Position.Y)
		}
	}
	if len(xs) == 0 {
		return fmt.Errorf("spot diagram: no valid rays to plot")
	}

	cx, cy := mean(xs), mean(ys)
	half := 0.0
	for i := range xs {
		half = math.Max(half, math.Max(math.Abs(xs[i]-cx), math.Abs(ys[i]-cy)))
	}
	if half == 0 {
		half = 1e-9
	}
	half *= 1.1

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, color.White)
		}
	}

	scale := float64(size-1) / (2 * half)
	for i := range xs {
		px := int((xs[i] - cx + half) * scale)
		// Image rows grow downward; +y points up
		py := size - 1 - int((ys[i]-cy+half)*scale)
		setDot(img, px, py)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func setDot(img *image.RGBA, x, y int) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			p := image.Pt(x+dx, y+dy)
			if p.In(img.Bounds()) {
				img.Set(p.X, p.Y, color.Black)
			}
		}
	}
}

func mean(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}
