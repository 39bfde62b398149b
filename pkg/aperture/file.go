package aperture

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// FromFile loads a polygon aperture from a two-column text file of boundary
// vertices (x y per line; blank lines and #-comments ignored).
func FromFile(path string) (*Polygon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("aperture: opening boundary file: %w", err)
	}
	defer f.Close()
	poly, err := readBoundary(f)
	if err != nil {
		return nil, fmt.Errorf("aperture: reading %s: %w", path, err)
	}
	return poly, nil
}

func readBoundary(r io.Reader) (*Polygon, error) {
	var xs, ys []float64
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected two columns, got %d", line, len(fields))
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return NewPolygon(xs, ys)
}
