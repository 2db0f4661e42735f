// Package geometry converts user-drawn polygons into raster masks.
//
// Coordinates are image coordinates in pixels: X is the column axis and Y the
// row axis, with (0,0) at the top-left corner of the top-left pixel. The pixel
// at column c and row r therefore covers [c, c+1) x [r, r+1) and has its
// centre at (c+0.5, r+0.5). A rectangle polygon with corners (x1,y1) and
// (x2,y2) on integer coordinates covers exactly the pixels x1..x2-1, y1..y2-1,
// i.e. top-left inclusive and bottom-right exclusive.
package geometry

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ironsheep/shear-failure-mcp/internal/raster"
)

// ErrInvalidGeometry is returned for polygons that cannot be filled.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Point is a 2D point in image coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p Point) Distance(o Point) float64 {
	return math.Hypot(o.X-p.X, o.Y-p.Y)
}

// Polygon is an ordered vertex list. The closing edge from the last vertex
// back to the first is implicit.
type Polygon []Point

// Validate reports why the polygon cannot be rasterized, or nil.
func (p Polygon) Validate() error {
	if len(p) < 3 {
		return fmt.Errorf("polygon has %d vertices, need at least 3: %w", len(p), ErrInvalidGeometry)
	}
	for i, v := range p {
		if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) {
			return fmt.Errorf("vertex %d is not finite: %w", i, ErrInvalidGeometry)
		}
	}
	return nil
}

// Area returns the enclosed area using the shoelace formula. Self-intersecting
// polygons yield the signed-area sum of their lobes.
func (p Polygon) Area() float64 {
	if len(p) < 3 {
		return 0
	}
	var sum float64
	for i := range p {
		j := (i + 1) % len(p)
		sum += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	return math.Abs(sum) / 2
}

// Bounds returns the minimum and maximum corners of the polygon's bounding box.
func (p Polygon) Bounds() (min, max Point) {
	if len(p) == 0 {
		return Point{}, Point{}
	}
	min, max = p[0], p[0]
	for _, v := range p[1:] {
		min.X = math.Min(min.X, v.X)
		min.Y = math.Min(min.Y, v.Y)
		max.X = math.Max(max.X, v.X)
		max.Y = math.Max(max.Y, v.Y)
	}
	return min, max
}

// Rasterize fills the polygon into a width x height mask.
//
// A pixel is inside when its centre lies inside the polygon under the
// even-odd rule: a horizontal ray cast from the centre crosses an odd number
// of edges. Self-intersecting polygons are accepted and filled by that rule.
// Parts of the polygon outside the raster are clipped; a polygon entirely
// outside yields an all-false mask.
//
// Polygons with fewer than three vertices or with non-finite coordinates
// return ErrInvalidGeometry.
func Rasterize(p Polygon, width, height int) (*raster.Mask, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("negative raster size %dx%d: %w", width, height, ErrInvalidGeometry)
	}

	mask := raster.NewMask(width, height)
	min, max := p.Bounds()
	rowStart := clampFloor(min.Y, 0, height)
	rowEnd := clampFloor(math.Ceil(max.Y)+1, 0, height)

	xs := make([]float64, 0, len(p))
	for row := rowStart; row < rowEnd; row++ {
		yc := float64(row) + 0.5
		xs = crossings(p, yc, xs[:0])
		if len(xs) < 2 {
			continue
		}
		sort.Float64s(xs)

		base := row * width
		for k := 0; k+1 < len(xs); k += 2 {
			// columns whose centre c+0.5 lies in [xs[k], xs[k+1])
			c0 := clampFloor(math.Ceil(xs[k]-0.5), 0, width)
			c1 := clampFloor(math.Ceil(xs[k+1]-0.5), 0, width)
			for col := c0; col < c1; col++ {
				mask.Pix[base+col] = true
			}
		}
	}
	return mask, nil
}

// crossings appends the X coordinates where the polygon's edges cross the
// horizontal line y = yc. Edges are half-open in Y so a vertex lying on the
// line is counted once.
func crossings(p Polygon, yc float64, xs []float64) []float64 {
	n := len(p)
	for i := 0; i < n; i++ {
		a, b := p[i], p[(i+1)%n]
		if (a.Y > yc) == (b.Y > yc) {
			continue
		}
		t := (yc - a.Y) / (b.Y - a.Y)
		xs = append(xs, a.X+t*(b.X-a.X))
	}
	return xs
}

// clampFloor converts floor(v) to an int within [lo, hi]. The float is
// clamped first so coordinates beyond the int range cannot wrap.
func clampFloor(v float64, lo, hi int) int {
	v = math.Floor(v)
	if v < float64(lo) {
		return lo
	}
	if v > float64(hi) {
		return hi
	}
	return int(v)
}
