// Package measure extracts per-region geometry from a label field and
// converts it to physical units.
package measure

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/shear-failure-mcp/internal/raster"
)

// PerimeterMethod selects the boundary-length estimator.
type PerimeterMethod string

const (
	// PerimeterWeighted weights each boundary pixel by the shape of its
	// boundary neighbourhood: 1 for straight runs, sqrt(2) for diagonal steps
	// and (1+sqrt(2))/2 for corners.
	PerimeterWeighted PerimeterMethod = "weighted"
	// PerimeterBoundary counts region pixels that are 4-adjacent to a pixel
	// outside the region or to the field edge.
	PerimeterBoundary PerimeterMethod = "boundary"
)

// ParsePerimeterMethod maps a configuration string to a PerimeterMethod.
// An empty string selects PerimeterWeighted.
func ParsePerimeterMethod(s string) (PerimeterMethod, error) {
	switch PerimeterMethod(s) {
	case "", PerimeterWeighted:
		return PerimeterWeighted, nil
	case PerimeterBoundary:
		return PerimeterBoundary, nil
	}
	return "", fmt.Errorf("unknown perimeter method %q", s)
}

// Box is an inclusive-exclusive pixel rectangle: columns MinCol..MaxCol-1,
// rows MinRow..MaxRow-1.
type Box struct {
	MinCol int `json:"min_col"`
	MinRow int `json:"min_row"`
	MaxCol int `json:"max_col"`
	MaxRow int `json:"max_row"`
}

// Record holds the measurements of one labeled region.
type Record struct {
	Label             int     `json:"label"`
	CentroidRow       float64 `json:"centroid_row"`
	CentroidCol       float64 `json:"centroid_col"`
	Area              int     `json:"area_px"`
	Perimeter         float64 `json:"perimeter_px"`
	BBox              Box     `json:"bbox"`
	PhysicalArea      float64 `json:"physical_area"`
	PhysicalPerimeter float64 `json:"physical_perimeter"`
}

type accum struct {
	rows, cols []float64
	box        Box
}

// RegionProperties measures every positive label of f, in ascending label
// order.
//
// Centroids are the mean (row, col) of the region's pixels. scale is the
// physical length of one pixel; with scale <= 0 the physical fields are zero.
func RegionProperties(f *raster.LabelField, scale float64, method PerimeterMethod) []Record {
	regions := make(map[int]*accum)
	for i, v := range f.Pix {
		if v <= 0 {
			continue
		}
		col, row := i%f.Width, i/f.Width
		a, ok := regions[v]
		if !ok {
			a = &accum{box: Box{MinCol: col, MinRow: row, MaxCol: col + 1, MaxRow: row + 1}}
			regions[v] = a
		}
		a.rows = append(a.rows, float64(row))
		a.cols = append(a.cols, float64(col))
		a.box.MinCol = min(a.box.MinCol, col)
		a.box.MaxCol = max(a.box.MaxCol, col+1)
		a.box.MaxRow = row + 1
	}

	var perim map[int]float64
	if method == PerimeterBoundary {
		perim = boundaryPerimeters(f)
	} else {
		perim = weightedPerimeters(f)
	}

	labels := make([]int, 0, len(regions))
	for l := range regions {
		labels = append(labels, l)
	}
	sort.Ints(labels)

	out := make([]Record, 0, len(labels))
	for _, l := range labels {
		a := regions[l]
		r := Record{
			Label:       l,
			CentroidRow: stat.Mean(a.rows, nil),
			CentroidCol: stat.Mean(a.cols, nil),
			Area:        len(a.rows),
			Perimeter:   perim[l],
			BBox:        a.box,
		}
		if scale > 0 {
			r.PhysicalArea = float64(r.Area) * scale * scale
			r.PhysicalPerimeter = r.Perimeter * scale
		}
		out = append(out, r)
	}
	return out
}

// borderPixels marks region pixels with at least one 4-neighbour outside the
// region (a different label, background or the field edge).
func borderPixels(f *raster.LabelField) []bool {
	border := make([]bool, len(f.Pix))
	for i, v := range f.Pix {
		if v <= 0 {
			continue
		}
		x, y := i%f.Width, i/f.Width
		if f.At(x-1, y) != v || f.At(x+1, y) != v || f.At(x, y-1) != v || f.At(x, y+1) != v {
			border[i] = true
		}
	}
	return border
}

func boundaryPerimeters(f *raster.LabelField) map[int]float64 {
	out := make(map[int]float64)
	for i, b := range borderPixels(f) {
		if b {
			out[f.Pix[i]]++
		}
	}
	return out
}

// Neighbourhood weights for the weighted estimator: the code of a border
// pixel is 1 plus 2 for every 4-neighbour and 10 for every diagonal neighbour
// that is also a border pixel of the same region.
var codeWeights = func() [50]float64 {
	var w [50]float64
	for _, c := range []int{5, 7, 15, 17, 25, 27} {
		w[c] = 1
	}
	w[21], w[33] = math.Sqrt2, math.Sqrt2
	w[13], w[23] = (1+math.Sqrt2)/2, (1+math.Sqrt2)/2
	return w
}()

var codeKernel = [...]struct{ dx, dy, w int }{
	{-1, -1, 10}, {0, -1, 2}, {1, -1, 10},
	{-1, 0, 2}, {1, 0, 2},
	{-1, 1, 10}, {0, 1, 2}, {1, 1, 10},
}

func weightedPerimeters(f *raster.LabelField) map[int]float64 {
	border := borderPixels(f)
	out := make(map[int]float64)
	for i, b := range border {
		if !b {
			continue
		}
		v := f.Pix[i]
		x, y := i%f.Width, i/f.Width
		code := 1
		for _, k := range codeKernel {
			nx, ny := x+k.dx, y+k.dy
			if nx < 0 || ny < 0 || nx >= f.Width || ny >= f.Height {
				continue
			}
			n := ny*f.Width + nx
			if border[n] && f.Pix[n] == v {
				code += k.w
			}
		}
		if code < len(codeWeights) {
			out[v] += codeWeights[code]
		}
	}
	return out
}
