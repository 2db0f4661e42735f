package segmentation

import (
	"github.com/ironsheep/shear-failure-mcp/internal/raster"
)

// Connectivity selects which neighbouring pixels are considered connected.
type Connectivity int

const (
	// Eight connects edge- and corner-adjacent pixels.
	Eight Connectivity = iota
	// Four connects edge-adjacent pixels only.
	Four
)

var (
	offsets4 = [][2]int{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}
	offsets8 = [][2]int{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}
)

func (c Connectivity) offsets() [][2]int {
	if c == Four {
		return offsets4
	}
	return offsets8
}

// components is the result of a connected-component pass over one pixel set.
//
// ids holds the component id of every pixel (0 when the pixel is not in the
// set). Ids start at 1 and are assigned in raster-scan order of each
// component's first pixel. sizes and border are indexed by id.
type components struct {
	ids    []int
	sizes  []int
	border []bool
}

func (c *components) count() int {
	return len(c.sizes) - 1
}

// findComponents groups the pixels for which in(i) is true into connected
// components.
//
// Uses an explicit stack rather than recursion so that large regions cannot
// overflow the goroutine stack.
func findComponents(width, height int, in func(i int) bool, conn Connectivity) *components {
	c := &components{
		ids:    make([]int, width*height),
		sizes:  []int{0},
		border: []bool{false},
	}
	offs := conn.offsets()
	stack := make([]int, 0, 256)

	for start := range c.ids {
		if c.ids[start] != 0 || !in(start) {
			continue
		}
		id := len(c.sizes)
		size := 0
		touches := false

		c.ids[start] = id
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			size++

			x, y := p%width, p/width
			if x == 0 || y == 0 || x == width-1 || y == height-1 {
				touches = true
			}
			for _, o := range offs {
				nx, ny := x+o[0], y+o[1]
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				n := ny*width + nx
				if c.ids[n] != 0 || !in(n) {
					continue
				}
				c.ids[n] = id
				stack = append(stack, n)
			}
		}

		c.sizes = append(c.sizes, size)
		c.border = append(c.border, touches)
	}
	return c
}

// Label assigns a unique positive id to every 8-connected foreground
// component of mask. Background stays 0.
//
// Ids are dense, start at 1 and follow raster-scan order (top to bottom,
// left to right) of each component's first pixel, so the result is
// deterministic for a given mask.
func Label(mask *raster.Mask) *raster.LabelField {
	return LabelWithConnectivity(mask, Eight)
}

// LabelWithConnectivity is Label with an explicit neighbourhood.
func LabelWithConnectivity(mask *raster.Mask, conn Connectivity) *raster.LabelField {
	c := findComponents(mask.Width, mask.Height, func(i int) bool { return mask.Pix[i] }, conn)
	return &raster.LabelField{
		Width:  mask.Width,
		Height: mask.Height,
		Pix:    c.ids,
	}
}

// CountComponents returns the number of connected foreground components.
func CountComponents(mask *raster.Mask, conn Connectivity) int {
	return findComponents(mask.Width, mask.Height, func(i int) bool { return mask.Pix[i] }, conn).count()
}
