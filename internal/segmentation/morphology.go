package segmentation

import (
	"github.com/ironsheep/shear-failure-mcp/internal/raster"
)

// RemoveSmallObjects clears every 8-connected foreground component with fewer
// than minSize pixels. The input is not modified.
//
// The operation is idempotent: surviving components are maximal and already
// at least minSize pixels, so a second pass removes nothing.
func RemoveSmallObjects(mask *raster.Mask, minSize int) *raster.Mask {
	out := mask.Clone()
	if minSize <= 1 {
		return out
	}

	c := findComponents(mask.Width, mask.Height, func(i int) bool { return mask.Pix[i] }, Eight)
	for i, id := range c.ids {
		if id != 0 && c.sizes[id] < minSize {
			out.Pix[i] = false
		}
	}
	return out
}

// RemoveSmallHoles fills every 8-connected background component with fewer
// than minArea pixels that does not touch the image border. Background
// reaching the border is never treated as a hole. The input is not modified.
func RemoveSmallHoles(mask *raster.Mask, minArea int) *raster.Mask {
	out := mask.Clone()
	if minArea <= 0 {
		return out
	}

	c := findComponents(mask.Width, mask.Height, func(i int) bool { return !mask.Pix[i] }, Eight)
	for i, id := range c.ids {
		if id != 0 && !c.border[id] && c.sizes[id] < minArea {
			out.Pix[i] = true
		}
	}
	return out
}

// HoleComponents returns the background components that RemoveSmallHoles
// would fill, as a label field. Callers that need to know which pixels were
// filled (for example to keep region identities) use it instead of diffing.
func HoleComponents(mask *raster.Mask, minArea int) *raster.LabelField {
	out := raster.NewLabelField(mask.Width, mask.Height)
	if minArea <= 0 {
		return out
	}

	c := findComponents(mask.Width, mask.Height, func(i int) bool { return !mask.Pix[i] }, Eight)
	remap := make([]int, len(c.sizes))
	next := 1
	for id := 1; id < len(c.sizes); id++ {
		if !c.border[id] && c.sizes[id] < minArea {
			remap[id] = next
			next++
		}
	}
	for i, id := range c.ids {
		out.Pix[i] = remap[id]
	}
	return out
}
