package labelmap

import (
	"fmt"

	"github.com/ironsheep/shear-failure-mcp/internal/raster"
	"github.com/ironsheep/shear-failure-mcp/internal/segmentation"
)

// DeleteLabels returns f with every pixel carrying one of ids set to
// background. Remaining ids are left as they are.
func DeleteLabels(f *raster.LabelField, ids []int) *raster.LabelField {
	drop := idSet(ids)
	out := f.Clone()
	for i, v := range out.Pix {
		if _, ok := drop[v]; ok {
			out.Pix[i] = 0
		}
	}
	return out
}

// DeleteMasked returns f with every pixel under mask set to background.
func DeleteMasked(f *raster.LabelField, mask *raster.Mask) (*raster.LabelField, error) {
	if f.Width != mask.Width || f.Height != mask.Height {
		return nil, fmt.Errorf("label field %dx%d, mask %dx%d: %w",
			f.Width, f.Height, mask.Width, mask.Height, raster.ErrShapeMismatch)
	}
	out := f.Clone()
	for i, in := range mask.Pix {
		if in {
			out.Pix[i] = 0
		}
	}
	return out, nil
}

// Clear returns an all-background field with the shape of f.
func Clear(f *raster.LabelField) *raster.LabelField {
	return raster.NewLabelField(f.Width, f.Height)
}

// Select returns a field containing only the given labels. An empty id list
// selects everything.
func Select(f *raster.LabelField, ids []int) *raster.LabelField {
	if len(ids) == 0 {
		return f.Clone()
	}
	keep := idSet(ids)
	out := raster.NewLabelField(f.Width, f.Height)
	for i, v := range f.Pix {
		if _, ok := keep[v]; ok {
			out.Pix[i] = v
		}
	}
	return out
}

// RemoveSmallBlocks clears labeled blobs smaller than minSize pixels, where a
// blob is an 8-connected component of the field's foreground. Surviving
// pixels keep their region and the result is relabeled to 1..K.
func RemoveSmallBlocks(f *raster.LabelField, minSize int) *raster.LabelField {
	kept := segmentation.RemoveSmallObjects(f.Foreground(), minSize)
	out := raster.NewLabelField(f.Width, f.Height)
	for i, in := range kept.Pix {
		if in {
			out.Pix[i] = f.Pix[i]
		}
	}
	dense, _ := RelabelSequential(out, 1)
	return dense
}

// RemoveSmallHoles fills enclosed background holes smaller than minSize
// pixels. A filled hole joins the region of the first labeled 8-neighbour met
// when scanning the hole in row-major order. The result is relabeled to 1..K.
func RemoveSmallHoles(f *raster.LabelField, minSize int) *raster.LabelField {
	holes := segmentation.HoleComponents(f.Foreground(), minSize)
	out := f.Clone()
	n := holes.Max()
	if n > 0 {
		fill := make([]int, n+1)
		for i, h := range holes.Pix {
			if h == 0 || fill[h] != 0 {
				continue
			}
			fill[h] = labeledNeighbour(f, i)
		}
		for i, h := range holes.Pix {
			if h > 0 {
				out.Pix[i] = fill[h]
			}
		}
	}
	dense, _ := RelabelSequential(out, 1)
	return dense
}

var neighbours8 = [][2]int{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}

func labeledNeighbour(f *raster.LabelField, i int) int {
	x, y := i%f.Width, i/f.Width
	for _, o := range neighbours8 {
		if v := f.At(x+o[0], y+o[1]); v > 0 {
			return v
		}
	}
	return 0
}

func idSet(ids []int) map[int]struct{} {
	s := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if id > 0 {
			s[id] = struct{}{}
		}
	}
	return s
}
