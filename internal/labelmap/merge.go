// Package labelmap maintains a persistent label field: merging freshly
// segmented regions into it and editing it afterwards.
//
// Every function returns a new field and leaves its inputs untouched, so the
// owner of a field can compute a replacement and commit it only on success.
package labelmap

import (
	"fmt"
	"sort"

	"github.com/ironsheep/shear-failure-mcp/internal/raster"
)

// Options controls Merge.
type Options struct {
	// PadMismatched zero-pads the smaller field on the bottom and right when
	// the two fields differ in shape. When false a mismatch is an error.
	PadMismatched bool
}

// DefaultOptions returns the merge settings used by the session.
func DefaultOptions() Options {
	return Options{PadMismatched: true}
}

// Merge folds next into old and returns the combined field.
//
// Labels of next are first moved above max(old) in order of first
// appearance. Every new label that
// overlaps an existing region is aliased to the old label found at its first
// overlapping pixel in row-major order (top to bottom, left to right), so
// redrawing over a region grows it instead of duplicating it. Where both
// fields are labeled the old label wins. The result is relabeled to 1..K in
// order of first appearance, so ids always follow the raster scan.
//
// Old regions are never joined to each other, even when one new region
// touches several of them. A new region that overlaps nothing becomes a new
// label. An all-zero next returns a copy of old.
func Merge(old, next *raster.LabelField, opts Options) (*raster.LabelField, error) {
	if next == nil {
		if old == nil {
			return nil, fmt.Errorf("nothing to merge: %w", raster.ErrShapeMismatch)
		}
		return old.Clone(), nil
	}
	if old == nil {
		old = raster.NewLabelField(next.Width, next.Height)
	}
	if next.IsZero() {
		return old.Clone(), nil
	}

	old, next, err := reconcile(old, next, opts.PadMismatched)
	if err != nil {
		return nil, err
	}

	fresh, _ := RelabelByAppearance(next, old.Max()+1)

	alias := make(map[int]int)
	for i, nv := range fresh.Pix {
		ov := old.Pix[i]
		if ov == 0 || nv == 0 {
			continue
		}
		if _, ok := alias[nv]; !ok {
			alias[nv] = ov
		}
	}

	sum := raster.NewLabelField(old.Width, old.Height)
	for i, nv := range fresh.Pix {
		if ov := old.Pix[i]; ov > 0 {
			sum.Pix[i] = ov
			continue
		}
		if a, ok := alias[nv]; ok {
			nv = a
		}
		sum.Pix[i] = nv
	}

	out, _ := RelabelByAppearance(sum, 1)
	return out, nil
}

// reconcile brings both fields to a common shape.
func reconcile(a, b *raster.LabelField, pad bool) (*raster.LabelField, *raster.LabelField, error) {
	if a.SameShape(b) {
		return a, b, nil
	}
	if !pad {
		return nil, nil, fmt.Errorf("label fields %dx%d and %dx%d: %w",
			a.Width, a.Height, b.Width, b.Height, raster.ErrShapeMismatch)
	}

	w, h := a.Width, a.Height
	if b.Width > w {
		w = b.Width
	}
	if b.Height > h {
		h = b.Height
	}
	pa, err := a.Pad(w, h)
	if err != nil {
		return nil, nil, err
	}
	pb, err := b.Pad(w, h)
	if err != nil {
		return nil, nil, err
	}
	return pa, pb, nil
}

// RelabelSequential renumbers the positive labels of f to offset,
// offset+1, ... in ascending order of their current value. Background stays
// 0. The returned map takes each old label to its new one.
//
// Ascending-value order keeps the ids of a field that is already dense
// unchanged when offset is 1.
func RelabelSequential(f *raster.LabelField, offset int) (*raster.LabelField, map[int]int) {
	if offset < 1 {
		offset = 1
	}
	labels := Labels(f)
	fw := make(map[int]int, len(labels))
	for k, v := range labels {
		fw[v] = offset + k
	}

	out := raster.NewLabelField(f.Width, f.Height)
	for i, v := range f.Pix {
		if v > 0 {
			out.Pix[i] = fw[v]
		}
	}
	return out, fw
}

// RelabelByAppearance renumbers the positive labels of f to offset,
// offset+1, ... in the order they are first met in a row-major scan.
// Background stays 0. The returned map takes each old label to its new one.
func RelabelByAppearance(f *raster.LabelField, offset int) (*raster.LabelField, map[int]int) {
	if offset < 1 {
		offset = 1
	}
	fw := make(map[int]int)
	out := raster.NewLabelField(f.Width, f.Height)
	for i, v := range f.Pix {
		if v <= 0 {
			continue
		}
		nv, ok := fw[v]
		if !ok {
			nv = offset + len(fw)
			fw[v] = nv
		}
		out.Pix[i] = nv
	}
	return out, fw
}

// Labels returns the distinct positive labels of f in ascending order.
func Labels(f *raster.LabelField) []int {
	seen := make(map[int]struct{})
	for _, v := range f.Pix {
		if v > 0 {
			seen[v] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// Count returns the number of distinct positive labels in f.
func Count(f *raster.LabelField) int {
	return len(Labels(f))
}

// IsDense reports whether the labels of f are exactly 1..K for some K >= 0.
func IsDense(f *raster.LabelField) bool {
	labels := Labels(f)
	return len(labels) == 0 || labels[len(labels)-1] == len(labels)
}
