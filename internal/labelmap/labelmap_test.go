package labelmap

import (
	"errors"
	"testing"

	"github.com/ironsheep/shear-failure-mcp/internal/raster"
)

func rectField(width, height int, rects ...[5]int) *raster.LabelField {
	f := raster.NewLabelField(width, height)
	for _, r := range rects {
		// r = {label, x0, y0, x1, y1}
		for y := r[2]; y < r[4]; y++ {
			for x := r[1]; x < r[3]; x++ {
				f.Set(x, y, r[0])
			}
		}
	}
	return f
}

func mustDense(t *testing.T, rows [][]int) *raster.LabelField {
	t.Helper()
	f, err := raster.FromDense(rows)
	if err != nil {
		t.Fatalf("FromDense failed: %v", err)
	}
	return f
}

// assertDisjointDense checks the non-collision and density properties.
func assertDisjointDense(t *testing.T, f *raster.LabelField) {
	t.Helper()
	if !IsDense(f) {
		t.Errorf("labels not dense: %v", Labels(f))
	}
	for _, v := range f.Pix {
		if v < 0 {
			t.Fatalf("negative label %d", v)
		}
	}
}

func TestMerge_Identity(t *testing.T) {
	fields := []*raster.LabelField{
		raster.NewLabelField(8, 8),
		rectField(8, 8, [5]int{1, 0, 0, 3, 3}, [5]int{2, 5, 5, 8, 8}),
		rectField(8, 8, [5]int{4, 0, 0, 3, 3}, [5]int{9, 5, 5, 8, 8}),
	}
	for _, old := range fields {
		got, err := Merge(old, raster.NewLabelField(8, 8), DefaultOptions())
		if err != nil {
			t.Fatalf("Merge failed: %v", err)
		}
		if !got.Equal(old) {
			t.Errorf("merge with zero field changed the field")
		}
		if len(got.Pix) > 0 && &got.Pix[0] == &old.Pix[0] {
			t.Error("merge returned the input slice")
		}
	}
}

func TestMerge_CollisionAliasesToOld(t *testing.T) {
	old := rectField(20, 20, [5]int{1, 0, 0, 10, 10})
	next := rectField(20, 20, [5]int{1, 5, 5, 15, 15})

	got, err := Merge(old, next, DefaultOptions())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if Count(got) != 1 {
		t.Fatalf("labels: got %v, want exactly one", Labels(got))
	}

	union := 0
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			inA := x < 10 && y < 10
			inB := x >= 5 && x < 15 && y >= 5 && y < 15
			want := 0
			if inA || inB {
				want = 1
				union++
			}
			if got.At(x, y) != want {
				t.Fatalf("pixel (%d,%d): got %d, want %d", x, y, got.At(x, y), want)
			}
		}
	}
	if union != 175 {
		t.Errorf("union area: got %d, want 175", union)
	}
}

func TestMerge_DisjointAddsLabels(t *testing.T) {
	old := rectField(30, 30, [5]int{1, 0, 0, 5, 5}, [5]int{2, 10, 0, 15, 5})
	next := rectField(30, 30, [5]int{1, 0, 20, 5, 25}, [5]int{2, 10, 20, 15, 25}, [5]int{3, 20, 20, 25, 25})

	got, err := Merge(old, next, DefaultOptions())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if Count(got) != Count(old)+Count(next) {
		t.Errorf("labels: got %d, want %d", Count(got), Count(old)+Count(next))
	}
	assertDisjointDense(t, got)

	// existing ids stay put, new ones follow
	if got.At(0, 0) != 1 || got.At(10, 0) != 2 {
		t.Errorf("old ids moved: %d %d", got.At(0, 0), got.At(10, 0))
	}
	if got.At(0, 20) != 3 || got.At(10, 20) != 4 || got.At(20, 20) != 5 {
		t.Errorf("new ids: %d %d %d", got.At(0, 20), got.At(10, 20), got.At(20, 20))
	}
}

func TestMerge_OldRegionsNeverJoin(t *testing.T) {
	old := mustDense(t, [][]int{
		{1, 1, 0, 2, 2},
		{0, 0, 0, 0, 0},
	})
	// one new region bridging both old regions
	next := mustDense(t, [][]int{
		{0, 1, 1, 1, 0},
		{0, 0, 0, 0, 0},
	})

	got, err := Merge(old, next, DefaultOptions())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	want := [][]int{
		{1, 1, 1, 2, 2},
		{0, 0, 0, 0, 0},
	}
	if !got.Equal(mustDense(t, want)) {
		t.Errorf("got %v, want %v", got.Dense(), want)
	}
}

func TestMerge_ScanOrderPicksFirstOverlap(t *testing.T) {
	// new region touches old 2 first in row-major order, then old 1
	old := mustDense(t, [][]int{
		{0, 0, 2},
		{1, 0, 0},
	})
	next := mustDense(t, [][]int{
		{0, 5, 5},
		{5, 5, 0},
	})
	got, err := Merge(old, next, DefaultOptions())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	// the grown region is met first in the scan, so it becomes 1
	want := [][]int{
		{0, 1, 1},
		{2, 1, 0},
	}
	if !got.Equal(mustDense(t, want)) {
		t.Errorf("got %v, want %v", got.Dense(), want)
	}
}

func TestMerge_IDsFollowScanOrder(t *testing.T) {
	old := mustDense(t, [][]int{
		{2, 0, 0},
		{0, 0, 0},
		{0, 0, 1},
	})
	next := mustDense(t, [][]int{
		{0, 0, 0},
		{0, 5, 0},
		{0, 0, 0},
	})
	got, err := Merge(old, next, DefaultOptions())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	want := [][]int{
		{1, 0, 0},
		{0, 2, 0},
		{0, 0, 3},
	}
	if !got.Equal(mustDense(t, want)) {
		t.Errorf("got %v, want %v", got.Dense(), want)
	}
}

func TestMerge_NonDenseOldIsCompacted(t *testing.T) {
	old := rectField(10, 10, [5]int{3, 0, 0, 2, 2}, [5]int{7, 5, 5, 7, 7})
	next := rectField(10, 10, [5]int{1, 8, 8, 10, 10})

	got, err := Merge(old, next, DefaultOptions())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	assertDisjointDense(t, got)
	if got.At(0, 0) != 1 || got.At(5, 5) != 2 || got.At(9, 9) != 3 {
		t.Errorf("got %v", got.Dense())
	}
}

func TestMerge_ShapeReconciliation(t *testing.T) {
	old := rectField(4, 4, [5]int{1, 0, 0, 2, 2})
	next := rectField(6, 5, [5]int{1, 4, 3, 6, 5})

	got, err := Merge(old, next, DefaultOptions())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if got.Width != 6 || got.Height != 5 {
		t.Fatalf("shape: got %dx%d, want 6x5", got.Width, got.Height)
	}
	if got.At(0, 0) != 1 || got.At(5, 4) != 2 {
		t.Errorf("got %v", got.Dense())
	}

	_, err = Merge(old, next, Options{PadMismatched: false})
	if !errors.Is(err, raster.ErrShapeMismatch) {
		t.Errorf("got %v, want ErrShapeMismatch", err)
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	old := rectField(10, 10, [5]int{1, 0, 0, 5, 5})
	next := rectField(10, 10, [5]int{1, 3, 3, 8, 8})
	oldCopy, nextCopy := old.Clone(), next.Clone()

	if _, err := Merge(old, next, DefaultOptions()); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if !old.Equal(oldCopy) || !next.Equal(nextCopy) {
		t.Error("Merge modified its inputs")
	}
}

func TestRelabelSequential(t *testing.T) {
	f := mustDense(t, [][]int{
		{9, 0, 4},
		{4, 0, 12},
	})
	got, fw := RelabelSequential(f, 1)
	want := [][]int{
		{2, 0, 1},
		{1, 0, 3},
	}
	if !got.Equal(mustDense(t, want)) {
		t.Errorf("got %v, want %v", got.Dense(), want)
	}
	if fw[4] != 1 || fw[9] != 2 || fw[12] != 3 {
		t.Errorf("forward map: %v", fw)
	}

	shifted, _ := RelabelSequential(f, 10)
	if Labels(shifted)[0] != 10 {
		t.Errorf("offset: got %v", Labels(shifted))
	}
}

func TestRelabelByAppearance(t *testing.T) {
	f := mustDense(t, [][]int{
		{9, 0, 4},
		{4, 0, 12},
	})
	got, fw := RelabelByAppearance(f, 1)
	want := [][]int{
		{1, 0, 2},
		{2, 0, 3},
	}
	if !got.Equal(mustDense(t, want)) {
		t.Errorf("got %v, want %v", got.Dense(), want)
	}
	if fw[9] != 1 || fw[4] != 2 || fw[12] != 3 {
		t.Errorf("forward map: %v", fw)
	}

	shifted, _ := RelabelByAppearance(f, 10)
	if shifted.At(0, 0) != 10 || shifted.At(2, 1) != 12 {
		t.Errorf("offset: got %v", shifted.Dense())
	}
}

func TestDeleteLabels(t *testing.T) {
	f := rectField(10, 10, [5]int{1, 0, 0, 2, 2}, [5]int{2, 4, 4, 6, 6}, [5]int{3, 8, 8, 10, 10})
	got := DeleteLabels(f, []int{2, 42})
	if !equalInts(Labels(got), []int{1, 3}) {
		t.Errorf("labels: got %v, want [1 3]", Labels(got))
	}
	if Count(f) != 3 {
		t.Error("input modified")
	}
}

func TestDeleteMasked(t *testing.T) {
	f := rectField(10, 10, [5]int{1, 0, 0, 10, 10})
	m := raster.NewMask(10, 10)
	m.Set(3, 3, true)

	got, err := DeleteMasked(f, m)
	if err != nil {
		t.Fatalf("DeleteMasked failed: %v", err)
	}
	if got.At(3, 3) != 0 || got.At(4, 4) != 1 {
		t.Error("masked pixel not cleared")
	}

	if _, err := DeleteMasked(f, raster.NewMask(3, 3)); !errors.Is(err, raster.ErrShapeMismatch) {
		t.Errorf("got %v, want ErrShapeMismatch", err)
	}
}

func TestClearAndSelect(t *testing.T) {
	f := rectField(10, 10, [5]int{1, 0, 0, 2, 2}, [5]int{2, 4, 4, 6, 6})
	if !Clear(f).IsZero() {
		t.Error("Clear left labels behind")
	}

	sel := Select(f, []int{2})
	if !equalInts(Labels(sel), []int{2}) {
		t.Errorf("Select: got %v", Labels(sel))
	}
	if !Select(f, nil).Equal(f) {
		t.Error("empty selection should show all labels")
	}
}

func TestRemoveSmallBlocks(t *testing.T) {
	f := rectField(30, 30,
		[5]int{1, 0, 0, 2, 2},     // 4 px
		[5]int{2, 10, 10, 20, 20}, // 100 px
		[5]int{3, 20, 10, 22, 20}, // touches 2, 20 px
	)
	got := RemoveSmallBlocks(f, 64)
	if !equalInts(Labels(got), []int{1, 2}) {
		t.Fatalf("labels: got %v", Labels(got))
	}
	// 2 and 3 form one blob big enough to stay; they keep separate ids.
	if got.At(10, 10) != 1 || got.At(21, 10) != 2 || got.At(0, 0) != 0 {
		t.Errorf("got ids %d %d %d", got.At(10, 10), got.At(21, 10), got.At(0, 0))
	}
	if !RemoveSmallBlocks(got, 64).Equal(got) {
		t.Error("RemoveSmallBlocks is not idempotent")
	}
}

func TestRemoveSmallHoles(t *testing.T) {
	f := rectField(20, 20, [5]int{1, 0, 0, 10, 20}, [5]int{2, 10, 0, 20, 20})
	// hole inside 2
	for y := 5; y < 7; y++ {
		for x := 14; x < 16; x++ {
			f.Set(x, y, 0)
		}
	}
	// border notch
	f.Set(0, 0, 0)

	got := RemoveSmallHoles(f, 64)
	if got.At(14, 5) != 2 || got.At(15, 6) != 2 {
		t.Errorf("hole filled with %d, want 2", got.At(14, 5))
	}
	if got.At(0, 0) != 0 {
		t.Error("border background must not be filled")
	}
	if !RemoveSmallHoles(got, 64).Equal(got) {
		t.Error("RemoveSmallHoles is not idempotent")
	}
}

func TestIsDense(t *testing.T) {
	tests := []struct {
		name string
		rows [][]int
		want bool
	}{
		{"empty", [][]int{{0, 0}}, true},
		{"dense", [][]int{{1, 2}, {3, 0}}, true},
		{"gap", [][]int{{1, 3}}, false},
		{"starts high", [][]int{{2, 2}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDense(mustDense(t, tt.rows)); got != tt.want {
				t.Errorf("IsDense: got %v, want %v", got, tt.want)
			}
		})
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
