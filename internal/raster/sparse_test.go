package raster

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSparse_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		rows [][]int
	}{
		{"empty", [][]int{}},
		{"all background", [][]int{{0, 0, 0}, {0, 0, 0}}},
		{"mixed", [][]int{
			{0, 1, 1, 0},
			{2, 0, 0, 0},
			{0, 0, 0, 0},
			{0, 3, 3, 3},
		}},
		{"dense", [][]int{{4, 5}, {6, 7}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := FromDense(tt.rows)
			if err != nil {
				t.Fatalf("FromDense failed: %v", err)
			}
			s := EncodeSparse(f)
			back, err := DecodeSparse(s)
			if err != nil {
				t.Fatalf("DecodeSparse failed: %v", err)
			}
			if !back.Equal(f) {
				t.Errorf("round trip mismatch: got %v, want %v", back.Dense(), f.Dense())
			}
		})
	}
}

func TestSparse_Layout(t *testing.T) {
	f, _ := FromDense([][]int{
		{0, 1, 1},
		{0, 0, 0},
		{2, 0, 3},
	})
	s := EncodeSparse(f)

	if s.Shape != [2]int{3, 3} {
		t.Errorf("Shape: got %v, want [3 3]", s.Shape)
	}
	wantData := []int{1, 1, 2, 3}
	wantIndices := []int{1, 2, 0, 2}
	wantIndptr := []int{0, 2, 2, 4}
	for i := range wantData {
		if s.Data[i] != wantData[i] || s.Indices[i] != wantIndices[i] {
			t.Errorf("entry %d: got (%d@%d), want (%d@%d)", i, s.Data[i], s.Indices[i], wantData[i], wantIndices[i])
		}
	}
	for i := range wantIndptr {
		if s.Indptr[i] != wantIndptr[i] {
			t.Errorf("Indptr[%d]: got %d, want %d", i, s.Indptr[i], wantIndptr[i])
		}
	}
}

func TestSparse_JSON(t *testing.T) {
	f, _ := FromDense([][]int{{0, 9}, {8, 0}})
	data, err := json.Marshal(EncodeSparse(f))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var s SparseLabels
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	back, err := DecodeSparse(&s)
	if err != nil {
		t.Fatalf("DecodeSparse failed: %v", err)
	}
	if !back.Equal(f) {
		t.Errorf("json round trip mismatch: got %v", back.Dense())
	}
}

func TestDecodeSparse_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		s    SparseLabels
	}{
		{"negative shape", SparseLabels{Shape: [2]int{-1, 2}, Indptr: []int{0}}},
		{"short indptr", SparseLabels{Shape: [2]int{2, 2}, Indptr: []int{0, 0}}},
		{"data/indices length", SparseLabels{Shape: [2]int{1, 2}, Data: []int{1}, Indices: []int{}, Indptr: []int{0, 1}}},
		{"indptr end", SparseLabels{Shape: [2]int{1, 2}, Data: []int{1}, Indices: []int{0}, Indptr: []int{0, 0}}},
		{"column out of range", SparseLabels{Shape: [2]int{1, 2}, Data: []int{1}, Indices: []int{2}, Indptr: []int{0, 1}}},
		{"columns not increasing", SparseLabels{Shape: [2]int{1, 3}, Data: []int{1, 1}, Indices: []int{1, 1}, Indptr: []int{0, 2}}},
		{"zero label", SparseLabels{Shape: [2]int{1, 2}, Data: []int{0}, Indices: []int{0}, Indptr: []int{0, 1}}},
		{"overflowing shape", SparseLabels{Shape: [2]int{1, 1 << 62}, Indptr: []int{0, 0}}},
		{"oversized shape", SparseLabels{Shape: [2]int{2, MaxSparsePixels}, Indptr: []int{0, 0, 0}}},
		{"decreasing indptr", SparseLabels{Shape: [2]int{2, 2}, Data: []int{1}, Indices: []int{0}, Indptr: []int{0, 2, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeSparse(&tt.s); !errors.Is(err, ErrCorruptSparse) {
				t.Errorf("got %v, want ErrCorruptSparse", err)
			}
		})
	}
}
