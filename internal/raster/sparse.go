package raster

import (
	"errors"
	"fmt"
	"math"
)

// ErrCorruptSparse is returned when a sparse encoding is internally inconsistent.
var ErrCorruptSparse = errors.New("corrupt sparse label encoding")

// MaxSparsePixels bounds the dense field DecodeSparse will allocate.
const MaxSparsePixels = 1 << 30

// SparseLabels is the compressed sparse row (CSR) encoding of a label field.
//
// Row r holds the non-zero labels Data[Indptr[r]:Indptr[r+1]] at the columns
// Indices[Indptr[r]:Indptr[r+1]]. Columns are strictly increasing within a row.
// Shape is [rows, cols].
type SparseLabels struct {
	Shape   [2]int `json:"shape" yaml:"shape"`
	Data    []int  `json:"data" yaml:"data"`
	Indices []int  `json:"indices" yaml:"indices"`
	Indptr  []int  `json:"indptr" yaml:"indptr"`
}

// EncodeSparse converts a label field to CSR form.
func EncodeSparse(f *LabelField) *SparseLabels {
	s := &SparseLabels{
		Shape:   [2]int{f.Height, f.Width},
		Data:    make([]int, 0),
		Indices: make([]int, 0),
		Indptr:  make([]int, 1, f.Height+1),
	}
	for row := 0; row < f.Height; row++ {
		base := row * f.Width
		for col := 0; col < f.Width; col++ {
			if v := f.Pix[base+col]; v != 0 {
				s.Data = append(s.Data, v)
				s.Indices = append(s.Indices, col)
			}
		}
		s.Indptr = append(s.Indptr, len(s.Data))
	}
	return s
}

// DecodeSparse rebuilds the dense label field from its CSR form.
//
// The encoding is validated before any pixel is written: the shape must be
// non-negative with at most MaxSparsePixels cells, Indptr must have rows+1
// non-decreasing entries starting at 0 and ending at len(Data), column
// indices must be in range and strictly increasing per row, and every stored
// label must be positive.
func DecodeSparse(s *SparseLabels) (*LabelField, error) {
	rows, cols := s.Shape[0], s.Shape[1]
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("negative shape %v: %w", s.Shape, ErrCorruptSparse)
	}
	if cols > 0 && (rows > math.MaxInt/cols || rows*cols > MaxSparsePixels) {
		return nil, fmt.Errorf("shape %v exceeds %d pixels: %w", s.Shape, MaxSparsePixels, ErrCorruptSparse)
	}
	if len(s.Indptr) != rows+1 {
		return nil, fmt.Errorf("indptr has %d entries, want %d: %w", len(s.Indptr), rows+1, ErrCorruptSparse)
	}
	if len(s.Data) != len(s.Indices) {
		return nil, fmt.Errorf("data has %d entries but indices has %d: %w", len(s.Data), len(s.Indices), ErrCorruptSparse)
	}
	if s.Indptr[0] != 0 || s.Indptr[rows] != len(s.Data) {
		return nil, fmt.Errorf("indptr does not span data: %w", ErrCorruptSparse)
	}

	f := NewLabelField(cols, rows)
	for row := 0; row < rows; row++ {
		start, end := s.Indptr[row], s.Indptr[row+1]
		if start > end || end > len(s.Data) {
			return nil, fmt.Errorf("indptr out of order at row %d: %w", row, ErrCorruptSparse)
		}
		prev := -1
		for k := start; k < end; k++ {
			col, v := s.Indices[k], s.Data[k]
			if col < 0 || col >= cols || col <= prev {
				return nil, fmt.Errorf("bad column %d in row %d: %w", col, row, ErrCorruptSparse)
			}
			if v <= 0 {
				return nil, fmt.Errorf("non-positive label %d at (%d,%d): %w", v, col, row, ErrCorruptSparse)
			}
			f.Pix[row*cols+col] = v
			prev = col
		}
	}
	return f, nil
}
