package raster

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is returned when two rasters that must share a shape do not.
var ErrShapeMismatch = errors.New("shape mismatch")

// Mask is a binary occupancy grid stored in row-major order.
//
// Pix[row*Width+col] is true when the pixel at (col, row) belongs to the region.
type Mask struct {
	Width  int
	Height int
	Pix    []bool
}

// NewMask allocates an all-false mask.
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]bool, width*height),
	}
}

// At reports whether (col, row) is set. Out-of-range coordinates read as false.
func (m *Mask) At(col, row int) bool {
	if col < 0 || row < 0 || col >= m.Width || row >= m.Height {
		return false
	}
	return m.Pix[row*m.Width+col]
}

// Set assigns the pixel at (col, row). Out-of-range writes are ignored.
func (m *Mask) Set(col, row int, v bool) {
	if col < 0 || row < 0 || col >= m.Width || row >= m.Height {
		return
	}
	m.Pix[row*m.Width+col] = v
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	out := &Mask{Width: m.Width, Height: m.Height, Pix: make([]bool, len(m.Pix))}
	copy(out.Pix, m.Pix)
	return out
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// Any reports whether at least one pixel is set.
func (m *Mask) Any() bool {
	for _, v := range m.Pix {
		if v {
			return true
		}
	}
	return false
}

// SameShape reports whether both masks have identical dimensions.
func (m *Mask) SameShape(o *Mask) bool {
	return m.Width == o.Width && m.Height == o.Height
}

// And returns the intersection of two masks of the same shape.
func (m *Mask) And(o *Mask) (*Mask, error) {
	if !m.SameShape(o) {
		return nil, fmt.Errorf("and %dx%d with %dx%d: %w", m.Width, m.Height, o.Width, o.Height, ErrShapeMismatch)
	}
	out := NewMask(m.Width, m.Height)
	for i := range m.Pix {
		out.Pix[i] = m.Pix[i] && o.Pix[i]
	}
	return out, nil
}

// Or returns the union of two masks of the same shape.
func (m *Mask) Or(o *Mask) (*Mask, error) {
	if !m.SameShape(o) {
		return nil, fmt.Errorf("or %dx%d with %dx%d: %w", m.Width, m.Height, o.Width, o.Height, ErrShapeMismatch)
	}
	out := NewMask(m.Width, m.Height)
	for i := range m.Pix {
		out.Pix[i] = m.Pix[i] || o.Pix[i]
	}
	return out, nil
}

// Not returns the complement of the mask.
func (m *Mask) Not() *Mask {
	out := NewMask(m.Width, m.Height)
	for i, v := range m.Pix {
		out.Pix[i] = !v
	}
	return out
}

// Equal reports whether both masks have the same shape and contents.
func (m *Mask) Equal(o *Mask) bool {
	if !m.SameShape(o) {
		return false
	}
	for i := range m.Pix {
		if m.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

// Gray is a single-channel intensity image with values in [0, 1].
type Gray struct {
	Width  int
	Height int
	Pix    []float64
}

// NewGray allocates an all-zero grayscale image.
func NewGray(width, height int) *Gray {
	return &Gray{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}
}

// At returns the intensity at (col, row), or 0 outside the image.
func (g *Gray) At(col, row int) float64 {
	if col < 0 || row < 0 || col >= g.Width || row >= g.Height {
		return 0
	}
	return g.Pix[row*g.Width+col]
}

// Set assigns the intensity at (col, row). Out-of-range writes are ignored.
func (g *Gray) Set(col, row int, v float64) {
	if col < 0 || row < 0 || col >= g.Width || row >= g.Height {
		return
	}
	g.Pix[row*g.Width+col] = v
}

// MatchesMask reports whether the image and mask share dimensions.
func (g *Gray) MatchesMask(m *Mask) bool {
	return g.Width == m.Width && g.Height == m.Height
}

// LabelField is an integer raster where 0 is background and each positive
// value identifies one region.
type LabelField struct {
	Width  int
	Height int
	Pix    []int
}

// NewLabelField allocates an all-background label field.
func NewLabelField(width, height int) *LabelField {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &LabelField{
		Width:  width,
		Height: height,
		Pix:    make([]int, width*height),
	}
}

// At returns the label at (col, row), or 0 outside the field.
func (f *LabelField) At(col, row int) int {
	if col < 0 || row < 0 || col >= f.Width || row >= f.Height {
		return 0
	}
	return f.Pix[row*f.Width+col]
}

// Set assigns the label at (col, row). Out-of-range writes are ignored.
func (f *LabelField) Set(col, row, label int) {
	if col < 0 || row < 0 || col >= f.Width || row >= f.Height {
		return
	}
	f.Pix[row*f.Width+col] = label
}

// Clone returns a deep copy of the field.
func (f *LabelField) Clone() *LabelField {
	out := &LabelField{Width: f.Width, Height: f.Height, Pix: make([]int, len(f.Pix))}
	copy(out.Pix, f.Pix)
	return out
}

// Max returns the largest label value present, or 0 for an empty field.
func (f *LabelField) Max() int {
	max := 0
	for _, v := range f.Pix {
		if v > max {
			max = v
		}
	}
	return max
}

// IsZero reports whether every pixel is background.
func (f *LabelField) IsZero() bool {
	for _, v := range f.Pix {
		if v != 0 {
			return false
		}
	}
	return true
}

// Foreground returns the mask of all labeled pixels.
func (f *LabelField) Foreground() *Mask {
	out := NewMask(f.Width, f.Height)
	for i, v := range f.Pix {
		out.Pix[i] = v > 0
	}
	return out
}

// SameShape reports whether both fields have identical dimensions.
func (f *LabelField) SameShape(o *LabelField) bool {
	return f.Width == o.Width && f.Height == o.Height
}

// Equal reports whether both fields have the same shape and labels.
func (f *LabelField) Equal(o *LabelField) bool {
	if !f.SameShape(o) {
		return false
	}
	for i := range f.Pix {
		if f.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

// Pad returns a copy of the field grown with background on the bottom and
// right to width x height. Shrinking is refused rather than truncating.
func (f *LabelField) Pad(width, height int) (*LabelField, error) {
	if width < f.Width || height < f.Height {
		return nil, fmt.Errorf("pad %dx%d to %dx%d would truncate: %w", f.Width, f.Height, width, height, ErrShapeMismatch)
	}
	out := NewLabelField(width, height)
	for row := 0; row < f.Height; row++ {
		copy(out.Pix[row*width:row*width+f.Width], f.Pix[row*f.Width:(row+1)*f.Width])
	}
	return out, nil
}

// FromDense builds a label field from a row-major [][]int grid.
// All rows must have the same length.
func FromDense(rows [][]int) (*LabelField, error) {
	height := len(rows)
	width := 0
	if height > 0 {
		width = len(rows[0])
	}
	f := NewLabelField(width, height)
	for r, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d columns, want %d: %w", r, len(row), width, ErrShapeMismatch)
		}
		for c, v := range row {
			if v < 0 {
				return nil, fmt.Errorf("negative label %d at (%d,%d)", v, c, r)
			}
			f.Pix[r*width+c] = v
		}
	}
	return f, nil
}

// Dense returns the field as a row-major [][]int grid.
func (f *LabelField) Dense() [][]int {
	rows := make([][]int, f.Height)
	for r := 0; r < f.Height; r++ {
		rows[r] = make([]int, f.Width)
		copy(rows[r], f.Pix[r*f.Width:(r+1)*f.Width])
	}
	return rows
}
