// Package raster holds the grid types shared by the segmentation pipeline:
// binary masks, grayscale intensity images and integer label fields.
//
// All grids are stored row-major with (0,0) at the top-left corner. A pixel is
// addressed as (col, row); col grows rightward and row grows downward, which
// matches the X/Y convention of image.Image.
//
// # Ownership
//
// Every operation in this module returns a freshly allocated grid. Callers may
// keep and mutate a returned grid without affecting the input it came from.
//
// # Persistence
//
// Label fields are mostly background, so they round-trip through a compressed
// sparse row encoding (see SparseLabels). The dense form ([][]int) is also
// accepted for small fields and tests.
package raster
