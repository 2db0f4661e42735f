package session

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/google/renameio"

	"github.com/ironsheep/shear-failure-mcp/internal/imaging"
	"github.com/ironsheep/shear-failure-mcp/internal/labelmap"
	"github.com/ironsheep/shear-failure-mcp/internal/measure"
	"github.com/ironsheep/shear-failure-mcp/internal/raster"
)

// RegionTable measures the regions of the current field. With ids only
// those regions are measured and totalled.
func (s *Session) RegionTable(ids ...int) (*measure.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.labels == nil {
		return nil, ErrNoImage
	}
	return s.tableLocked(ids), nil
}

func (s *Session) tableLocked(ids []int) *measure.Table {
	recs := measure.RegionProperties(labelmap.Select(s.labels, ids), s.scale, s.opts.Perimeter)
	return measure.NewTable(recs, s.scale)
}

// ExportCSV writes the region table to path, replacing it atomically.
func (s *Session) ExportCSV(path string) (*measure.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.labels == nil {
		return nil, ErrNoImage
	}

	t := s.tableLocked(nil)
	if err := writeAtomic(path, func(w io.Writer) error {
		return measure.WriteCSV(w, t)
	}); err != nil {
		return nil, err
	}
	s.log.Info(component, "csv exported", map[string]interface{}{"path": path, "rows": len(t.Records)})
	return t, nil
}

// OverlayRequest selects what ExportOverlay draws.
type OverlayRequest struct {
	// Labels restricts the overlay to these ids; empty draws all.
	Labels []int
	// Alpha overrides the configured opacity when > 0.
	Alpha float64
	// CropToRegion trims the output to the crop region's bounding box.
	CropToRegion bool
	// InlineMaxSide, when > 0, also returns the overlay as base64 PNG
	// scaled to fit this size.
	InlineMaxSide int
}

// ExportResult describes a written overlay.
type ExportResult struct {
	Path   string                `json:"path"`
	Width  int                   `json:"width"`
	Height int                   `json:"height"`
	Inline *imaging.EncodedImage `json:"inline,omitempty"`
}

// ExportOverlay renders the labels over the photograph and writes a PNG to
// path. Outside the crop region the output is transparent.
func (s *Session) ExportOverlay(path string, req OverlayRequest) (*ExportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil {
		return nil, ErrNoImage
	}

	alpha := req.Alpha
	if alpha <= 0 {
		alpha = s.opts.OverlayAlpha
	}
	out, err := imaging.RenderOverlay(s.img, s.labels, imaging.OverlayOptions{
		Alpha:      alpha,
		Labels:     req.Labels,
		Grayscale:  s.opts.OverlayGrayscale,
		Clip:       s.crop,
		CropToClip: req.CropToRegion && s.crop != nil,
	})
	if err != nil {
		return nil, err
	}

	if err := writeAtomic(path, func(w io.Writer) error {
		return imaging.WritePNG(w, out)
	}); err != nil {
		return nil, err
	}

	res := &ExportResult{Path: path, Width: out.Bounds().Dx(), Height: out.Bounds().Dy()}
	if req.InlineMaxSide > 0 {
		if res.Inline, err = imaging.EncodeBase64(out, req.InlineMaxSide); err != nil {
			return nil, err
		}
	}
	s.log.Info(component, "overlay exported", map[string]interface{}{"path": path})
	return res, nil
}

// SaveLabels writes the label field to path as sparse (CSR) JSON.
func (s *Session) SaveLabels(path string) (*raster.SparseLabels, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.labels == nil {
		return nil, ErrNoImage
	}

	sp := raster.EncodeSparse(s.labels)
	if err := writeAtomic(path, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(sp)
	}); err != nil {
		return nil, err
	}
	return sp, nil
}

// LoadLabels replaces the label field with one read from a sparse JSON
// file. A smaller field is zero-padded to the photograph when padding is
// enabled; any other size difference is a shape mismatch.
func (s *Session) LoadLabels(path string) (*Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gray == nil {
		return nil, ErrNoImage
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	var sp raster.SparseLabels
	if err := json.Unmarshal(data, &sp); err != nil {
		return nil, fmt.Errorf("failed to parse labels (%v): %w", err, raster.ErrCorruptSparse)
	}
	if rows, cols := sp.Shape[0], sp.Shape[1]; rows > s.gray.Height || cols > s.gray.Width {
		return nil, fmt.Errorf("labels %dx%d, image %dx%d: %w",
			cols, rows, s.gray.Width, s.gray.Height, raster.ErrShapeMismatch)
	}
	f, err := raster.DecodeSparse(&sp)
	if err != nil {
		return nil, err
	}

	if f.Width != s.gray.Width || f.Height != s.gray.Height {
		if !s.opts.Merge.PadMismatched {
			return nil, fmt.Errorf("labels %dx%d, image %dx%d: %w",
				f.Width, f.Height, s.gray.Width, s.gray.Height, raster.ErrShapeMismatch)
		}
		if f, err = f.Pad(s.gray.Width, s.gray.Height); err != nil {
			return nil, err
		}
	}

	s.commit(f, "load")
	return s.statusLocked(), nil
}

// writeAtomic writes a file through a temporary file in the same directory
// and renames it into place, so readers never see a partial file.
func writeAtomic(path string, write func(io.Writer) error) error {
	o, err := renameio.TempFile("", path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer o.Cleanup()

	if err := write(o); err != nil {
		return err
	}
	return o.CloseAtomicallyReplace()
}

// PreviewRequest selects the region and decorations of a preview.
type PreviewRequest struct {
	// Rect is the image region to show; the zero rectangle shows everything.
	Rect        image.Rectangle
	Scale       float64
	GridSpacing int
	Coordinates bool
	// Overlay draws the current labels under the grid.
	Overlay bool
}

// Preview returns a base64 PNG of part of the photograph, optionally with
// the labels and a coordinate grid drawn over it.
func (s *Session) Preview(req PreviewRequest) (*imaging.EncodedImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil {
		return nil, ErrNoImage
	}

	var base image.Image = s.img
	if req.Overlay {
		out, err := imaging.RenderOverlay(s.img, s.labels, imaging.OverlayOptions{
			Alpha:     s.opts.OverlayAlpha,
			Grayscale: s.opts.OverlayGrayscale,
		})
		if err != nil {
			return nil, err
		}
		base = out
	}
	return imaging.Preview(base, imaging.PreviewOptions{
		Rect:        req.Rect,
		Scale:       req.Scale,
		GridSpacing: req.GridSpacing,
		Coordinates: req.Coordinates,
	})
}
