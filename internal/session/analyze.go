package session

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/shear-failure-mcp/internal/geometry"
	"github.com/ironsheep/shear-failure-mcp/internal/labelmap"
	"github.com/ironsheep/shear-failure-mcp/internal/raster"
	"github.com/ironsheep/shear-failure-mcp/internal/segmentation"
)

// PolygonSummary reports how one polygon was segmented.
type PolygonSummary struct {
	Index        int     `json:"index"`
	Threshold    float64 `json:"threshold"`
	RegionPixels int     `json:"region_px"`
	Regions      int     `json:"regions"`
}

// AnalyzeResult is returned by Analyze and AddPolygon.
type AnalyzeResult struct {
	Polygons []PolygonSummary `json:"polygons"`
	Status   *Status          `json:"status"`
}

// Analyze segments each polygon and merges the results into the label
// field in submission order. Without appendMode the field is cleared first.
//
// Polygons are segmented concurrently (they only read the photograph); the
// merges run sequentially. The field is committed only when every polygon
// succeeded and ctx was not cancelled.
func (s *Session) Analyze(ctx context.Context, polys []geometry.Polygon, appendMode bool) (*AnalyzeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gray == nil {
		return nil, ErrNoImage
	}
	if len(polys) == 0 {
		return nil, fmt.Errorf("no polygons given: %w", geometry.ErrInvalidGeometry)
	}

	gray, crop, opts := s.gray, s.crop, s.opts.Segmentation
	results := make([]*segmentation.PolygonResult, len(polys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, p := range polys {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := segmentation.SegmentPolygon(gray, p, crop, opts)
			if err != nil {
				return fmt.Errorf("polygon %d: %w", i, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Warning(component, "analysis failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	field := s.labels
	if !appendMode {
		field = labelmap.Clear(field)
	}
	summaries := make([]PolygonSummary, len(results))
	for i, r := range results {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		merged, err := labelmap.Merge(field, r.Labels, s.opts.Merge)
		if err != nil {
			return nil, fmt.Errorf("polygon %d: %w", i, err)
		}
		field = merged
		summaries[i] = PolygonSummary{
			Index:        i,
			Threshold:    r.Threshold,
			RegionPixels: r.RegionPixels,
			Regions:      r.Labels.Max(),
		}
	}

	s.commit(field, "analyze")
	s.log.Info(component, "analysis finished", map[string]interface{}{
		"polygons": len(polys),
		"labels":   labelmap.Count(field),
	})
	return &AnalyzeResult{Polygons: summaries, Status: s.statusLocked()}, nil
}

// AddPolygon segments one more polygon and merges it into the field.
func (s *Session) AddPolygon(ctx context.Context, poly geometry.Polygon) (*AnalyzeResult, error) {
	return s.Analyze(ctx, []geometry.Polygon{poly}, true)
}

// RissResult is returned by DetectRiss.
type RissResult struct {
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	Threshold  float64 `json:"threshold"`
	Threshold8 float64 `json:"threshold_8bit"`
	Foreground int     `json:"foreground_px"`
	Regions    int     `json:"regions"`
	Status     *Status `json:"status"`
}

// DetectRiss pools the intensities under the example polygons, thresholds
// the crop region (or the whole photograph) at mean + z*sigma and merges the
// detected regions into the field.
func (s *Session) DetectRiss(polys []geometry.Polygon) (*RissResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gray == nil {
		return nil, ErrNoImage
	}

	res, err := segmentation.SegmentStatistic(s.gray, polys, s.crop, s.opts.Statistic)
	if err != nil {
		return nil, err
	}
	merged, err := labelmap.Merge(s.labels, res.Labels, s.opts.Merge)
	if err != nil {
		return nil, err
	}
	s.commit(merged, "riss")

	s.log.Info(component, "riss detection", map[string]interface{}{
		"threshold":  res.Threshold * 255,
		"foreground": res.Foreground,
	})
	return &RissResult{
		Mean:       res.Mean,
		StdDev:     res.StdDev,
		Threshold:  res.Threshold,
		Threshold8: res.Threshold * 255,
		Foreground: res.Foreground,
		Regions:    res.Labels.Max(),
		Status:     s.statusLocked(),
	}, nil
}

// DeleteArea clears every labeled pixel inside poly.
func (s *Session) DeleteArea(poly geometry.Polygon) (*Status, error) {
	return s.edit("delete_area", func(f *raster.LabelField) (*raster.LabelField, error) {
		m, err := geometry.Rasterize(poly, f.Width, f.Height)
		if err != nil {
			return nil, err
		}
		return labelmap.DeleteMasked(f, m)
	})
}

// DeleteLabels removes the given region ids.
func (s *Session) DeleteLabels(ids []int) (*Status, error) {
	return s.edit("delete_labels", func(f *raster.LabelField) (*raster.LabelField, error) {
		return labelmap.DeleteLabels(f, ids), nil
	})
}

// ClearLabels removes every region.
func (s *Session) ClearLabels() (*Status, error) {
	return s.edit("clear", func(f *raster.LabelField) (*raster.LabelField, error) {
		return labelmap.Clear(f), nil
	})
}

// RemoveSmallBlocks drops labeled blobs smaller than minSize pixels.
func (s *Session) RemoveSmallBlocks(minSize int) (*Status, error) {
	return s.edit("remove_small_blocks", func(f *raster.LabelField) (*raster.LabelField, error) {
		return labelmap.RemoveSmallBlocks(f, minSize), nil
	})
}

// RemoveSmallHoles fills enclosed holes smaller than minSize pixels.
func (s *Session) RemoveSmallHoles(minSize int) (*Status, error) {
	return s.edit("remove_small_holes", func(f *raster.LabelField) (*raster.LabelField, error) {
		return labelmap.RemoveSmallHoles(f, minSize), nil
	})
}

func (s *Session) edit(op string, fn func(*raster.LabelField) (*raster.LabelField, error)) (*Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.labels == nil {
		return nil, ErrNoImage
	}
	next, err := fn(s.labels)
	if err != nil {
		return nil, err
	}
	s.commit(next, op)
	return s.statusLocked(), nil
}
