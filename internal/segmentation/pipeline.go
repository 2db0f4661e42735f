package segmentation

import (
	"fmt"

	"github.com/ironsheep/shear-failure-mcp/internal/geometry"
	"github.com/ironsheep/shear-failure-mcp/internal/raster"
)

// Options configures SegmentPolygon.
type Options struct {
	Threshold     ThresholdOptions
	Morphology    bool
	MinObjectSize int
	MinHoleSize   int
}

// DefaultOptions returns the settings used for interactive polygon analysis.
func DefaultOptions() Options {
	return Options{
		Threshold:     ThresholdOptions{Bins: DefaultBins},
		Morphology:    true,
		MinObjectSize: 64,
		MinHoleSize:   64,
	}
}

// PolygonResult is the outcome of segmenting one polygon.
type PolygonResult struct {
	Labels       *raster.LabelField
	Threshold    float64
	RegionPixels int
}

// SegmentPolygon rasterizes poly, restricts it to crop (when non-nil), runs a
// masked Otsu threshold inside it, optionally cleans the foreground with
// small-object and small-hole removal, and labels the result.
func SegmentPolygon(img *raster.Gray, poly geometry.Polygon, crop *raster.Mask, opts Options) (*PolygonResult, error) {
	region, err := geometry.Rasterize(poly, img.Width, img.Height)
	if err != nil {
		return nil, err
	}
	if crop != nil {
		if region, err = region.And(crop); err != nil {
			return nil, fmt.Errorf("crop mask: %w", err)
		}
	}

	n := region.Count()
	if n == 0 {
		return nil, ErrEmptyRegion
	}

	fg, t, err := ThresholdMasked(img, region, opts.Threshold)
	if err != nil {
		return nil, err
	}
	if opts.Morphology {
		fg = RemoveSmallObjects(fg, opts.MinObjectSize)
		fg = RemoveSmallHoles(fg, opts.MinHoleSize)
	}

	return &PolygonResult{
		Labels:       Label(fg),
		Threshold:    t,
		RegionPixels: n,
	}, nil
}

// SegmentStatistic rasterizes the candidate polygons and runs
// DetectByStatistic over region. A nil region means the whole image.
func SegmentStatistic(img *raster.Gray, polys []geometry.Polygon, region *raster.Mask, opts StatisticOptions) (*StatisticResult, error) {
	if region == nil {
		region = raster.NewMask(img.Width, img.Height)
		for i := range region.Pix {
			region.Pix[i] = true
		}
	}

	candidates := make([]*raster.Mask, 0, len(polys))
	for i, p := range polys {
		m, err := geometry.Rasterize(p, img.Width, img.Height)
		if err != nil {
			return nil, fmt.Errorf("polygon %d: %w", i, err)
		}
		candidates = append(candidates, m)
	}
	return DetectByStatistic(img, region, candidates, opts)
}
