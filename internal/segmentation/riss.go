package segmentation

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/shear-failure-mcp/internal/raster"
)

// DefaultZ is the standard-normal quantile used by DetectByStatistic. Pixels
// brighter than mean + 1.96 sigma lie in the upper 2.5% tail.
const DefaultZ = 1.96

// ErrDegenerateStatistics is returned when the candidate pool is empty or has
// zero spread, so no meaningful threshold exists.
var ErrDegenerateStatistics = errors.New("degenerate statistics")

// StatisticOptions controls DetectByStatistic.
type StatisticOptions struct {
	// Z is the number of standard deviations above the mean; zero means
	// DefaultZ.
	Z float64
}

// StatisticResult is the outcome of a statistical detection.
type StatisticResult struct {
	Labels     *raster.LabelField
	Mean       float64
	StdDev     float64
	Threshold  float64
	Foreground int
}

// DetectByStatistic thresholds region at mean + z*sigma of the intensities
// pooled from all candidate masks.
//
// The pool is the union of candidates intersected with region; sigma is the
// population standard deviation. Foreground is region AND value > threshold,
// labeled into 8-connected components. The candidates define the statistic
// only; the threshold is applied over the whole region.
func DetectByStatistic(img *raster.Gray, region *raster.Mask, candidates []*raster.Mask, opts StatisticOptions) (*StatisticResult, error) {
	if !img.MatchesMask(region) {
		return nil, fmt.Errorf("image %dx%d, region %dx%d: %w",
			img.Width, img.Height, region.Width, region.Height, raster.ErrShapeMismatch)
	}
	z := opts.Z
	if z == 0 {
		z = DefaultZ
	}

	pool := raster.NewMask(region.Width, region.Height)
	for k, c := range candidates {
		if !c.SameShape(region) {
			return nil, fmt.Errorf("candidate %d is %dx%d, region %dx%d: %w",
				k, c.Width, c.Height, region.Width, region.Height, raster.ErrShapeMismatch)
		}
		for i, in := range c.Pix {
			if in && region.Pix[i] {
				pool.Pix[i] = true
			}
		}
	}

	values := make([]float64, 0, pool.Count())
	for i, in := range pool.Pix {
		if in {
			values = append(values, img.Pix[i])
		}
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no candidate pixels inside region: %w", ErrDegenerateStatistics)
	}

	mean, std := stat.PopMeanStdDev(values, nil)
	if std == 0 {
		return nil, fmt.Errorf("candidate intensities are constant (%g): %w", mean, ErrDegenerateStatistics)
	}
	t := mean + z*std

	fg := raster.NewMask(region.Width, region.Height)
	n := 0
	for i, in := range region.Pix {
		if in && img.Pix[i] > t {
			fg.Pix[i] = true
			n++
		}
	}

	return &StatisticResult{
		Labels:     Label(fg),
		Mean:       mean,
		StdDev:     std,
		Threshold:  t,
		Foreground: n,
	}, nil
}
