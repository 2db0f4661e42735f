package segmentation

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/shear-failure-mcp/internal/raster"
)

// DefaultBins is the histogram resolution used for Otsu thresholding.
const DefaultBins = 256

// ErrEmptyRegion is returned when a region mask selects no pixels.
var ErrEmptyRegion = errors.New("empty region")

// ThresholdOptions controls ThresholdMasked.
type ThresholdOptions struct {
	// Bins is the histogram size; zero means DefaultBins.
	Bins int
	// Strict uses value > t instead of value >= t for the foreground test.
	Strict bool
}

// OtsuThreshold returns the threshold that maximises the between-class
// variance of values.
//
// The histogram spans [min, max] of the values in the given number of equal
// bins, and the candidate thresholds are the bin centres. Ties keep the first
// (lowest) candidate. A constant population returns that constant.
func OtsuThreshold(values []float64, bins int) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyRegion
	}
	if bins < 2 {
		bins = DefaultBins
	}

	x := make([]float64, len(values))
	copy(x, values)
	sort.Float64s(x)

	lo, hi := x[0], x[len(x)-1]
	if lo == hi {
		return lo, nil
	}

	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	// Histogram bins are half-open; nudge the last edge so max is counted.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	hist := stat.Histogram(nil, dividers, x, nil)

	width := (hi - lo) / float64(bins)
	centers := make([]float64, bins)
	for i := range centers {
		centers[i] = lo + (float64(i)+0.5)*width
	}

	var totalW, totalM float64
	for i, h := range hist {
		totalW += h
		totalM += h * centers[i]
	}

	best, bestIdx := -1.0, 0
	var w1, m1 float64
	for i := 0; i < bins-1; i++ {
		w1 += hist[i]
		m1 += hist[i] * centers[i]
		w2 := totalW - w1
		if w1 == 0 || w2 == 0 {
			continue
		}
		mean1 := m1 / w1
		mean2 := (totalM - m1) / w2
		v := w1 * w2 * (mean1 - mean2) * (mean1 - mean2)
		if v > best {
			best, bestIdx = v, i
		}
	}
	return centers[bestIdx], nil
}

// ThresholdMasked computes an Otsu threshold over the pixels of img selected
// by mask and returns the foreground (mask AND value >= threshold) together
// with the threshold itself.
//
// Pixels outside the mask never take part in the histogram and are never
// foreground.
func ThresholdMasked(img *raster.Gray, mask *raster.Mask, opts ThresholdOptions) (*raster.Mask, float64, error) {
	if !img.MatchesMask(mask) {
		return nil, 0, fmt.Errorf("image %dx%d, mask %dx%d: %w",
			img.Width, img.Height, mask.Width, mask.Height, raster.ErrShapeMismatch)
	}

	values := make([]float64, 0, mask.Count())
	for i, in := range mask.Pix {
		if in {
			values = append(values, img.Pix[i])
		}
	}
	if len(values) == 0 {
		return nil, 0, ErrEmptyRegion
	}

	t, err := OtsuThreshold(values, opts.Bins)
	if err != nil {
		return nil, 0, err
	}

	out := raster.NewMask(mask.Width, mask.Height)
	for i, in := range mask.Pix {
		if !in {
			continue
		}
		v := img.Pix[i]
		if opts.Strict {
			out.Pix[i] = v > t
		} else {
			out.Pix[i] = v >= t
		}
	}
	return out, t, nil
}
