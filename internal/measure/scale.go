package measure

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/shear-failure-mcp/internal/geometry"
)

// ErrInvalidScale is returned when a calibration cannot produce a positive
// length-per-pixel factor.
var ErrInvalidScale = errors.New("invalid scale")

// ScaleFromLine derives the physical length of one pixel from a reference
// line drawn over the image and its known physical length.
func ScaleFromLine(line geometry.Line, physicalLength float64) (float64, error) {
	if math.IsNaN(physicalLength) || math.IsInf(physicalLength, 0) || physicalLength <= 0 {
		return 0, fmt.Errorf("physical length %g must be positive: %w", physicalLength, ErrInvalidScale)
	}
	px := line.Length()
	if math.IsNaN(px) || px == 0 {
		return 0, fmt.Errorf("reference line has zero pixel length: %w", ErrInvalidScale)
	}
	return physicalLength / px, nil
}
