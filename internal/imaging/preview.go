package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/shear-failure-mcp/internal/geometry"
)

// PreviewOptions controls Preview.
type PreviewOptions struct {
	// Rect is the region to show in image coordinates, top-left inclusive
	// and bottom-right exclusive. The zero rectangle shows the whole image.
	Rect image.Rectangle
	// Scale resizes the cropped region; zero or 1 keeps it as is.
	Scale float64
	// GridSpacing draws grid lines every GridSpacing image pixels. Zero
	// disables the grid.
	GridSpacing int
	// Coordinates labels every grid intersection with its x,y position.
	Coordinates bool
	// GridColor is "#RRGGBB" or "#RRGGBBAA"; invalid values fall back to
	// red.
	GridColor string
}

// Preview crops img to opts.Rect, draws an optional coordinate grid and
// scales the result. Grid positions and coordinate labels refer to the
// uncropped image, so they can be used directly as polygon vertices.
func Preview(img image.Image, opts PreviewOptions) (*EncodedImage, error) {
	bounds := img.Bounds()
	rect := opts.Rect
	if rect.Empty() {
		rect = bounds
	}
	if !rect.In(bounds) {
		return nil, fmt.Errorf("preview region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d): %w",
			rect.Min.X, rect.Min.Y, rect.Max.X, rect.Max.Y,
			bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y, geometry.ErrInvalidGeometry)
	}
	if opts.Scale < 0 || opts.GridSpacing < 0 {
		return nil, fmt.Errorf("scale %g and grid spacing %d must not be negative: %w",
			opts.Scale, opts.GridSpacing, geometry.ErrInvalidGeometry)
	}

	cropped := imaging.Crop(img, rect)
	if opts.GridSpacing > 0 {
		cropped = drawGrid(cropped, rect.Min, opts)
	}

	var out image.Image = cropped
	if opts.Scale > 0 && opts.Scale != 1.0 {
		w := int(float64(rect.Dx()) * opts.Scale)
		h := int(float64(rect.Dy()) * opts.Scale)
		if w < 1 || h < 1 {
			return nil, fmt.Errorf("scale %g leaves an empty preview: %w", opts.Scale, geometry.ErrInvalidGeometry)
		}
		out = imaging.Resize(cropped, w, h, imaging.Lanczos)
	}
	return EncodeBase64(out, 0)
}

// drawGrid draws lines at image coordinates that are multiples of the grid
// spacing. origin is the image position of the top-left pixel of img.
func drawGrid(img *image.NRGBA, origin image.Point, opts PreviewOptions) *image.NRGBA {
	gridColor, err := parseHexColor(opts.GridColor)
	if err != nil {
		gridColor = color.NRGBA{255, 0, 0, 255}
	}

	result := imaging.Clone(img)
	b := result.Bounds()

	sp := opts.GridSpacing
	// first returns the offset of the first line at or after o, skipping
	// the image edge at 0.
	first := func(o int) int {
		m := (o + sp - 1) / sp * sp
		if m == 0 {
			m = sp
		}
		return m - o
	}

	for x := first(origin.X); x < b.Dx(); x += sp {
		for y := 0; y < b.Dy(); y++ {
			result.SetNRGBA(x, y, gridColor)
		}
	}
	for y := first(origin.Y); y < b.Dy(); y += sp {
		for x := 0; x < b.Dx(); x++ {
			result.SetNRGBA(x, y, gridColor)
		}
	}

	if opts.Coordinates {
		fg := color.NRGBA{255, 255, 255, 255}
		bg := color.NRGBA{0, 0, 0, 255}
		for y := first(origin.Y); y < b.Dy(); y += sp {
			for x := first(origin.X); x < b.Dx(); x += sp {
				label := strconv.Itoa(origin.X+x) + "," + strconv.Itoa(origin.Y+y)
				drawLabel(result, x+2, y+2, label, fg, bg)
			}
		}
	}
	return result
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080"
func parseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 0 {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	val, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, err
	}
	switch len(hex) {
	case 6:
		return color.NRGBA{R: uint8(val >> 16), G: uint8(val >> 8), B: uint8(val), A: 255}, nil
	case 8:
		return color.NRGBA{R: uint8(val >> 24), G: uint8(val >> 16), B: uint8(val >> 8), A: uint8(val)}, nil
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length")
	}
}

// glyphs is a 3x5 pixel font for coordinate labels.
var glyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	',': {"000", "000", "000", "010", "010"},
}

// drawLabel draws text with its top-left corner at (x, y) over a background
// box. Pixels outside img are skipped.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	bounds := img.Bounds()
	const charWidth, labelHeight = 4, 7
	labelWidth := len(text) * charWidth

	set := func(px, py int, c color.NRGBA) {
		if image.Pt(px, py).In(bounds) {
			img.SetNRGBA(px, py, c)
		}
	}

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			set(x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		for row, line := range glyphs[ch] {
			for col, pixel := range line {
				if pixel == '1' {
					set(cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
