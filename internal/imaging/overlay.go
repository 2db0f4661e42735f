package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/shear-failure-mcp/internal/raster"
)

// DefaultAlpha is the opacity of label colours drawn over the photograph.
const DefaultAlpha = 0.25

// goldenAngle spreads consecutive label hues evenly around the colour wheel.
const goldenAngle = 137.50776405003785

// LabelColor returns the display colour of a label. The mapping is fixed, so
// a region keeps its colour across exports as long as its id is unchanged.
func LabelColor(label int) color.NRGBA {
	if label <= 0 {
		return color.NRGBA{}
	}
	h := math.Mod(float64(label-1)*goldenAngle, 360)
	r, g, b := colorful.Hsv(h, 0.85, 0.95).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// OverlayOptions controls RenderOverlay.
type OverlayOptions struct {
	// Alpha is the label colour opacity in (0, 1]; zero means DefaultAlpha.
	Alpha float64
	// Labels restricts drawing to these ids. Empty draws every label.
	Labels []int
	// Grayscale renders the photograph in gray under the colours.
	Grayscale bool
	// Clip makes every pixel outside the mask transparent. May be nil.
	Clip *raster.Mask
	// CropToClip trims the result to the bounding box of Clip.
	CropToClip bool
}

// RenderOverlay draws the labels of f over img.
//
// The label layer is blended over the photograph at opts.Alpha. The label
// field must have the photograph's dimensions.
func RenderOverlay(img image.Image, f *raster.LabelField, opts OverlayOptions) (*image.NRGBA, error) {
	b := img.Bounds()
	if f.Width != b.Dx() || f.Height != b.Dy() {
		return nil, fmt.Errorf("label field %dx%d, image %dx%d: %w",
			f.Width, f.Height, b.Dx(), b.Dy(), raster.ErrShapeMismatch)
	}
	if opts.Clip != nil && (opts.Clip.Width != f.Width || opts.Clip.Height != f.Height) {
		return nil, fmt.Errorf("clip mask %dx%d, image %dx%d: %w",
			opts.Clip.Width, opts.Clip.Height, b.Dx(), b.Dy(), raster.ErrShapeMismatch)
	}
	alpha := opts.Alpha
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultAlpha
	}

	var base *image.NRGBA
	if opts.Grayscale {
		base = imaging.Grayscale(img)
	} else {
		base = imaging.Clone(img)
	}

	var show map[int]bool
	if len(opts.Labels) > 0 {
		show = make(map[int]bool, len(opts.Labels))
		for _, l := range opts.Labels {
			show[l] = true
		}
	}

	layer := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i, l := range f.Pix {
		if l <= 0 || (show != nil && !show[l]) {
			continue
		}
		layer.SetNRGBA(i%f.Width, i/f.Width, LabelColor(l))
	}
	out := imaging.Overlay(base, layer, image.Pt(0, 0), alpha)

	if opts.Clip == nil {
		return out, nil
	}
	for i, in := range opts.Clip.Pix {
		if !in {
			out.SetNRGBA(i%f.Width, i/f.Width, color.NRGBA{})
		}
	}
	if !opts.CropToClip {
		return out, nil
	}
	rect := maskBounds(opts.Clip)
	if rect.Empty() {
		return nil, fmt.Errorf("clip mask selects no pixels")
	}
	return imaging.Crop(out, rect), nil
}

// maskBounds returns the smallest rectangle containing every set pixel.
func maskBounds(m *raster.Mask) image.Rectangle {
	r := image.Rectangle{}
	for i, in := range m.Pix {
		if !in {
			continue
		}
		p := image.Rect(i%m.Width, i/m.Width, i%m.Width+1, i/m.Width+1)
		r = r.Union(p)
	}
	return r
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

// EncodedImage is a PNG ready to be returned inline to a client.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodeBase64 encodes img as a base64 PNG, optionally downscaled so that
// neither side exceeds maxSide (0 keeps the original size).
func EncodeBase64(img image.Image, maxSide int) (*EncodedImage, error) {
	b := img.Bounds()
	if maxSide > 0 && (b.Dx() > maxSide || b.Dy() > maxSide) {
		img = imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
		b = img.Bounds()
	}

	var buf bytes.Buffer
	if err := WritePNG(&buf, img); err != nil {
		return nil, err
	}
	return &EncodedImage{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
