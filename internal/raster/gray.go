package raster

import (
	"image"

	"github.com/anthonynsimon/bild/clone"
)

// Luminance weights applied to gamma-encoded RGB channels when converting a
// photograph to grayscale.
const (
	LumaR = 0.2125
	LumaG = 0.7154
	LumaB = 0.0721
)

// GrayFromImage converts img to a grayscale intensity image in [0, 1].
//
// The source is first normalised to RGBA so that paletted, YCbCr and 16-bit
// images all go through the same path. Alpha is ignored; premultiplied
// colors are converted as stored. The result has the image's dimensions and
// is indexed from (0,0) regardless of img.Bounds().Min.
func GrayFromImage(img image.Image) *Gray {
	rgba := clone.AsRGBA(img)
	b := rgba.Bounds()
	g := NewGray(b.Dx(), b.Dy())

	for y := 0; y < g.Height; y++ {
		src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+g.Width*4]
		dst := g.Pix[y*g.Width : (y+1)*g.Width]
		for x := range dst {
			r := float64(src[x*4]) / 255.0
			gr := float64(src[x*4+1]) / 255.0
			bl := float64(src[x*4+2]) / 255.0
			dst[x] = LumaR*r + LumaG*gr + LumaB*bl
		}
	}
	return g
}
