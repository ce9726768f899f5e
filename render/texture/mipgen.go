package texture

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// SynthesizeMip bilinearly downsamples an RGBA8 mip level to half its
// width/height (each at least 1), for fabricating a missing mip of a
// procedurally-generated texture. Nothing in the staging package calls it.
func SynthesizeMip(src []byte, width, height int) (dst []byte, dstWidth, dstHeight int) {
	dstWidth = max1(width / 2)
	dstHeight = max1(height / 2)

	srcImg := &image.RGBA{Pix: src, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}
	dstImg := image.NewRGBA(image.Rect(0, 0, dstWidth, dstHeight))
	draw.BiLinear.Scale(dstImg, dstImg.Bounds(), srcImg, srcImg.Bounds(), draw.Over, nil)
	return dstImg.Pix, dstWidth, dstHeight
}

func max1(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// ErrorTexturePixels returns the 1x1 magenta RGBA8 texel bound on
// texture_dropped.
func ErrorTexturePixels() []byte {
	c := color.RGBA{R: 255, G: 0, B: 255, A: 255}
	return []byte{c.R, c.G, c.B, c.A}
}
