// Package testimg builds the synthetic verification frames used by the
// pipeline tests and the genimages command: dark enclosure shots with and
// without a glow, ambient-light failures, and wrong-color controls.
package testimg

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/tiff"
)

// UniformFrame returns a w×h frame filled with a single color.
func UniformFrame(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// BlackFrame returns an all-black frame, the ideal enclosure background.
func BlackFrame(w, h int) *image.NRGBA {
	return UniformFrame(w, h, color.NRGBA{0, 0, 0, 255})
}

// DrawDisc paints a filled circle of the given color onto img.
func DrawDisc(img *image.NRGBA, cx, cy, r int, c color.NRGBA) {
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			if x < 0 || y < 0 || x >= img.Rect.Dx() || y >= img.Rect.Dy() {
				continue
			}
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}

// GlowFrame returns a black frame with a centered glow disc. The default
// verification glow is a saturated blue (RGB 0,50,255) 100 px disc on a
// 500×500 canvas.
func GlowFrame(w, h, r int, c color.NRGBA) *image.NRGBA {
	img := BlackFrame(w, h)
	DrawDisc(img, w/2, h/2, r, c)
	return img
}

// EncodePNG returns the frame as PNG bytes (lossless, so tests can assert
// exact pixel behavior through the decode path).
func EncodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// EncodeJPEG returns the frame as JPEG bytes.
func EncodeJPEG(img image.Image, quality int) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// EncodeTIFF16 returns the frame as a 16-bit TIFF, standing in for a
// sensor-RAW container on the raw decode path.
func EncodeTIFF16(img *image.NRGBA) []byte {
	b := img.Bounds()
	deep := image.NewNRGBA64(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			deep.SetNRGBA64(x, y, color.NRGBA64{
				R: uint16(c.R) * 257,
				G: uint16(c.G) * 257,
				B: uint16(c.B) * 257,
				A: 65535,
			})
		}
	}
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, deep, nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
