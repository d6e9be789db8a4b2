package pipeline

import (
	"image"
	"math"
)

// The denoiser is deliberately mild: it has to suppress sensor noise enough
// to stabilize the percentile cutoffs without eating a faint glow.
//
// Compressed path: a 3×3 per-channel median on the 8-bit raster, then
// re-linearization. Denoising in display space before the sRGB inversion
// avoids amplifying quantization noise.
//
// Sensor path: a separable 5×5 Gaussian on the float raster; there is no
// display-space analogue to filter.

// denoiseCompressed median-filters a copy of the display raster and returns
// the linear raster re-derived from it. The input raster is not modified;
// the caller keeps it for saturation counting and the debug background.
func (a *Analyzer) denoiseCompressed(display *image.NRGBA) *LinearImage {
	w, h := display.Rect.Dx(), display.Rect.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	copy(out.Pix, display.Pix[:len(out.Pix)])

	var win [9]uint8
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			for c := 0; c < 3; c++ {
				k := 0
				for dy := -1; dy <= 1; dy++ {
					base := (y+dy)*display.Stride + (x-1)*4 + c
					win[k] = display.Pix[base]
					win[k+1] = display.Pix[base+4]
					win[k+2] = display.Pix[base+8]
					k += 3
				}
				out.Pix[y*out.Stride+x*4+c] = median9(win)
			}
		}
	}
	return a.linearize(out)
}

// median9 selects the 5th-smallest of 9 values with an insertion sort; the
// window is tiny enough that this beats any cleverer selection.
func median9(v [9]uint8) uint8 {
	for i := 1; i < 9; i++ {
		x := v[i]
		j := i - 1
		for j >= 0 && v[j] > x {
			v[j+1] = v[j]
			j--
		}
		v[j+1] = x
	}
	return v[4]
}

// gaussian5 holds the normalized taps of a 5-wide Gaussian with σ=0.8.
var gaussian5 = computeGaussian5(0.8)

func computeGaussian5(sigma float64) [5]float32 {
	var w [5]float32
	sum := float32(0)
	for i := -2; i <= 2; i++ {
		x := float64(i)
		v := float32(math.Exp(-x * x / (2 * sigma * sigma)))
		w[i+2] = v
		sum += v
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

// denoiseSensor applies the separable Gaussian to each channel, replicating
// edges. The input raster is left untouched.
func denoiseSensor(lin *LinearImage) *LinearImage {
	w, h := lin.Width, lin.Height
	tmp := NewLinearImage(w, h)
	out := NewLinearImage(w, h)

	// Horizontal pass.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				var acc float32
				for t := -2; t <= 2; t++ {
					sx := clampInt(x+t, 0, w-1)
					acc += gaussian5[t+2] * lin.At(sx, y, c)
				}
				tmp.Set(x, y, c, acc)
			}
		}
	}
	// Vertical pass.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				var acc float32
				for t := -2; t <= 2; t++ {
					sy := clampInt(y+t, 0, h-1)
					acc += gaussian5[t+2] * tmp.At(x, sy, c)
				}
				out.Set(x, y, c, acc)
			}
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
