package pipeline

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/fogleman/gg"
)

// Overlay palette: green contour stroke on both outputs, translucent cyan
// fill on the transparent overlay.
var (
	contourStroke = color.NRGBA{0, 255, 0, 255}
	overlayStroke = color.NRGBA{0, 255, 0, 200}
	overlayFill   = color.NRGBA{0, 220, 220, 90}
)

const contourWidth = 2

// traceContours walks the external boundary of every connected component in
// the mask (Moore neighborhood tracing) and returns one closed polygon per
// component, in pixel coordinates.
func traceContours(mask *Mask) [][]image.Point {
	w, h := mask.Width, mask.Height
	seen := make([]bool, w*h)
	var contours [][]image.Point

	// Clockwise 8-neighborhood starting east.
	dirs := [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}

	on := func(x, y int) bool {
		return x >= 0 && x < w && y >= 0 && y < h && mask.Pix[y*w+x] == maskOn
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !on(x, y) || seen[y*w+x] {
				continue
			}
			// Row-major scanning reaches each component first at a pixel
			// with a background western neighbor, which is where the trace
			// starts. Flood-fill the component afterwards so later rows of
			// the same blob do not restart a trace.
			contour := traceFrom(x, y, dirs, on)
			floodVisit(mask, seen, x, y)
			contours = append(contours, contour)
		}
	}
	return contours
}

// traceFrom follows the boundary clockwise from the start pixel until it
// returns to the start with the same entry direction.
func traceFrom(sx, sy int, dirs [8][2]int, on func(x, y int) bool) []image.Point {
	contour := []image.Point{{X: sx, Y: sy}}

	// Backtrack starts west of the entry pixel (known background).
	cx, cy := sx, sy
	dir := 4 // index of the backtrack direction relative to current pixel
	startDir := -1

	limit := 0
	for {
		limit++
		if limit > 1<<20 {
			break
		}
		found := false
		// Scan clockwise from just past the backtrack direction.
		for i := 1; i <= 8; i++ {
			d := (dir + i) % 8
			nx, ny := cx+dirs[d][0], cy+dirs[d][1]
			if on(nx, ny) {
				if cx == sx && cy == sy {
					if startDir == -1 {
						startDir = d
					} else if d == startDir && len(contour) > 1 {
						return contour
					}
				}
				cx, cy = nx, ny
				// New backtrack: the previous pixel, seen from the new one.
				dir = (d + 4) % 8
				contour = append(contour, image.Point{X: cx, Y: cy})
				found = true
				break
			}
		}
		if !found {
			// Isolated pixel.
			return contour
		}
	}
	return contour
}

func floodVisit(mask *Mask, seen []bool, sx, sy int) {
	w, h := mask.Width, mask.Height
	stack := []int{sy*w + sx}
	seen[sy*w+sx] = true
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		px, py := idx%w, idx/w
		for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			nx, ny := px+d[0], py+d[1]
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			n := ny*w + nx
			if mask.Pix[n] == maskOn && !seen[n] {
				seen[n] = true
				stack = append(stack, n)
			}
		}
	}
}

func strokeContours(dc *gg.Context, contours [][]image.Point, col color.NRGBA) {
	dc.SetColor(col)
	dc.SetLineWidth(contourWidth)
	for _, contour := range contours {
		if len(contour) == 1 {
			p := contour[0]
			dc.DrawPoint(float64(p.X)+0.5, float64(p.Y)+0.5, 1)
			dc.Fill()
			continue
		}
		dc.MoveTo(float64(contour[0].X)+0.5, float64(contour[0].Y)+0.5)
		for _, p := range contour[1:] {
			dc.LineTo(float64(p.X)+0.5, float64(p.Y)+0.5)
		}
		dc.ClosePath()
		dc.Stroke()
	}
}

// renderDebugImage draws the core-mask contours over a human-viewable
// background: the display raster on the compressed path, or a clipped 8-bit
// visualization of the linear raster on the sensor path. Returns a JPEG
// data URI.
func (a *Analyzer) renderDebugImage(capture *DecodedCapture, core *Mask) (string, error) {
	var background image.Image
	if capture.Display != nil {
		background = capture.Display
	} else {
		background = clipToDisplay(capture.Linear)
	}

	dc := gg.NewContextForImage(background)
	strokeContours(dc, traceContours(core), contourStroke)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: a.tuning.DebugJPEGQuality}); err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// renderOverlayPNG builds the transparent RGBA overlay for client-side
// compositing: fully transparent outside the core mask, translucent cyan
// fill inside it, contrasting contour stroke on top. Returns a PNG data URI.
func (a *Analyzer) renderOverlayPNG(core *Mask) (string, error) {
	img := image.NewRGBA(image.Rect(0, 0, core.Width, core.Height))
	for j, v := range core.Pix {
		if v == maskOn {
			img.Set(j%core.Width, j/core.Width, overlayFill)
		}
	}

	dc := gg.NewContextForRGBA(img)
	strokeContours(dc, traceContours(core), overlayStroke)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// clipToDisplay clamps a linear raster into an 8-bit image for viewing.
// This is a visualization aid only; no tone mapping is attempted.
func clipToDisplay(lin *LinearImage) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, lin.Width, lin.Height))
	for y := 0; y < lin.Height; y++ {
		for x := 0; x < lin.Width; x++ {
			i := (y*lin.Width + x) * 3
			out.SetNRGBA(x, y, color.NRGBA{
				R: clampByte(lin.Pix[i]),
				G: clampByte(lin.Pix[i+1]),
				B: clampByte(lin.Pix[i+2]),
				A: 255,
			})
		}
	}
	return out
}

func clampByte(v float32) uint8 {
	s := v * 255
	if s <= 0 {
		return 0
	}
	if s >= 255 {
		return 255
	}
	return uint8(s)
}
