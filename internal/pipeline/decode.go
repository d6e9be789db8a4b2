package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg" // compressed-path container
	_ "image/png"  // compressed-path container

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/tiff"
)

// CaptureMode is the capture mode declared by the client.
type CaptureMode string

const (
	ModeJPEG CaptureMode = "jpeg"
	ModeRaw  CaptureMode = "raw"
)

// DecodePath tags which decode branch produced a capture. Saturation
// thresholds differ by path, so the tag travels with the raster instead of
// being re-derived downstream.
type DecodePath int

const (
	PathCompressed DecodePath = iota
	PathSensor
)

func (p DecodePath) String() string {
	if p == PathSensor {
		return "sensor"
	}
	return "compressed"
}

// DecodedCapture is the decoder output: the linear raster plus the
// path-specific context the metrics stage needs.
type DecodedCapture struct {
	Linear       *LinearImage
	Display      *image.NRGBA // 8-bit display-space raster; compressed path only
	Path         DecodePath
	BitDepth     int
	SatThreshold float32
}

// Container signatures. DNG files use a TIFF container, so the TIFF magic
// numbers double as the sensor-RAW signature.
var (
	sigTIFFLittleEndian = []byte{0x49, 0x49, 0x2a, 0x00}
	sigTIFFBigEndian    = []byte{0x4d, 0x4d, 0x00, 0x2a}
	sigJPEGSOI          = []byte{0xff, 0xd8, 0xff}
	sigPNG              = []byte{0x89, 0x50, 0x4e, 0x47}
)

func isSensorContainer(data []byte) bool {
	return len(data) >= 4 &&
		(bytes.Equal(data[:4], sigTIFFLittleEndian) || bytes.Equal(data[:4], sigTIFFBigEndian))
}

func isCompressedContainer(data []byte) bool {
	if len(data) >= 3 && bytes.Equal(data[:3], sigJPEGSOI) {
		return true
	}
	return len(data) >= 4 && bytes.Equal(data[:4], sigPNG)
}

// srgbLUT maps 8-bit sRGB code values to linear light. Built once per
// analyzer from go-colorful's transfer function (IEC 61966-2-1).
type srgbLUT [256]float32

func newSRGBLUT() *srgbLUT {
	var lut srgbLUT
	for v := 0; v < 256; v++ {
		s := float64(v) / 255.0
		r, _, _ := colorful.Color{R: s, G: s, B: s}.LinearRgb()
		lut[v] = float32(r)
	}
	return &lut
}

// decode turns raw upload bytes into a DecodedCapture, enforcing the
// declared-vs-detected container check before any decode attempt so a mode
// mix-up produces an actionable message instead of a parser error.
//
// The returned Rejection covers the recoverable kinds (MODE_MISMATCH,
// RAW_DECODE_FAIL); a non-nil error is the fatal compressed-path decode
// failure, which the transport layer surfaces as a server error.
func (a *Analyzer) decode(data []byte, mode CaptureMode) (*DecodedCapture, *Rejection, error) {
	sensorData := isSensorContainer(data)
	compressedData := isCompressedContainer(data)

	if mode == ModeRaw {
		if compressedData && !sensorData {
			return nil, &Rejection{
				Kind: ErrorModeMismatch,
				Message: "JPEG/PNG file uploaded but RAW mode is selected. " +
					"Switch to JPEG mode or upload a DNG/RAW file.",
			}, nil
		}
		return a.decodeSensor(data)
	}

	if sensorData && !compressedData {
		return nil, &Rejection{
			Kind: ErrorModeMismatch,
			Message: "RAW/DNG file uploaded but JPEG mode is selected. " +
				"Switch to RAW mode or upload a JPEG file.",
		}, nil
	}
	return a.decodeCompressed(data)
}

// decodeSensor decodes the TIFF/DNG container at 16-bit precision. Samples
// are taken as linear light (gamma disabled). Any parse failure is the
// recoverable RAW_DECODE_FAIL kind.
func (a *Analyzer) decodeSensor(data []byte) (*DecodedCapture, *Rejection, error) {
	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &Rejection{
			Kind:    ErrorRawDecodeFail,
			Message: "Failed to decode RAW/DNG file.",
		}, nil
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	lin := NewLinearImage(w, h)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			lin.Pix[i] = float32(r) / 65535.0
			lin.Pix[i+1] = float32(g) / 65535.0
			lin.Pix[i+2] = float32(b) / 65535.0
			i += 3
		}
	}

	return &DecodedCapture{
		Linear:       lin,
		Path:         PathSensor,
		BitDepth:     16,
		SatThreshold: float32(a.tuning.SensorSatThreshold),
	}, nil, nil
}

// decodeCompressed decodes an 8-bit display-space image and linearizes it.
// The 8-bit raster is retained for legacy byte-domain metrics and the debug
// overlay background.
func (a *Analyzer) decodeCompressed(data []byte) (*DecodedCapture, *Rejection, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("could not decode image: %w", err)
	}

	bounds := img.Bounds()
	display := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(display, display.Bounds(), img, bounds.Min, draw.Src)

	return &DecodedCapture{
		Linear:       a.linearize(display),
		Display:      display,
		Path:         PathCompressed,
		BitDepth:     8,
		SatThreshold: a.lut[a.tuning.CompressedSatLevel],
	}, nil, nil
}

// linearize applies the sRGB→linear transfer function to an 8-bit raster
// through the precomputed LUT.
func (a *Analyzer) linearize(display *image.NRGBA) *LinearImage {
	w, h := display.Rect.Dx(), display.Rect.Dy()
	lin := NewLinearImage(w, h)
	for y := 0; y < h; y++ {
		row := display.Pix[y*display.Stride : y*display.Stride+w*4]
		for x := 0; x < w; x++ {
			di := x * 4
			li := (y*w + x) * 3
			lin.Pix[li] = a.lut[row[di]]
			lin.Pix[li+1] = a.lut[row[di+1]]
			lin.Pix[li+2] = a.lut[row[di+2]]
		}
	}
	return lin
}
