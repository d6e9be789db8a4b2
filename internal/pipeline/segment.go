package pipeline

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// blueMask marks every pixel whose blue channel strictly exceeds both red
// and green and sits above the noise floor. No hue heuristics and no
// component cleanup: the mask intentionally keeps every blue-dominant pixel
// in the frame, so dim samples are never rejected at this stage.
func (a *Analyzer) blueMask(lin *LinearImage) *Mask {
	m := NewMask(lin.Width, lin.Height)
	floor := float32(a.tuning.NoiseFloor)
	for i, j := 0, 0; i < len(lin.Pix); i, j = i+3, j+1 {
		r, g, b := lin.Pix[i], lin.Pix[i+1], lin.Pix[i+2]
		if b > r && b > g && b > floor {
			m.Pix[j] = maskOn
		}
	}
	return m
}

// coreMask narrows the blue mask to its brightest fraction. Sensitivity in
// [0,100] maps linearly to a percentile cutoff of the blue-channel values
// inside the mask (0 keeps everything, 100 keeps roughly the top 1%).
// Because the percentile is computed within the detected region rather than
// the whole frame, sensitivity is a precision control over an already-found
// glow, not a detection gate.
func (a *Analyzer) coreMask(lin *LinearImage, blue *Mask, sensitivity float64) *Mask {
	if sensitivity <= 0 {
		return blue.Clone()
	}

	samples := make([]float64, 0, blue.Area())
	for j, v := range blue.Pix {
		if v == maskOn {
			samples = append(samples, float64(lin.Pix[j*3+2]))
		}
	}
	if len(samples) == 0 {
		return blue.Clone()
	}

	sort.Float64s(samples)
	p := sensitivity * a.tuning.SensitivityPercentileFactor / 100.0
	cutoff := float32(stat.Quantile(p, stat.LinInterp, samples, nil))

	core := NewMask(blue.Width, blue.Height)
	for j, v := range blue.Pix {
		if v == maskOn && lin.Pix[j*3+2] >= cutoff {
			core.Pix[j] = maskOn
		}
	}
	return core
}
