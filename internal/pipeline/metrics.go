package pipeline

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// computeMetrics extracts the linear-space statistics of the blue channel
// inside the core mask and applies exposure normalization.
//
// Saturation is counted on the NON-denoised raster so the denoiser cannot
// mask true sensor clipping. Every statistic over an empty core is defined
// as exactly zero.
func (a *Analyzer) computeMetrics(capture *DecodedCapture, denoised *LinearImage, core, blue *Mask, shutterSeconds, iso float64) Metrics {
	coreArea := core.Area()

	samples := make([]float64, 0, coreArea)
	satCount := 0
	maxRaw := 0.0
	for j, v := range core.Pix {
		if v != maskOn {
			continue
		}
		samples = append(samples, float64(denoised.Pix[j*3+2]))
		if capture.Linear.Pix[j*3+2] >= capture.SatThreshold {
			satCount++
		}
		if capture.Display != nil {
			x, y := j%core.Width, j/core.Width
			if b := float64(capture.Display.Pix[y*capture.Display.Stride+x*4+2]); b > maxRaw {
				maxRaw = b
			}
		}
	}

	var meanLin, integLin, maxLin, p995 float64
	if len(samples) > 0 {
		meanLin = stat.Mean(samples, nil)
		for _, s := range samples {
			integLin += s
			if s > maxLin {
				maxLin = s
			}
		}
		sort.Float64s(samples)
		p995 = stat.Quantile(0.995, stat.LinInterp, samples, nil)
	}

	satRatio := 0.0
	if coreArea > 0 {
		satRatio = float64(satCount) / float64(coreArea)
	}

	// The sensor path has no byte-domain raster; the original service
	// approximated the legacy byte max as maxLinear×255, and that proxy is
	// preserved for output compatibility.
	if capture.Display == nil || coreArea == 0 {
		maxRaw = maxLin * 255
	}

	m := Metrics{
		MeanLinearCore:       meanLin,
		IntegratedLinearCore: integLin,
		CoreAreaPx:           coreArea,
		MaxLinearCore:        maxLin,
		P995LinearCore:       p995,
		SaturationCount:      satCount,
		SaturationRatio:      satRatio,
		SaturationWarning:    satRatio > a.tuning.SaturationWarnRatio,

		MeanBlueLinearCore:       meanLin,
		P95BlueLinearCore:        p995,
		IntegratedBlueLinearCore: integLin,
		MaxBlueRaw:               maxRaw,
		MaxBlueLinear:            maxLin,
		BlueMaskAreaPx:           blue.Area(),
	}

	// Normalization by shutter × (ISO/100); defined only when both factors
	// are strictly positive, and never alters the raw statistics.
	if shutterSeconds > 0 && iso > 0 {
		denom := shutterSeconds * (iso / 100.0)
		meanNorm := meanLin / denom
		integNorm := integLin / denom
		maxNorm := maxLin / denom
		m.MeanNorm = &meanNorm
		m.IntegratedNorm = &integNorm
		m.MaxNorm = &maxNorm
		m.NormalizedIntensity = &meanNorm
	}
	return m
}
