package pipeline

// BlackBoxCheck is the environment validator verdict: was the capture taken
// inside a sufficiently dark enclosure?
type BlackBoxCheck struct {
	DarkRatio   float64
	BrightRatio float64
	IsBlackBox  bool
}

// checkBlackBox classifies the denoised linear frame by its luminance
// histogram: enough near-black pixels, and not too many bright ones.
// Luminance weights approximate Rec. 709.
func (a *Analyzer) checkBlackBox(lin *LinearImage) BlackBoxCheck {
	total := lin.Width * lin.Height
	if total == 0 {
		return BlackBoxCheck{}
	}

	dark := float32(a.tuning.DarkThreshold)
	bright := float32(a.tuning.BrightThreshold)

	nDark, nBright := 0, 0
	for i := 0; i < len(lin.Pix); i += 3 {
		lum := 0.2126*lin.Pix[i] + 0.7152*lin.Pix[i+1] + 0.0722*lin.Pix[i+2]
		if lum < dark {
			nDark++
		}
		if lum > bright {
			nBright++
		}
	}

	c := BlackBoxCheck{
		DarkRatio:   float64(nDark) / float64(total),
		BrightRatio: float64(nBright) / float64(total),
	}
	c.IsBlackBox = c.DarkRatio > a.tuning.MinDarkRatio && c.BrightRatio < a.tuning.MaxBrightRatio
	return c
}
