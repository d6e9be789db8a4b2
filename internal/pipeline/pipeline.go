package pipeline

// Analyzer runs the luminol image-analysis pipeline. It is a pure function
// of its inputs plus the tuning constants: no state is retained across
// invocations, so a single Analyzer may serve concurrent requests without
// locking.
type Analyzer struct {
	tuning Tuning
	lut    *srgbLUT
}

func NewAnalyzer(tuning Tuning) *Analyzer {
	return &Analyzer{tuning: tuning, lut: newSRGBLUT()}
}

// Analyze runs the full pipeline on one capture:
// decode → denoise → black-box check → blue segmentation → core selection →
// metrics → overlays.
//
// Recoverable failures (mode mismatch, sensor decode failure, black-box not
// detected) come back as a structured result with status "error". The only
// non-nil Go error is an unparsable compressed image, which the caller
// surfaces as an internal server failure.
func (a *Analyzer) Analyze(data []byte, shutterSeconds, iso, sensitivity float64, mode CaptureMode) (*AnalysisResult, error) {
	if mode != ModeRaw {
		mode = ModeJPEG
	}
	sensitivity = clampFloat(sensitivity, 0, 100)

	capture, rej, err := a.decode(data, mode)
	if err != nil {
		return nil, err
	}
	if rej != nil {
		return errorResult(rej, mode), nil
	}

	// Denoised raster drives every photometric decision; the original
	// raster inside capture is kept for saturation counting.
	var denoised *LinearImage
	if capture.Path == PathCompressed {
		denoised = a.denoiseCompressed(capture.Display)
	} else {
		denoised = denoiseSensor(capture.Linear)
	}

	bb := a.checkBlackBox(denoised)
	bbDebug := map[string]any{
		"percent_near_black": bb.DarkRatio,
		"bright_area_ratio":  bb.BrightRatio,
		"is_black_box":       bb.IsBlackBox,
	}
	if !bb.IsBlackBox {
		return errorResult(&Rejection{
			Kind:      ErrorBlackboxNotDetected,
			Message:   "Black box not detected — surrounding conditions not ideal.",
			DebugInfo: bbDebug,
		}, mode), nil
	}

	blue := a.blueMask(denoised)
	blueArea := blue.Area()
	blueDetected := blueArea > a.tuning.MinBlueAreaPx

	core := a.coreMask(denoised, blue, sensitivity)
	if a.tuning.RestrictToLargestComponent {
		core = LargestEnergyComponent(core, blueChannel(denoised),
			a.tuning.ComponentMinAreaPx, a.tuning.StreakAspectRatio, a.tuning.StreakMaxAreaPx)
	}

	metrics := a.computeMetrics(capture, denoised, core, blue, shutterSeconds, iso)

	var warnings []string
	if metrics.SaturationWarning {
		warnings = append(warnings, "Saturation detected; max/mean may be unreliable. Reduce shutter/ISO.")
	}
	if capture.Path == PathCompressed {
		warnings = append(warnings, "JPEG mode: phone ISP (tone mapping/HDR) may skew comparability.")
	}
	if metrics.CoreAreaPx < a.tuning.SmallCoreAreaPx {
		warnings = append(warnings, "Core area very small — results may be noisy.")
	}

	debugImage, err := a.renderDebugImage(capture, core)
	if err != nil {
		return nil, err
	}
	overlay, err := a.renderOverlayPNG(core)
	if err != nil {
		return nil, err
	}

	debugInfo := bbDebug
	debugInfo["blue_area_px"] = blueArea
	debugInfo["core_area_px"] = metrics.CoreAreaPx
	debugInfo["sensitivity_used"] = sensitivity

	return &AnalysisResult{
		Status:           StatusSuccess,
		IsBlackBox:       true,
		BlueDetected:     blueDetected,
		CaptureMode:      string(mode),
		Metrics:          &metrics,
		Warnings:         warnings,
		DebugInfo:        debugInfo,
		DebugImage:       &debugImage,
		OverlayPNGBase64: &overlay,
	}, nil
}

// Preview is a semantic alias for Analyze used by interactive slider calls;
// there is no computational difference.
func (a *Analyzer) Preview(data []byte, shutterSeconds, iso, sensitivity float64, mode CaptureMode) (*AnalysisResult, error) {
	return a.Analyze(data, shutterSeconds, iso, sensitivity, mode)
}

// blueChannel extracts the blue plane as a per-pixel score raster.
func blueChannel(lin *LinearImage) []float32 {
	out := make([]float32, lin.Width*lin.Height)
	for j := range out {
		out[j] = lin.Pix[j*3+2]
	}
	return out
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
