package pipeline

import "testing"

func uniformLinear(w, h int, r, g, b float32) *LinearImage {
	lin := NewLinearImage(w, h)
	for i := 0; i < len(lin.Pix); i += 3 {
		lin.Pix[i] = r
		lin.Pix[i+1] = g
		lin.Pix[i+2] = b
	}
	return lin
}

func TestBlackBoxAllDark(t *testing.T) {
	a := newTestAnalyzer()
	c := a.checkBlackBox(uniformLinear(50, 50, 0, 0, 0))
	if !c.IsBlackBox {
		t.Error("all-black frame must pass the black-box check")
	}
	if c.DarkRatio != 1 {
		t.Errorf("dark ratio = %f, want 1", c.DarkRatio)
	}
	if c.BrightRatio != 0 {
		t.Errorf("bright ratio = %f, want 0", c.BrightRatio)
	}
}

func TestBlackBoxMidGrayFails(t *testing.T) {
	a := newTestAnalyzer()
	// Mid gray at linear ~0.128: above the dark threshold everywhere, so the
	// dark-ratio requirement fails even though nothing is bright.
	c := a.checkBlackBox(uniformLinear(50, 50, 0.128, 0.128, 0.128))
	if c.IsBlackBox {
		t.Error("mid-gray frame must fail the black-box check")
	}
	if c.DarkRatio != 0 {
		t.Errorf("dark ratio = %f, want 0", c.DarkRatio)
	}
}

func TestBlackBoxBrightFrameFails(t *testing.T) {
	a := newTestAnalyzer()
	c := a.checkBlackBox(uniformLinear(50, 50, 0.9, 0.9, 0.9))
	if c.IsBlackBox {
		t.Error("bright frame must fail the black-box check")
	}
	if c.BrightRatio != 1 {
		t.Errorf("bright ratio = %f, want 1", c.BrightRatio)
	}
}

func TestBlackBoxGlowDoesNotBreakDarkness(t *testing.T) {
	a := newTestAnalyzer()
	// Dark frame with a bright glow covering ~12% of the pixels: dark ratio
	// stays above 0.80 and the check passes.
	lin := uniformLinear(100, 100, 0, 0, 0)
	for y := 0; y < 35; y++ {
		for x := 0; x < 35; x++ {
			lin.Set(x, y, 2, 1.0)
		}
	}
	c := a.checkBlackBox(lin)
	if !c.IsBlackBox {
		t.Errorf("glow frame rejected: dark=%f bright=%f", c.DarkRatio, c.BrightRatio)
	}
}

func TestBlackBoxTunableThresholds(t *testing.T) {
	tuning := DefaultTuning()
	tuning.MinDarkRatio = 0.0
	tuning.DarkThreshold = 0.5
	a := NewAnalyzer(tuning)

	c := a.checkBlackBox(uniformLinear(10, 10, 0.2, 0.2, 0.2))
	if !c.IsBlackBox {
		t.Error("relaxed tuning must accept the frame")
	}
}
