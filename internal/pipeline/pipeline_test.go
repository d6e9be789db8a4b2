package pipeline

import (
	"encoding/json"
	"image/color"
	"strings"
	"testing"

	"go-luminol-analyzer/internal/testimg"
)

var glowBlue = color.NRGBA{0, 50, 255, 255}

func glowPNG() []byte {
	return testimg.EncodePNG(testimg.GlowFrame(500, 500, 100, glowBlue))
}

func TestAnalyzeGlowFrameSucceeds(t *testing.T) {
	a := newTestAnalyzer()
	res, err := a.Analyze(glowPNG(), 10, 800, 50, ModeJPEG)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusSuccess {
		t.Fatalf("status = %s (%s: %s)", res.Status, res.ErrorType, res.Message)
	}
	if !res.IsBlackBox {
		t.Error("dark enclosure frame must pass the black-box check")
	}
	if !res.BlueDetected {
		t.Error("100 px glow disc must register as detected blue")
	}
	if res.Metrics == nil || res.Metrics.CoreAreaPx == 0 {
		t.Fatal("success result must carry non-empty core metrics")
	}
	if res.Metrics.MeanNorm == nil {
		t.Error("valid exposure must produce normalized metrics")
	}
	if res.DebugImage == nil || !strings.HasPrefix(*res.DebugImage, "data:image/jpeg;base64,") {
		t.Error("missing or malformed debug image")
	}
	if res.OverlayPNGBase64 == nil || !strings.HasPrefix(*res.OverlayPNGBase64, "data:image/png;base64,") {
		t.Error("missing or malformed overlay")
	}
	if res.CaptureMode != string(ModeJPEG) {
		t.Errorf("capture mode = %s", res.CaptureMode)
	}
}

func TestAnalyzeSaturatedGlowWarns(t *testing.T) {
	a := newTestAnalyzer()
	res, err := a.Analyze(glowPNG(), 10, 800, 50, ModeJPEG)
	if err != nil {
		t.Fatal(err)
	}
	// Blue channel at byte 255 linearizes to 1.0, above the 8-bit clipping
	// proxy, so the whole disc is saturated.
	if !res.Metrics.SaturationWarning {
		t.Fatal("fully clipped glow must raise the saturation warning")
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "Saturation detected") {
			found = true
		}
	}
	if !found {
		t.Errorf("saturation warning text missing from %v", res.Warnings)
	}
}

func TestAnalyzeDimGlowNoSaturation(t *testing.T) {
	a := newTestAnalyzer()
	frame := testimg.GlowFrame(500, 500, 100, color.NRGBA{0, 20, 140, 255})
	res, err := a.Analyze(testimg.EncodePNG(frame), 10, 800, 50, ModeJPEG)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusSuccess {
		t.Fatalf("status = %s (%s)", res.Status, res.Message)
	}
	if res.Metrics.SaturationWarning {
		t.Error("dim glow must not be flagged as saturated")
	}
	if !res.BlueDetected {
		t.Error("dim glow must still be detected")
	}
}

func TestAnalyzeAllBlackFrame(t *testing.T) {
	a := newTestAnalyzer()
	res, err := a.Analyze(testimg.EncodePNG(testimg.BlackFrame(400, 400)), 10, 800, 50, ModeJPEG)
	if err != nil {
		t.Fatal(err)
	}
	// An empty enclosure is a valid capture of a finished reaction: success
	// with nothing detected and zero-valued metrics.
	if res.Status != StatusSuccess {
		t.Fatalf("status = %s (%s)", res.Status, res.Message)
	}
	if !res.IsBlackBox {
		t.Error("black frame must pass the black-box check")
	}
	if res.BlueDetected {
		t.Error("black frame must not detect blue")
	}
	if res.Metrics.CoreAreaPx != 0 || res.Metrics.MeanLinearCore != 0 {
		t.Errorf("metrics not zero: %+v", res.Metrics)
	}
}

func TestAnalyzeMidGrayRejected(t *testing.T) {
	a := newTestAnalyzer()
	frame := testimg.UniformFrame(200, 200, color.NRGBA{100, 100, 100, 255})
	res, err := a.Analyze(testimg.EncodePNG(frame), 10, 800, 50, ModeJPEG)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusError || res.ErrorType != ErrorBlackboxNotDetected {
		t.Fatalf("expected BLACKBOX_NOT_DETECTED, got %s/%s", res.Status, res.ErrorType)
	}
	if res.Metrics != nil {
		t.Error("error result must not carry metrics")
	}
	if _, ok := res.DebugInfo["percent_near_black"]; !ok {
		t.Error("black-box rejection must expose its ratios in debug info")
	}
}

func TestAnalyzeRedGlowNotBlue(t *testing.T) {
	a := newTestAnalyzer()
	frame := testimg.GlowFrame(500, 500, 100, color.NRGBA{255, 50, 0, 255})
	res, err := a.Analyze(testimg.EncodePNG(frame), 10, 800, 50, ModeJPEG)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusSuccess {
		t.Fatalf("status = %s (%s)", res.Status, res.Message)
	}
	if res.BlueDetected {
		t.Error("red glow must not register as blue")
	}
	if res.Metrics.CoreAreaPx != 0 {
		t.Errorf("core area = %d, want 0 for a red glow", res.Metrics.CoreAreaPx)
	}
}

func TestAnalyzeModeMismatch(t *testing.T) {
	a := newTestAnalyzer()
	res, err := a.Analyze(glowPNG(), 10, 800, 50, ModeRaw)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusError || res.ErrorType != ErrorModeMismatch {
		t.Fatalf("expected MODE_MISMATCH, got %s/%s", res.Status, res.ErrorType)
	}
	if res.CaptureMode != string(ModeRaw) {
		t.Errorf("capture mode = %s, want declared mode", res.CaptureMode)
	}
}

func TestAnalyzeSensorPath(t *testing.T) {
	a := newTestAnalyzer()
	frame := testimg.GlowFrame(300, 300, 60, glowBlue)
	res, err := a.Analyze(testimg.EncodeTIFF16(frame), 10, 800, 50, ModeRaw)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusSuccess {
		t.Fatalf("status = %s (%s: %s)", res.Status, res.ErrorType, res.Message)
	}
	if !res.BlueDetected {
		t.Error("sensor glow must be detected")
	}
	for _, w := range res.Warnings {
		if strings.Contains(w, "JPEG mode") {
			t.Error("sensor path must not carry the JPEG comparability warning")
		}
	}
}

func TestAnalyzeJPEGWarningAlwaysOnCompressedPath(t *testing.T) {
	a := newTestAnalyzer()
	res, err := a.Analyze(glowPNG(), 10, 800, 50, ModeJPEG)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "JPEG mode") {
			found = true
		}
	}
	if !found {
		t.Errorf("compressed path missing comparability warning: %v", res.Warnings)
	}
}

func TestAnalyzeSmallCoreWarning(t *testing.T) {
	a := newTestAnalyzer()
	frame := testimg.GlowFrame(400, 400, 6, glowBlue) // ~113 px disc
	res, err := a.Analyze(testimg.EncodePNG(frame), 10, 800, 0, ModeJPEG)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusSuccess {
		t.Fatalf("status = %s (%s)", res.Status, res.Message)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "Core area very small") {
			found = true
		}
	}
	if !found {
		t.Errorf("small core missing its warning: %v", res.Warnings)
	}
}

func TestAnalyzeMissingExposureOmitsNormalization(t *testing.T) {
	a := newTestAnalyzer()
	res, err := a.Analyze(glowPNG(), 0, 0, 50, ModeJPEG)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusSuccess {
		t.Fatalf("status = %s", res.Status)
	}
	m := res.Metrics
	if m.MeanNorm != nil || m.IntegratedNorm != nil || m.MaxNorm != nil || m.NormalizedIntensity != nil {
		t.Error("normalized metrics must be absent without exposure data")
	}
	if m.MeanLinearCore <= 0 {
		t.Error("raw metrics must still be computed")
	}
}

func TestAnalyzeSensitivityShrinksCore(t *testing.T) {
	a := newTestAnalyzer()
	// A soft JPEG glow gives the percentile cutoff a brightness gradient.
	frame := testimg.GlowFrame(500, 500, 100, glowBlue)
	data := testimg.EncodeJPEG(frame, 85)

	low, err := a.Analyze(data, 10, 800, 10, ModeJPEG)
	if err != nil {
		t.Fatal(err)
	}
	high, err := a.Analyze(data, 10, 800, 95, ModeJPEG)
	if err != nil {
		t.Fatal(err)
	}
	if low.Status != StatusSuccess || high.Status != StatusSuccess {
		t.Fatalf("status low=%s high=%s", low.Status, high.Status)
	}
	if high.Metrics.CoreAreaPx > low.Metrics.CoreAreaPx {
		t.Errorf("higher sensitivity grew the core: %d > %d",
			high.Metrics.CoreAreaPx, low.Metrics.CoreAreaPx)
	}
	if high.Metrics.CoreAreaPx == 0 {
		t.Error("high sensitivity must keep at least the brightest pixels")
	}
}

func TestAnalyzeComponentRestriction(t *testing.T) {
	tuning := DefaultTuning()
	tuning.RestrictToLargestComponent = true
	a := NewAnalyzer(tuning)

	// Main glow plus a distant small reflection blob.
	frame := testimg.GlowFrame(500, 500, 80, glowBlue)
	testimg.DrawDisc(frame, 450, 50, 10, glowBlue)
	res, err := a.Analyze(testimg.EncodePNG(frame), 10, 800, 0, ModeJPEG)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusSuccess {
		t.Fatalf("status = %s (%s)", res.Status, res.Message)
	}
	if res.Metrics.CoreAreaPx >= res.Metrics.BlueMaskAreaPx {
		t.Errorf("component filter kept the reflection: core=%d blue=%d",
			res.Metrics.CoreAreaPx, res.Metrics.BlueMaskAreaPx)
	}
}

func TestAnalyzeResultJSONShape(t *testing.T) {
	a := newTestAnalyzer()
	res, err := a.Analyze(glowPNG(), 10, 800, 50, ModeJPEG)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"status", "metrics", "warnings", "debug_info", "debug_image", "overlay_png_base64"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("key %q missing from wire format", key)
		}
	}
	metrics := decoded["metrics"].(map[string]any)
	for _, key := range []string{
		"mean_linear_core", "integrated_linear_core", "core_area_px",
		"max_linear_core", "p99_5_linear_core", "mean_norm",
		"saturation_ratio", "saturation_warning",
		"mean_blue_linear_core", "p95_blue_linear_core", "normalized_intensity",
		"blue_mask_area_px", "max_blue_raw",
	} {
		if _, ok := metrics[key]; !ok {
			t.Errorf("metrics key %q missing", key)
		}
	}
}

func TestAnalyzeErrorJSONShape(t *testing.T) {
	a := newTestAnalyzer()
	res, err := a.Analyze(glowPNG(), 10, 800, 50, ModeRaw)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	// Empty metrics serialize as {}, warnings as [], never null.
	if m, ok := decoded["metrics"].(map[string]any); !ok || len(m) != 0 {
		t.Errorf("error metrics = %v, want {}", decoded["metrics"])
	}
	if w, ok := decoded["warnings"].([]any); !ok || len(w) != 0 {
		t.Errorf("error warnings = %v, want []", decoded["warnings"])
	}
	if decoded["error_type"] != ErrorModeMismatch {
		t.Errorf("error_type = %v", decoded["error_type"])
	}
}

func TestPreviewMatchesAnalyze(t *testing.T) {
	a := newTestAnalyzer()
	data := glowPNG()

	full, err := a.Analyze(data, 10, 800, 70, ModeJPEG)
	if err != nil {
		t.Fatal(err)
	}
	preview, err := a.Preview(data, 10, 800, 70, ModeJPEG)
	if err != nil {
		t.Fatal(err)
	}
	if preview.Metrics.CoreAreaPx != full.Metrics.CoreAreaPx {
		t.Errorf("preview core %d != analyze core %d",
			preview.Metrics.CoreAreaPx, full.Metrics.CoreAreaPx)
	}
	if preview.Metrics.MeanLinearCore != full.Metrics.MeanLinearCore {
		t.Error("preview statistics diverge from analyze")
	}
}

func TestAnalyzeSensitivityClamped(t *testing.T) {
	a := newTestAnalyzer()
	data := glowPNG()

	over, err := a.Analyze(data, 10, 800, 250, ModeJPEG)
	if err != nil {
		t.Fatal(err)
	}
	max, err := a.Analyze(data, 10, 800, 100, ModeJPEG)
	if err != nil {
		t.Fatal(err)
	}
	if over.DebugInfo["sensitivity_used"] != 100.0 {
		t.Errorf("sensitivity_used = %v, want 100", over.DebugInfo["sensitivity_used"])
	}
	if over.Metrics.CoreAreaPx != max.Metrics.CoreAreaPx {
		t.Error("out-of-range sensitivity must behave like the clamp value")
	}
}
