package pipeline

import "encoding/json"

// Recoverable error kinds. These come back inside a structured result with
// status "error"; nothing recoverable is ever raised across the Analyze
// boundary as a Go error.
const (
	ErrorModeMismatch        = "MODE_MISMATCH"
	ErrorRawDecodeFail       = "RAW_DECODE_FAIL"
	ErrorBlackboxNotDetected = "BLACKBOX_NOT_DETECTED"
)

// Rejection is an internal recoverable failure raised by a pipeline stage,
// carried until the result is assembled.
type Rejection struct {
	Kind      string
	Message   string
	DebugInfo map[string]any
}

// Metrics holds the per-request statistics, all computed over the core mask
// in linear space. The legacy block mirrors the key names older clients
// still read.
type Metrics struct {
	MeanLinearCore       float64 `json:"mean_linear_core"`
	IntegratedLinearCore float64 `json:"integrated_linear_core"`
	CoreAreaPx           int     `json:"core_area_px"`
	MaxLinearCore        float64 `json:"max_linear_core"`
	P995LinearCore       float64 `json:"p99_5_linear_core"`

	// Normalized variants are defined only for strictly positive shutter
	// time and ISO; nil marshals to null, never to zero.
	MeanNorm       *float64 `json:"mean_norm"`
	IntegratedNorm *float64 `json:"integrated_norm"`
	MaxNorm        *float64 `json:"max_norm"`

	SaturationCount   int     `json:"saturation_count"`
	SaturationRatio   float64 `json:"saturation_ratio"`
	SaturationWarning bool    `json:"saturation_warning"`

	// Legacy aliases kept for frontend compatibility.
	MeanBlueLinearCore       float64  `json:"mean_blue_linear_core"`
	P95BlueLinearCore        float64  `json:"p95_blue_linear_core"`
	IntegratedBlueLinearCore float64  `json:"integrated_blue_linear_core"`
	MaxBlueRaw               float64  `json:"max_blue_raw"`
	MaxBlueLinear            float64  `json:"max_blue_linear"`
	NormalizedIntensity      *float64 `json:"normalized_intensity"`
	BlueMaskAreaPx           int      `json:"blue_mask_area_px"`
}

// AnalysisResult is the terminal output of a request: either a success
// carrying metrics and debug imagery, or a structured recoverable error.
type AnalysisResult struct {
	Status       string   `json:"status"`
	ErrorType    string   `json:"error_type,omitempty"`
	Message      string   `json:"message,omitempty"`
	IsBlackBox   bool     `json:"is_black_box"`
	BlueDetected bool     `json:"blue_detected"`
	CaptureMode  string   `json:"capture_mode"`
	Metrics      *Metrics `json:"metrics"`
	Warnings     []string `json:"warnings"`

	DebugInfo map[string]any `json:"debug_info"`

	// Data URIs; nil on error results.
	DebugImage       *string `json:"debug_image"`
	OverlayPNGBase64 *string `json:"overlay_png_base64"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// MarshalJSON keeps the wire format of the original service: empty metrics
// serialize as {}, and warnings/debug_info never serialize as null.
func (r *AnalysisResult) MarshalJSON() ([]byte, error) {
	type alias AnalysisResult
	out := struct {
		*alias
		Metrics   any            `json:"metrics"`
		Warnings  []string       `json:"warnings"`
		DebugInfo map[string]any `json:"debug_info"`
	}{
		alias:     (*alias)(r),
		Metrics:   any(r.Metrics),
		Warnings:  r.Warnings,
		DebugInfo: r.DebugInfo,
	}
	if r.Metrics == nil {
		out.Metrics = struct{}{}
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	if out.DebugInfo == nil {
		out.DebugInfo = map[string]any{}
	}
	return json.Marshal(out)
}

func errorResult(rej *Rejection, mode CaptureMode) *AnalysisResult {
	debug := rej.DebugInfo
	if debug == nil {
		debug = map[string]any{}
	}
	return &AnalysisResult{
		Status:      StatusError,
		ErrorType:   rej.Kind,
		Message:     rej.Message,
		CaptureMode: string(mode),
		DebugInfo:   debug,
	}
}
