package pipeline

// Tuning groups every threshold and factor the pipeline depends on.
// A single struct keeps the constants out of the stage code and lets tests
// (and the optional YAML tuning file) override them deterministically.
type Tuning struct {
	// Black-box check, in linear space.
	DarkThreshold   float64 `yaml:"dark_threshold"`
	BrightThreshold float64 `yaml:"bright_threshold"`
	MinDarkRatio    float64 `yaml:"min_dark_ratio"`
	MaxBrightRatio  float64 `yaml:"max_bright_ratio"`

	// Glow segmentation.
	NoiseFloor    float64 `yaml:"noise_floor"`
	MinBlueAreaPx int     `yaml:"min_blue_area_px"`

	// Core selection: slider 0-100 maps to percentile 0-99.
	SensitivityPercentileFactor float64 `yaml:"sensitivity_percentile_factor"`

	// Component filter.
	ComponentMinAreaPx int     `yaml:"component_min_area_px"`
	StreakAspectRatio  float64 `yaml:"streak_aspect_ratio"`
	StreakMaxAreaPx    int     `yaml:"streak_max_area_px"`

	// The original analysis never routed the core mask through the component
	// filter, so the default keeps that call sequence; flipping this on
	// restricts the core to its highest-energy blob.
	RestrictToLargestComponent bool `yaml:"restrict_to_largest_component"`

	// Saturation.
	SensorSatThreshold  float64 `yaml:"sensor_sat_threshold"`
	CompressedSatLevel  uint8   `yaml:"compressed_sat_level"`
	SaturationWarnRatio float64 `yaml:"saturation_warn_ratio"`

	// Warnings.
	SmallCoreAreaPx int `yaml:"small_core_area_px"`

	// Overlay encoding.
	DebugJPEGQuality int `yaml:"debug_jpeg_quality"`
}

// DefaultTuning returns the calibrated production constants.
func DefaultTuning() Tuning {
	return Tuning{
		DarkThreshold:   0.05,
		BrightThreshold: 0.40,
		MinDarkRatio:    0.80,
		MaxBrightRatio:  0.25,

		NoiseFloor:    0.002,
		MinBlueAreaPx: 50,

		SensitivityPercentileFactor: 0.99,

		ComponentMinAreaPx: 50,
		StreakAspectRatio:  8,
		StreakMaxAreaPx:    2000,

		RestrictToLargestComponent: false,

		SensorSatThreshold:  0.98,
		CompressedSatLevel:  250,
		SaturationWarnRatio: 0.05,

		SmallCoreAreaPx: 200,

		DebugJPEGQuality: 90,
	}
}
