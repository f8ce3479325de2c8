package camera

import (
	"fmt"
	"strings"
)

// Option identifies a runtime-tunable device parameter. The identifier
// space is flat and partitioned into contiguous groups so a device profile
// can declare its supported options as ranges.
type Option int

// Standard picture controls.
const (
	OptionColorBacklightCompensation Option = iota
	OptionColorBrightness
	OptionColorContrast
	OptionColorExposure
	OptionColorGain
	OptionColorGamma
	OptionColorHue
	OptionColorSaturation
	OptionColorSharpness
	OptionColorWhiteBalance

	// F200 extensions.
	OptionF200LaserPower
	OptionF200Accuracy
	OptionF200MotionRange
	OptionF200FilterOption
	OptionF200ConfidenceThreshold
	OptionF200DynamicFPS

	// R200 extensions.
	OptionR200LRAutoExposureEnabled
	OptionR200LRGain
	OptionR200LRExposure
	OptionR200EmitterEnabled
	OptionR200DepthControlPreset
	OptionR200DepthUnits
	OptionR200DepthClampMin
	OptionR200DepthClampMax
	OptionR200DisparityModeEnabled
	OptionR200DisparityMultiplier
	OptionR200DisparityShift

	// OptionCount is the exclusive upper bound of the identifier space.
	OptionCount
)

var optionNames = [OptionCount]string{
	OptionColorBacklightCompensation: "color_backlight_compensation",
	OptionColorBrightness:            "color_brightness",
	OptionColorContrast:              "color_contrast",
	OptionColorExposure:              "color_exposure",
	OptionColorGain:                  "color_gain",
	OptionColorGamma:                 "color_gamma",
	OptionColorHue:                   "color_hue",
	OptionColorSaturation:            "color_saturation",
	OptionColorSharpness:             "color_sharpness",
	OptionColorWhiteBalance:          "color_white_balance",
	OptionF200LaserPower:             "f200_laser_power",
	OptionF200Accuracy:               "f200_accuracy",
	OptionF200MotionRange:            "f200_motion_range",
	OptionF200FilterOption:           "f200_filter_option",
	OptionF200ConfidenceThreshold:    "f200_confidence_threshold",
	OptionF200DynamicFPS:             "f200_dynamic_fps",
	OptionR200LRAutoExposureEnabled:  "r200_lr_auto_exposure_enabled",
	OptionR200LRGain:                 "r200_lr_gain",
	OptionR200LRExposure:             "r200_lr_exposure",
	OptionR200EmitterEnabled:         "r200_emitter_enabled",
	OptionR200DepthControlPreset:     "r200_depth_control_preset",
	OptionR200DepthUnits:             "r200_depth_units",
	OptionR200DepthClampMin:          "r200_depth_clamp_min",
	OptionR200DepthClampMax:          "r200_depth_clamp_max",
	OptionR200DisparityModeEnabled:   "r200_disparity_mode_enabled",
	OptionR200DisparityMultiplier:    "r200_disparity_multiplier",
	OptionR200DisparityShift:         "r200_disparity_shift",
}

// IsValid reports whether o lies inside the identifier space.
func (o Option) IsValid() bool {
	return o >= 0 && o < OptionCount
}

// String returns the snake_case option name.
func (o Option) String() string {
	if !o.IsValid() {
		return fmt.Sprintf("option(%d)", int(o))
	}
	return optionNames[o]
}

// MarshalText implements encoding.TextMarshaler.
func (o Option) MarshalText() ([]byte, error) {
	if !o.IsValid() {
		return nil, fmt.Errorf("invalid option %d", int(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Option) UnmarshalText(text []byte) error {
	parsed, err := ParseOption(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ParseOption converts an option name into an Option.
func ParseOption(s string) (Option, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range optionNames {
		if n == name {
			return Option(i), nil
		}
	}
	return 0, fmt.Errorf("unknown option %q", s)
}

// AllOptions returns every option in identifier order.
func AllOptions() []Option {
	opts := make([]Option, OptionCount)
	for i := range opts {
		opts[i] = Option(i)
	}
	return opts
}

// OptionRange is an inclusive, contiguous range of option identifiers.
type OptionRange struct {
	First Option `toml:"first" json:"first" yaml:"first"`
	Last  Option `toml:"last" json:"last" yaml:"last"`
}

// Contains reports whether o lies within the range.
func (r OptionRange) Contains(o Option) bool {
	return o >= r.First && o <= r.Last
}

// OptionSpec describes how a supported option behaves on a model.
type OptionSpec struct {
	Domain  Domain
	Default float64
	// Live options are only readable and writable while the device streams.
	Live bool
}
