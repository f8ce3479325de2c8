package camera

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// StreamKind identifies a logical sensor channel of a device.
type StreamKind string

// Stream kinds. The last three are derived streams: they carry calibration
// but expose no native modes.
const (
	StreamDepth               StreamKind = "depth"
	StreamColor               StreamKind = "color"
	StreamInfrared            StreamKind = "infrared"
	StreamInfrared2           StreamKind = "infrared2"
	StreamRectifiedColor      StreamKind = "rectified_color"
	StreamColorAlignedToDepth StreamKind = "color_aligned_to_depth"
	StreamDepthAlignedToColor StreamKind = "depth_aligned_to_color"
)

// AllStreams lists every stream kind in canonical order.
var AllStreams = []StreamKind{
	StreamDepth,
	StreamColor,
	StreamInfrared,
	StreamInfrared2,
	StreamRectifiedColor,
	StreamColorAlignedToDepth,
	StreamDepthAlignedToColor,
}

// IsValid reports whether k is a known stream kind.
func (k StreamKind) IsValid() bool {
	for _, s := range AllStreams {
		if s == k {
			return true
		}
	}
	return false
}

// ParseStreamKind converts a name such as "infrared2" into a StreamKind.
func ParseStreamKind(s string) (StreamKind, error) {
	k := StreamKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("unknown stream kind %q", s)
	}
	return k, nil
}

// Format is the pixel format a stream emits.
type Format string

// Pixel formats.
const (
	FormatAny         Format = "any"
	FormatZ16         Format = "z16"
	FormatDisparity16 Format = "disparity16"
	FormatYUYV        Format = "yuyv"
	FormatRGB8        Format = "rgb8"
	FormatBGR8        Format = "bgr8"
	FormatRGBA8       Format = "rgba8"
	FormatBGRA8       Format = "bgra8"
	FormatY8          Format = "y8"
	FormatY16         Format = "y16"
	FormatRaw10       Format = "raw10"
)

var allFormats = []Format{
	FormatAny, FormatZ16, FormatDisparity16, FormatYUYV, FormatRGB8, FormatBGR8,
	FormatRGBA8, FormatBGRA8, FormatY8, FormatY16, FormatRaw10,
}

// ParseFormat converts a format name into a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range allFormats {
		if known == f {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown pixel format %q", s)
}

// StreamMode is a concrete resolution, pixel format and frame rate a stream
// can be configured to emit.
type StreamMode struct {
	Width     int    `json:"width" toml:"width" yaml:"width"`
	Height    int    `json:"height" toml:"height" yaml:"height"`
	Format    Format `json:"format" toml:"format" yaml:"format"`
	Framerate int    `json:"framerate" toml:"framerate" yaml:"framerate"`
}

// String renders the mode as WIDTHxHEIGHT/FORMAT@FPS.
func (m StreamMode) String() string {
	return fmt.Sprintf("%dx%d/%s@%d", m.Width, m.Height, m.Format, m.Framerate)
}

// ParseStreamMode parses the WIDTHxHEIGHT/FORMAT@FPS notation, e.g. "480x360/z16@60".
func ParseStreamMode(s string) (StreamMode, error) {
	var mode StreamMode

	res, rest, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return mode, fmt.Errorf("invalid stream mode %q: missing format", s)
	}
	format, fps, ok := strings.Cut(rest, "@")
	if !ok {
		return mode, fmt.Errorf("invalid stream mode %q: missing framerate", s)
	}
	w, h, ok := strings.Cut(strings.ToLower(res), "x")
	if !ok {
		return mode, fmt.Errorf("invalid stream mode %q: resolution must be WIDTHxHEIGHT", s)
	}

	var err error
	if mode.Width, err = strconv.Atoi(w); err != nil || mode.Width <= 0 {
		return mode, fmt.Errorf("invalid stream mode %q: bad width", s)
	}
	if mode.Height, err = strconv.Atoi(h); err != nil || mode.Height <= 0 {
		return mode, fmt.Errorf("invalid stream mode %q: bad height", s)
	}
	if mode.Framerate, err = strconv.Atoi(fps); err != nil || mode.Framerate <= 0 {
		return mode, fmt.Errorf("invalid stream mode %q: bad framerate", s)
	}
	if mode.Format, err = ParseFormat(format); err != nil {
		return mode, fmt.Errorf("invalid stream mode %q: %w", s, err)
	}
	return mode, nil
}

// Preset names a mode chosen by the device profile rather than by the caller.
type Preset string

// Presets.
const (
	PresetBestQuality      Preset = "best_quality"
	PresetLargestImage     Preset = "largest_image"
	PresetHighestFramerate Preset = "highest_framerate"
)

// ParsePreset converts a preset name into a Preset.
func ParsePreset(s string) (Preset, error) {
	switch p := Preset(strings.ToLower(strings.TrimSpace(s))); p {
	case PresetBestQuality, PresetLargestImage, PresetHighestFramerate:
		return p, nil
	default:
		return "", fmt.Errorf("unknown preset %q", s)
	}
}

// State is the lifecycle state of a device.
type State string

// Lifecycle states.
const (
	StateIdle       State = "idle"
	StateConfigured State = "configured"
	StateStreaming  State = "streaming"
)

// DistortionModel tags the lens distortion model of a stream.
type DistortionModel string

// Distortion models.
const (
	DistortionNone                 DistortionModel = "none"
	DistortionModifiedBrownConrady DistortionModel = "modified_brown_conrady"
	DistortionInverseBrownConrady  DistortionModel = "inverse_brown_conrady"
)

// Intrinsics are the projection parameters of a stream in its committed mode.
type Intrinsics struct {
	Width  int             `json:"width" yaml:"width" toml:"width"`
	Height int             `json:"height" yaml:"height" toml:"height"`
	PPX    float32         `json:"ppx" yaml:"ppx" toml:"ppx"`
	PPY    float32         `json:"ppy" yaml:"ppy" toml:"ppy"`
	FX     float32         `json:"fx" yaml:"fx" toml:"fx"`
	FY     float32         `json:"fy" yaml:"fy" toml:"fy"`
	Model  DistortionModel `json:"model" yaml:"model" toml:"model"`
	Coeffs [5]float32      `json:"coeffs" yaml:"coeffs" toml:"coeffs"`
}

// Lens is a resolution-independent lens model. Focal lengths and principal
// point are expressed as fractions of the image width and height, so a
// single Lens yields Intrinsics for every mode of a stream.
type Lens struct {
	FX     float64         `toml:"fx" json:"fx" yaml:"fx"`
	FY     float64         `toml:"fy" json:"fy" yaml:"fy"`
	PPX    float64         `toml:"ppx" json:"ppx" yaml:"ppx"`
	PPY    float64         `toml:"ppy" json:"ppy" yaml:"ppy"`
	Model  DistortionModel `toml:"model" json:"model" yaml:"model"`
	Coeffs [5]float64      `toml:"coeffs" json:"coeffs" yaml:"coeffs"`
}

// Project scales the lens to the given mode.
func (l Lens) Project(mode StreamMode) Intrinsics {
	in := Intrinsics{
		Width:  mode.Width,
		Height: mode.Height,
		PPX:    float32(l.PPX * float64(mode.Width)),
		PPY:    float32(l.PPY * float64(mode.Height)),
		FX:     float32(l.FX * float64(mode.Width)),
		FY:     float32(l.FY * float64(mode.Height)),
		Model:  l.Model,
	}
	if in.Model == "" {
		in.Model = DistortionNone
	}
	for i, c := range l.Coeffs {
		in.Coeffs[i] = float32(c)
	}
	return in
}

// Extrinsics is the rigid transform from one stream's frame to another's.
// Rotation is a column-major 3x3 matrix, translation is in meters.
type Extrinsics struct {
	Rotation    [9]float32 `json:"rotation" yaml:"rotation" toml:"rotation"`
	Translation [3]float32 `json:"translation" yaml:"translation" toml:"translation"`
}

// IdentityExtrinsics returns the transform with identity rotation and zero translation.
func IdentityExtrinsics() Extrinsics {
	return Extrinsics{Rotation: [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// HasIdentityRotation reports whether the rotation is exactly the identity.
func (e Extrinsics) HasIdentityRotation() bool {
	return e.Rotation == IdentityExtrinsics().Rotation
}

// IsIdentity reports identity rotation and zero translation.
func (e Extrinsics) IsIdentity() bool {
	return e.HasIdentityRotation() && e.Translation == [3]float32{}
}

// Inverse returns the transform in the opposite direction: R' = Rᵀ, t' = -Rᵀt.
func (e Extrinsics) Inverse() Extrinsics {
	var inv Extrinsics
	r := e.Rotation
	// column-major: element (row i, col j) lives at r[j*3+i]
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			inv.Rotation[j*3+i] = r[i*3+j]
		}
	}
	for i := 0; i < 3; i++ {
		var sum float32
		for j := 0; j < 3; j++ {
			sum += inv.Rotation[j*3+i] * e.Translation[j]
		}
		inv.Translation[i] = negZero(-sum)
	}
	return inv
}

// negZero folds -0 into +0 so inverted zero translations compare equal to zero.
func negZero(v float32) float32 {
	if v == 0 {
		return 0
	}
	return v
}

// StreamPair is an ordered (from, to) pair of streams.
type StreamPair struct {
	From StreamKind
	To   StreamKind
}

// Domain is the validity domain of an option: either a discrete set of
// values or a [Min, Max] range with an optional Step.
type Domain struct {
	Min    float64   `json:"min" toml:"min" yaml:"min"`
	Max    float64   `json:"max" toml:"max" yaml:"max"`
	Step   float64   `json:"step,omitempty" toml:"step" yaml:"step,omitempty"`
	Values []float64 `json:"values,omitempty" toml:"values" yaml:"values,omitempty"`
}

// IsDiscrete reports whether the domain is an explicit value set.
func (d Domain) IsDiscrete() bool {
	return len(d.Values) > 0
}

// Contains reports whether v lies inside the domain.
func (d Domain) Contains(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	if d.IsDiscrete() {
		for _, allowed := range d.Values {
			if allowed == v {
				return true
			}
		}
		return false
	}
	if v < d.Min || v > d.Max {
		return false
	}
	if d.Step > 0 {
		steps := (v - d.Min) / d.Step
		return math.Abs(steps-math.Round(steps)) < 1e-9
	}
	return true
}

// Then composes e with next: the result maps points from e's source frame
// directly into next's target frame.
func (e Extrinsics) Then(next Extrinsics) Extrinsics {
	var out Extrinsics
	a, b := e.Rotation, next.Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float32
			for k := 0; k < 3; k++ {
				sum += b[k*3+i] * a[j*3+k]
			}
			out.Rotation[j*3+i] = sum
		}
	}
	for i := 0; i < 3; i++ {
		sum := next.Translation[i]
		for k := 0; k < 3; k++ {
			sum += b[k*3+i] * e.Translation[k]
		}
		out.Translation[i] = sum
	}
	return out
}
