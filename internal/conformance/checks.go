package conformance

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/smazurov/depthnode/internal/camera"
)

// Expected geometry of the stereo pair.
const (
	minBaseline = -0.08
	maxBaseline = -0.06
)

var serialPattern = regexp.MustCompile(`^[0-9]{10}$`)

// Product names by model.
var modelNames = map[camera.Model]string{
	camera.ModelR200: "Intel RealSense R200",
	camera.ModelF200: "Intel RealSense F200",
}

// Option ranges each model must expose, and nothing else.
var modelPartitions = map[camera.Model][]camera.OptionRange{
	camera.ModelR200: {
		{First: camera.OptionColorBacklightCompensation, Last: camera.OptionColorWhiteBalance},
		{First: camera.OptionR200LRAutoExposureEnabled, Last: camera.OptionR200DisparityShift},
	},
	camera.ModelF200: {
		{First: camera.OptionColorBacklightCompensation, Last: camera.OptionColorWhiteBalance},
		{First: camera.OptionF200LaserPower, Last: camera.OptionF200DynamicFPS},
	},
}

// Values written during the option round trip. Options not listed here are
// probed at the edges of their domain.
var probeValues = map[camera.Option][]float64{
	camera.OptionR200LRAutoExposureEnabled: {0, 1},
	camera.OptionR200LRGain:                {100, 200, 400, 800, 1600},
	camera.OptionR200LRExposure:            {40, 80, 160},
	camera.OptionR200EmitterEnabled:        {0, 1},
	camera.OptionR200DepthControlPreset:    {0, 1, 2, 3, 4, 5},
	camera.OptionR200DepthUnits:            {0, 1, 2, 3, 4, 5},
	camera.OptionR200DepthClampMin:         {0, 500, 1000, 2000},
	camera.OptionR200DepthClampMax:         {500, 1000, 2000, 65535},
	camera.OptionR200DisparityModeEnabled:  {0, 1},
}

// A combination maps streams to either an explicit mode or, when nil, the
// best_quality preset of the stream.
type combination struct {
	name    string
	streams map[camera.StreamKind]*camera.StreamMode
}

var stereoY16 = &camera.StreamMode{Width: 492, Height: 372, Format: camera.FormatY16, Framerate: 60}

var combinations = []combination{
	{"depth", map[camera.StreamKind]*camera.StreamMode{camera.StreamDepth: nil}},
	{"depth+color", map[camera.StreamKind]*camera.StreamMode{camera.StreamDepth: nil, camera.StreamColor: nil}},
	{"depth+infrared", map[camera.StreamKind]*camera.StreamMode{camera.StreamDepth: nil, camera.StreamInfrared: nil}},
	{"infrared+infrared2", map[camera.StreamKind]*camera.StreamMode{camera.StreamInfrared: stereoY16, camera.StreamInfrared2: stereoY16}},
	{"all", map[camera.StreamKind]*camera.StreamMode{
		camera.StreamDepth:     nil,
		camera.StreamColor:     nil,
		camera.StreamInfrared:  nil,
		camera.StreamInfrared2: nil,
	}},
}

// DefaultChecks returns the full check list in execution order.
func DefaultChecks() []Check {
	return []Check{
		{Name: "device_name", Description: "Device reports its product name", Run: checkName},
		{Name: "serial_format", Description: "Serial number is ten decimal digits", Run: checkSerial},
		{Name: "option_partition", Description: "Exactly the model's option ranges are supported", Run: checkPartition},
		{Name: "option_defaults", Description: "Every supported option has a default inside its domain", Run: checkDefaults},
		{Name: "extrinsics_depth_infrared", Description: "Depth and infrared share a frame", Run: checkDepthInfrared},
		{Name: "extrinsics_depth_infrared2", Description: "Infrared2 sits on a horizontal stereo baseline", Run: checkDepthInfrared2},
		{Name: "extrinsics_depth_rectified_color", Description: "Rectified color is unrotated relative to depth", Run: checkDepthRectifiedColor},
		{Name: "depth_scale", Description: "Depth scale is one millimeter per unit", Run: checkDepthScale},
		{Name: "stereo_modes", Description: "Infrared and infrared2 expose identical modes", Run: checkStereoModes},
		{Name: "stereo_intrinsics", Description: "Infrared and infrared2 intrinsics match in every mode", Run: checkStereoIntrinsics},
		{Name: "streaming_combinations", Description: "Common stream combinations start and stop", Run: checkStreaming},
		{Name: "option_round_trip", Description: "Option writes read back after the settle interval", Run: checkOptionRoundTrip},
	}
}

// Select returns the checks whose names appear in names, in default order.
func Select(names []string) ([]Check, error) {
	if len(names) == 0 {
		return DefaultChecks(), nil
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.TrimSpace(n)] = true
	}
	var out []Check
	for _, c := range DefaultChecks() {
		if wanted[c.Name] {
			out = append(out, c)
			delete(wanted, c.Name)
		}
	}
	if len(wanted) > 0 {
		unknown := make([]string, 0, len(wanted))
		for n := range wanted {
			unknown = append(unknown, n)
		}
		return nil, fmt.Errorf("unknown checks: %s", strings.Join(unknown, ", "))
	}
	return out, nil
}

func checkName(_ context.Context, dev *camera.Device) error {
	want, ok := modelNames[dev.Model()]
	if !ok {
		return skip("no expected name for model %s", dev.Model())
	}
	if dev.Name() != want {
		return fmt.Errorf("name %q, want %q", dev.Name(), want)
	}
	return nil
}

func checkSerial(_ context.Context, dev *camera.Device) error {
	if !serialPattern.MatchString(dev.Serial()) {
		return fmt.Errorf("serial %q is not ten digits", dev.Serial())
	}
	return nil
}

func checkPartition(_ context.Context, dev *camera.Device) error {
	ranges, ok := modelPartitions[dev.Model()]
	if !ok {
		return skip("no expected partition for model %s", dev.Model())
	}
	for _, o := range camera.AllOptions() {
		want := false
		for _, r := range ranges {
			if r.Contains(o) {
				want = true
				break
			}
		}
		if got := dev.SupportsOption(o); got != want {
			return fmt.Errorf("supports_option(%s) = %v, want %v", o, got, want)
		}
	}
	return nil
}

func checkDefaults(_ context.Context, dev *camera.Device) error {
	for _, o := range dev.SupportedOptions() {
		spec, err := dev.OptionSpec(o)
		if err != nil {
			return err
		}
		if !spec.Domain.Contains(spec.Default) {
			return fmt.Errorf("%s default %v outside its domain", o, spec.Default)
		}
	}
	return nil
}

func checkDepthInfrared(_ context.Context, dev *camera.Device) error {
	if dev.StreamModeCount(camera.StreamInfrared) == 0 {
		return skip("no infrared stream")
	}
	e, err := dev.Extrinsics(camera.StreamDepth, camera.StreamInfrared)
	if err != nil {
		return err
	}
	if !e.IsIdentity() {
		return fmt.Errorf("depth->infrared is %+v, want identity", e)
	}
	return nil
}

func checkDepthInfrared2(_ context.Context, dev *camera.Device) error {
	if dev.StreamModeCount(camera.StreamInfrared2) == 0 {
		return skip("no infrared2 stream")
	}
	e, err := dev.Extrinsics(camera.StreamDepth, camera.StreamInfrared2)
	if err != nil {
		return err
	}
	if !e.HasIdentityRotation() {
		return fmt.Errorf("depth->infrared2 rotation %v, want identity", e.Rotation)
	}
	x := e.Translation[0]
	if x <= minBaseline || x >= maxBaseline {
		return fmt.Errorf("baseline %.4fm outside (%.2f, %.2f)", x, minBaseline, maxBaseline)
	}
	if e.Translation[1] != 0 || e.Translation[2] != 0 {
		return fmt.Errorf("baseline has y=%v z=%v, want 0", e.Translation[1], e.Translation[2])
	}
	return nil
}

func checkDepthRectifiedColor(_ context.Context, dev *camera.Device) error {
	e, err := dev.Extrinsics(camera.StreamDepth, camera.StreamRectifiedColor)
	if camera.KindOf(err) == camera.KindUnsupportedPair {
		return skip("no rectified color calibration")
	}
	if err != nil {
		return err
	}
	if !e.HasIdentityRotation() {
		return fmt.Errorf("depth->rectified_color rotation %v, want identity", e.Rotation)
	}
	return nil
}

func checkDepthScale(_ context.Context, dev *camera.Device) error {
	if got := dev.DepthScale(); got != camera.DefaultDepthScale {
		return fmt.Errorf("depth scale %v, want %v", got, camera.DefaultDepthScale)
	}
	return nil
}

func checkStereoModes(_ context.Context, dev *camera.Device) error {
	left := dev.StreamModes(camera.StreamInfrared)
	right := dev.StreamModes(camera.StreamInfrared2)
	if len(right) == 0 {
		return skip("no infrared2 stream")
	}
	if len(left) != len(right) {
		return fmt.Errorf("infrared has %d modes, infrared2 has %d", len(left), len(right))
	}
	for i := range left {
		if left[i] != right[i] {
			return fmt.Errorf("mode %d: infrared %s, infrared2 %s", i, left[i], right[i])
		}
	}
	return nil
}

func checkStereoIntrinsics(_ context.Context, dev *camera.Device) error {
	if dev.StreamModeCount(camera.StreamInfrared2) == 0 {
		return skip("no infrared2 stream")
	}
	for _, mode := range dev.StreamModes(camera.StreamInfrared) {
		if err := dev.EnableStream(camera.StreamInfrared, mode); err != nil {
			return err
		}
		if err := dev.EnableStream(camera.StreamInfrared2, mode); err != nil {
			return err
		}
		left, err := dev.Intrinsics(camera.StreamInfrared)
		if err != nil {
			return err
		}
		right, err := dev.Intrinsics(camera.StreamInfrared2)
		if err != nil {
			return err
		}
		if left != right {
			return fmt.Errorf("mode %s: intrinsics differ: %+v vs %+v", mode, left, right)
		}
	}
	return nil
}

func checkStreaming(ctx context.Context, dev *camera.Device) error {
	ran := 0
	for _, combo := range combinations {
		config, ok := resolve(dev, combo)
		if !ok {
			continue
		}
		if err := stream(ctx, dev, config); err != nil {
			return fmt.Errorf("%s: %w", combo.name, err)
		}
		ran++
	}
	if ran == 0 {
		return skip("no supported combination")
	}
	return nil
}

// resolve maps a combination onto the device. It reports false when any
// stream or explicit mode is unavailable.
func resolve(dev *camera.Device, combo combination) (map[camera.StreamKind]camera.StreamMode, bool) {
	config := make(map[camera.StreamKind]camera.StreamMode, len(combo.streams))
	for kind, explicit := range combo.streams {
		if explicit != nil {
			found := false
			for _, m := range dev.StreamModes(kind) {
				if m == *explicit {
					found = true
					break
				}
			}
			if !found {
				return nil, false
			}
			config[kind] = *explicit
			continue
		}
		mode, ok := dev.Presets(kind)[camera.PresetBestQuality]
		if !ok {
			return nil, false
		}
		config[kind] = mode
	}
	return config, true
}

func stream(ctx context.Context, dev *camera.Device, config map[camera.StreamKind]camera.StreamMode) error {
	for kind, mode := range config {
		if err := dev.EnableStream(kind, mode); err != nil {
			return err
		}
	}
	if err := dev.Start(ctx); err != nil {
		return err
	}
	if err := dev.WaitSettled(ctx); err != nil {
		return err
	}
	if !dev.IsStreaming() {
		return fmt.Errorf("device left streaming state")
	}
	if err := dev.Stop(ctx); err != nil {
		return err
	}
	return reset(ctx, dev)
}

func checkOptionRoundTrip(ctx context.Context, dev *camera.Device) error {
	if err := dev.EnableStreamPreset(camera.StreamDepth, camera.PresetBestQuality); err != nil {
		return skip("depth best_quality unavailable: %v", err)
	}
	if err := dev.Start(ctx); err != nil {
		return err
	}
	if err := dev.WaitSettled(ctx); err != nil {
		return err
	}

	for _, o := range dev.SupportedOptions() {
		if err := roundTrip(ctx, dev, o); err != nil {
			return err
		}
	}
	return nil
}

// roundTrip writes every test value of o and reads it back. The original
// value is written back however the round trip ends.
func roundTrip(ctx context.Context, dev *camera.Device, o camera.Option) (err error) {
	spec, err := dev.OptionSpec(o)
	if err != nil {
		return err
	}
	values, ok := probeValues[o]
	if !ok {
		values = edges(spec.Domain)
	}
	original, err := dev.GetOption(ctx, o)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := dev.SetOption(ctx, o, original); rerr != nil {
			err = errors.Join(err, fmt.Errorf("%s: restore %v: %w", o, original, rerr))
		}
	}()

	for _, v := range values {
		if !spec.Domain.Contains(v) {
			return fmt.Errorf("%s rejects probe value %v", o, v)
		}
		if err := dev.SetOption(ctx, o, v); err != nil {
			return err
		}
		got, err := dev.GetOption(ctx, o)
		if err != nil {
			return err
		}
		if got != v {
			return fmt.Errorf("%s: wrote %v, read %v", o, v, got)
		}
	}
	return nil
}

// edges returns the extreme values of a domain, or every member of a
// discrete one.
func edges(d camera.Domain) []float64 {
	if d.IsDiscrete() {
		return d.Values
	}
	var out []float64
	for _, v := range []float64{d.Min, d.Max} {
		if d.Contains(v) {
			out = append(out, v)
		}
	}
	return out
}
