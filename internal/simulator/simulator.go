// Package simulator implements camera.Transport in-process. Devices are
// described by catalog rows plus a per-unit stereo baseline, which makes it
// possible to run the engine, the API and the conformance checks without
// hardware.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/smazurov/depthnode/internal/camera"
	"github.com/smazurov/depthnode/internal/catalog"
	"github.com/smazurov/depthnode/internal/logging"
)

// Operation names accepted by FailNext.
const (
	OpEnumerate       = "enumerate"
	OpReadCalibration = "read_calibration"
	OpStart           = "start"
	OpStop            = "stop"
	OpGetOption       = "get_option"
	OpSetOption       = "set_option"
)

var (
	// ErrUnknownDevice is returned for serials the simulator does not know.
	ErrUnknownDevice = errors.New("unknown device")
	// ErrUnplugged is returned for devices that have been unplugged.
	ErrUnplugged = errors.New("device unplugged")
	// ErrBusy is returned when starting a device that is already streaming.
	ErrBusy = errors.New("device busy")
	// ErrNotStreaming is returned when stopping an idle device.
	ErrNotStreaming = errors.New("device not streaming")
)

// DeviceSpec describes one simulated unit.
type DeviceSpec struct {
	Model  camera.Model
	Serial string
	// BaselineMM overrides the stereo baseline of the unit. Zero keeps the
	// nominal calibration.
	BaselineMM float64
}

// String renders the spec in MODEL:SERIAL[:BASELINE_MM] notation.
func (s DeviceSpec) String() string {
	if s.BaselineMM != 0 {
		return fmt.Sprintf("%s:%s:%s", s.Model, s.Serial, strconv.FormatFloat(s.BaselineMM, 'f', -1, 64))
	}
	return fmt.Sprintf("%s:%s", s.Model, s.Serial)
}

// ParseDeviceSpec parses MODEL:SERIAL[:BASELINE_MM], e.g. "r200:2391004154:70".
func ParseDeviceSpec(s string) (DeviceSpec, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return DeviceSpec{}, fmt.Errorf("invalid device spec %q: want MODEL:SERIAL[:BASELINE_MM]", s)
	}
	spec := DeviceSpec{Model: camera.Model(strings.ToLower(parts[0])), Serial: parts[1]}
	if len(parts) == 3 {
		mm, err := strconv.ParseFloat(parts[2], 64)
		if err != nil || mm <= 0 {
			return DeviceSpec{}, fmt.Errorf("invalid device spec %q: bad baseline %q", s, parts[2])
		}
		spec.BaselineMM = mm
	}
	return spec, nil
}

// ParseDeviceSpecs parses a comma separated list of device specs. An empty
// string yields no devices.
func ParseDeviceSpecs(list string) ([]DeviceSpec, error) {
	var specs []DeviceSpec
	for _, item := range strings.Split(list, ",") {
		if strings.TrimSpace(item) == "" {
			continue
		}
		spec, err := ParseDeviceSpec(item)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// Option configures a Transport.
type Option func(*Transport)

// WithSettleInterval sets how long option writes stay pending after start.
func WithSettleInterval(d time.Duration) Option {
	return func(t *Transport) {
		t.settle = d
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Transport) {
		t.now = now
	}
}

// WithLogger overrides the module logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

type unit struct {
	spec      DeviceSpec
	name      string
	profile   *camera.ModelProfile
	calib     camera.Calibration
	present   bool
	streaming bool
	config    map[camera.StreamKind]camera.StreamMode
	settledAt time.Time
	values    map[camera.Option]float64
	pending   map[camera.Option]float64
}

// Transport is an in-process camera.Transport.
type Transport struct {
	settle time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu     sync.Mutex
	units  map[string]*unit
	order  []string
	faults map[string][]error
}

// New creates a simulator hosting one unit per spec. Every spec must name a
// model present in cat. Serials are not validated so malformed units can be
// simulated.
func New(cat *catalog.Catalog, specs []DeviceSpec, opts ...Option) (*Transport, error) {
	t := &Transport{
		settle: camera.DefaultSettleInterval,
		now:    time.Now,
		logger: logging.GetLogger("simulator"),
		units:  make(map[string]*unit, len(specs)),
		faults: make(map[string][]error),
	}
	for _, opt := range opts {
		opt(t)
	}

	for _, spec := range specs {
		if _, dup := t.units[spec.Serial]; dup {
			return nil, fmt.Errorf("duplicate simulated serial %q", spec.Serial)
		}
		profile, ok := cat.Models.Lookup(spec.Model)
		if !ok {
			return nil, fmt.Errorf("simulated device %s: unknown model %q", spec.Serial, spec.Model)
		}
		calib, _ := cat.NominalCalibration(spec.Model)
		if spec.BaselineMM > 0 {
			if !profile.StereoPair {
				return nil, fmt.Errorf("simulated device %s: model %s has no stereo baseline", spec.Serial, spec.Model)
			}
			applyBaseline(&calib, spec.BaselineMM)
		}

		values := make(map[camera.Option]float64, len(profile.Options))
		for o, opt := range profile.Options {
			values[o] = opt.Default
		}
		t.units[spec.Serial] = &unit{
			spec:    spec,
			name:    profile.Name,
			profile: profile,
			calib:   calib,
			present: true,
			values:  values,
			pending: make(map[camera.Option]float64),
		}
		t.order = append(t.order, spec.Serial)
		t.logger.Debug("Simulated device added", "device", spec.String())
	}
	return t, nil
}

// applyBaseline places infrared2 baselineMM to the right of infrared along x.
func applyBaseline(calib *camera.Calibration, baselineMM float64) {
	pair := camera.StreamPair{From: camera.StreamDepth, To: camera.StreamInfrared2}
	e, ok := calib.Extrinsics[pair]
	if !ok {
		e = camera.IdentityExtrinsics()
	}
	e.Translation[0] = float32(-baselineMM / 1000)
	calib.Extrinsics[pair] = e
}

// FailNext makes the next call of op fail with err. Calls queue up; a nil
// err lets its call through, which delays the failures queued after it.
func (t *Transport) FailNext(op string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.faults[op] = append(t.faults[op], err)
}

// Unplug hides a unit from enumeration and fails every call against it.
func (t *Transport) Unplug(serial string) error {
	return t.setPresent(serial, false)
}

// Plug makes an unplugged unit visible again. It comes back idle.
func (t *Transport) Plug(serial string) error {
	return t.setPresent(serial, true)
}

func (t *Transport) setPresent(serial string, present bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.units[serial]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, serial)
	}
	u.present = present
	u.streaming = false
	u.config = nil
	t.logger.Info("Simulated device presence changed", "serial", serial, "present", present)
	return nil
}

// ActiveConfig returns the configuration a unit is streaming with.
func (t *Transport) ActiveConfig(serial string) (map[camera.StreamKind]camera.StreamMode, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.units[serial]
	if !ok || !u.streaming {
		return nil, false
	}
	out := make(map[camera.StreamKind]camera.StreamMode, len(u.config))
	for k, m := range u.config {
		out[k] = m
	}
	return out, true
}

// fault pops a queued failure for op. Must be called with mu held.
func (t *Transport) fault(op string) error {
	queue := t.faults[op]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	t.faults[op] = queue[1:]
	return err
}

// lookup enters the critical section for a call against serial. On
// success the caller owns mu and must release it.
func (t *Transport) lookup(ctx context.Context, op, serial string) (*unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	if err := t.fault(op); err != nil {
		t.mu.Unlock()
		return nil, err
	}
	u, ok := t.units[serial]
	if !ok {
		t.mu.Unlock()
		return nil, fmt.Errorf("%s: %w: %s", op, ErrUnknownDevice, serial)
	}
	if !u.present {
		t.mu.Unlock()
		return nil, fmt.Errorf("%s: %w: %s", op, ErrUnplugged, serial)
	}
	return u, nil
}

// Enumerate implements camera.Transport.
func (t *Transport) Enumerate(ctx context.Context) ([]camera.DeviceInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.fault(OpEnumerate); err != nil {
		return nil, err
	}

	infos := make([]camera.DeviceInfo, 0, len(t.order))
	for _, serial := range t.order {
		u := t.units[serial]
		if !u.present {
			continue
		}
		infos = append(infos, camera.DeviceInfo{Name: u.name, Serial: serial, Model: u.spec.Model})
	}
	return infos, nil
}

// ReadCalibration implements camera.Transport.
func (t *Transport) ReadCalibration(ctx context.Context, serial string) (camera.Calibration, error) {
	u, err := t.lookup(ctx, OpReadCalibration, serial)
	if err != nil {
		return camera.Calibration{}, err
	}
	defer t.mu.Unlock()

	out := camera.Calibration{
		Lenses:     make(map[camera.StreamKind]camera.Lens, len(u.calib.Lenses)),
		Extrinsics: make(map[camera.StreamPair]camera.Extrinsics, len(u.calib.Extrinsics)),
	}
	for k, l := range u.calib.Lenses {
		out.Lenses[k] = l
	}
	for p, e := range u.calib.Extrinsics {
		out.Extrinsics[p] = e
	}
	return out, nil
}

// Start implements camera.Transport. Every requested mode must be listed
// in the unit's capability row.
func (t *Transport) Start(ctx context.Context, serial string, config map[camera.StreamKind]camera.StreamMode) error {
	u, err := t.lookup(ctx, OpStart, serial)
	if err != nil {
		return err
	}
	defer t.mu.Unlock()

	if u.streaming {
		return fmt.Errorf("start: %w: %s", ErrBusy, serial)
	}
	if len(config) == 0 {
		return fmt.Errorf("start: empty stream configuration")
	}
	active := make(map[camera.StreamKind]camera.StreamMode, len(config))
	for kind, mode := range config {
		if !hasMode(u.profile.Modes[kind], mode) {
			return fmt.Errorf("start: %s cannot stream %s", kind, mode)
		}
		active[kind] = mode
	}

	u.streaming = true
	u.config = active
	u.settledAt = t.now().Add(t.settle)
	t.logger.Debug("Simulated streaming started", "serial", serial, "streams", len(active))
	return nil
}

// Stop implements camera.Transport. Pending writes are applied.
func (t *Transport) Stop(ctx context.Context, serial string) error {
	u, err := t.lookup(ctx, OpStop, serial)
	if err != nil {
		return err
	}
	defer t.mu.Unlock()

	if !u.streaming {
		return fmt.Errorf("stop: %w: %s", ErrNotStreaming, serial)
	}
	u.flush()
	u.streaming = false
	u.config = nil
	u.settledAt = time.Time{}
	t.logger.Debug("Simulated streaming stopped", "serial", serial)
	return nil
}

// GetOption implements camera.Transport. While the unit settles it still
// reports the values from before start.
func (t *Transport) GetOption(ctx context.Context, serial string, option camera.Option) (float64, error) {
	u, err := t.lookup(ctx, OpGetOption, serial)
	if err != nil {
		return 0, err
	}
	defer t.mu.Unlock()

	if _, ok := u.profile.Options[option]; !ok {
		return 0, fmt.Errorf("get_option: %s has no control %s", u.spec.Model, option)
	}
	if !u.settling(t.now()) {
		u.flush()
	}
	return u.values[option], nil
}

// SetOption implements camera.Transport. Writes during the settle window
// take effect at its end.
func (t *Transport) SetOption(ctx context.Context, serial string, option camera.Option, value float64) error {
	u, err := t.lookup(ctx, OpSetOption, serial)
	if err != nil {
		return err
	}
	defer t.mu.Unlock()

	spec, ok := u.profile.Options[option]
	if !ok {
		return fmt.Errorf("set_option: %s has no control %s", u.spec.Model, option)
	}
	if !spec.Domain.Contains(value) {
		return fmt.Errorf("set_option: %s rejected value %v", option, value)
	}
	if u.settling(t.now()) {
		u.pending[option] = value
		return nil
	}
	u.flush()
	u.values[option] = value
	return nil
}

func (u *unit) settling(now time.Time) bool {
	return u.streaming && now.Before(u.settledAt)
}

func (u *unit) flush() {
	for o, v := range u.pending {
		u.values[o] = v
	}
	clear(u.pending)
}

func hasMode(modes []camera.StreamMode, mode camera.StreamMode) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}
