package camera

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/smazurov/depthnode/internal/events"
	"github.com/smazurov/depthnode/internal/logging"
)

// DefaultSettleInterval is the post-start delay before option values and
// frame cadence are trustworthy on the supported device families.
const DefaultSettleInterval = time.Second

// Publisher receives engine events. *events.Bus satisfies it.
type Publisher interface {
	Publish(ev events.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) {}

// FeasibilityFunc decides whether a full stream configuration can stream
// jointly. Per-stream membership in the capability table is checked
// before the predicate runs.
type FeasibilityFunc func(config map[StreamKind]StreamMode) bool

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithLogger overrides the module logger.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *Context) {
		c.logger = logger
	}
}

// WithPublisher routes engine events to p.
func WithPublisher(p Publisher) ContextOption {
	return func(c *Context) {
		if p != nil {
			c.publisher = p
		}
	}
}

// WithSettleInterval overrides DefaultSettleInterval.
func WithSettleInterval(d time.Duration) ContextOption {
	return func(c *Context) {
		if d >= 0 {
			c.settle = d
		}
	}
}

// WithFeasibility installs a joint feasibility predicate. The default
// accepts every combination of individually supported modes.
func WithFeasibility(fn FeasibilityFunc) ContextOption {
	return func(c *Context) {
		c.feasible = fn
	}
}

// Context is a caller-owned device session. It enumerates devices through
// the transport and hands out *Device handles that stay valid, and keep
// their identity, for the lifetime of the Context.
//
// All methods are safe for concurrent use. Calls against a single Device
// are serialized by that device.
type Context struct {
	id        string
	transport Transport
	models    ModelTable
	logger    *slog.Logger
	publisher Publisher
	settle    time.Duration
	feasible  FeasibilityFunc

	mu         sync.RWMutex
	devices    map[string]*Device // by serial
	order      []*Device          // last enumeration order
	enumerated bool
}

// NewContext creates a session over transport using models as the capability table.
func NewContext(transport Transport, models ModelTable, opts ...ContextOption) *Context {
	c := &Context{
		id:        uuid.NewString(),
		transport: transport,
		models:    models,
		logger:    logging.GetLogger("camera"),
		publisher: nopPublisher{},
		settle:    DefaultSettleInterval,
		devices:   make(map[string]*Device),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("context_id", c.id)
	return c
}

// ID returns the unique identifier of this session.
func (c *Context) ID() string {
	return c.id
}

// Count enumerates devices now and returns how many are usable.
func (c *Context) Count(ctx context.Context) (int, error) {
	if err := c.refresh(ctx); err != nil {
		return 0, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order), nil
}

// Device returns the handle at index in the most recent enumeration,
// enumerating first if Count has never been called.
func (c *Context) Device(ctx context.Context, index int) (*Device, error) {
	c.mu.RLock()
	enumerated := c.enumerated
	c.mu.RUnlock()
	if !enumerated {
		if err := c.refresh(ctx); err != nil {
			return nil, err
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 0 || index >= len(c.order) {
		return nil, newError(KindNotFound, "get_device", "index %d outside [0, %d)", index, len(c.order))
	}
	return c.order[index], nil
}

// DeviceBySerial returns the handle with the given serial if it was present
// in the most recent enumeration.
func (c *Context) DeviceBySerial(serial string) (*Device, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.devices[serial]
	if !ok || !c.listed(serial) {
		return nil, newError(KindNotFound, "get_device", "no device with serial %q", serial)
	}
	return d, nil
}

// Devices returns the handles of the most recent enumeration.
func (c *Context) Devices() []*Device {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Device, len(c.order))
	copy(out, c.order)
	return out
}

// StopAll stops every streaming device concurrently.
func (c *Context) StopAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, d := range c.Devices() {
		if !d.IsStreaming() {
			continue
		}
		g.Go(func() error {
			return d.Stop(gctx)
		})
	}
	return g.Wait()
}

// refresh re-enumerates devices. Known serials keep their *Device; new
// serials get capability and calibration data read exactly once.
func (c *Context) refresh(ctx context.Context) error {
	infos, err := c.transport.Enumerate(ctx)
	if err != nil {
		return transportError("enumerate", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]bool, len(infos))
	order := make([]*Device, 0, len(infos))
	for _, info := range infos {
		if seen[info.Serial] {
			continue
		}
		d, ok := c.devices[info.Serial]
		if !ok {
			d, err = c.discover(ctx, info)
			if err != nil {
				return err
			}
			if d == nil {
				continue
			}
			c.devices[info.Serial] = d
		} else if !c.listed(info.Serial) {
			d.detach()
			c.logger.Info("Device enumerated again", "serial", info.Serial)
			c.publisher.Publish(events.DeviceDiscoveredEvent{
				ContextID: c.id,
				Serial:    d.serial,
				Name:      d.name,
				Model:     string(d.profile.Model),
				Timestamp: time.Now().Format(time.RFC3339),
			})
		}
		seen[info.Serial] = true
		order = append(order, d)
	}

	now := time.Now().Format(time.RFC3339)
	for _, prev := range c.order {
		if !seen[prev.Serial()] {
			c.logger.Info("Device no longer enumerated", "serial", prev.Serial())
			prev.detach()
			c.publisher.Publish(events.DeviceRemovedEvent{ContextID: c.id, Serial: prev.Serial(), Timestamp: now})
		}
	}

	c.order = order
	c.enumerated = true
	return nil
}

// listed reports whether serial was part of the previous enumeration.
func (c *Context) listed(serial string) bool {
	for _, d := range c.order {
		if d.serial == serial {
			return true
		}
	}
	return false
}

// discover builds a Device for a newly seen serial. It returns (nil, nil)
// for devices this context cannot drive.
func (c *Context) discover(ctx context.Context, info DeviceInfo) (*Device, error) {
	profile, ok := c.models.Lookup(info.Model)
	if !ok {
		c.logger.Warn("Skipping device of unknown model", "serial", info.Serial, "model", info.Model)
		return nil, nil
	}
	if !profile.SerialPattern.MatchString(info.Serial) {
		c.logger.Warn("Skipping device with malformed serial",
			"serial", info.Serial,
			"model", info.Model,
			"pattern", profile.SerialPattern.String())
		return nil, nil
	}

	calib, err := c.transport.ReadCalibration(ctx, info.Serial)
	if err != nil {
		return nil, transportError("read_calibration", err)
	}

	name := info.Name
	if name == "" {
		name = profile.Name
	}
	d := &Device{
		name:      name,
		serial:    info.Serial,
		profile:   profile,
		calib:     calib,
		transport: c.transport,
		logger:    c.logger.With("serial", info.Serial),
		publisher: c.publisher,
		settle:    c.settle,
		feasible:  c.feasible,
		state:     StateIdle,
		streams:   make(map[StreamKind]StreamMode),
	}

	c.logger.Info("Device discovered", "serial", info.Serial, "name", name, "model", info.Model)
	c.publisher.Publish(events.DeviceDiscoveredEvent{
		ContextID: c.id,
		Serial:    info.Serial,
		Name:      name,
		Model:     string(info.Model),
		Timestamp: time.Now().Format(time.RFC3339),
	})
	return d, nil
}
