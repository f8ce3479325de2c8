package camera

import (
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/depthnode/internal/events"
)

// Device is a handle to one enumerated camera. Identity, capability and
// calibration are fixed at discovery; lifecycle state, the committed
// stream configuration and option writes are guarded by mu.
type Device struct {
	name      string
	serial    string
	profile   *ModelProfile
	calib     Calibration
	transport Transport
	logger    *slog.Logger
	publisher Publisher
	settle    time.Duration
	feasible  FeasibilityFunc

	mu         sync.Mutex
	state      State
	streams    map[StreamKind]StreamMode
	settledAt  time.Time
	depthUnits float64
}

// Name returns the display name reported by the device.
func (d *Device) Name() string { return d.name }

// Serial returns the hardware serial number.
func (d *Device) Serial() string { return d.serial }

// Model returns the device model tag.
func (d *Device) Model() Model { return d.profile.Model }

// State returns the current lifecycle state.
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// IsStreaming reports whether the device is in the streaming state.
func (d *Device) IsStreaming() bool {
	return d.State() == StateStreaming
}

// setState must be called with mu held.
func (d *Device) setState(to State) {
	from := d.state
	if from == to {
		return
	}
	d.state = to
	d.logger.Debug("Device state changed", "from", from, "to", to)
	d.publisher.Publish(events.DeviceStateChangedEvent{
		Serial:    d.serial,
		From:      string(from),
		To:        string(to),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// fail reports err to subscribers and returns it unchanged.
func (d *Device) fail(err *Error) error {
	d.logger.Debug("Device operation failed", "op", err.Op, "kind", err.Kind, "error", err.Error())
	d.publisher.Publish(events.OperationFailedEvent{
		Serial:    d.serial,
		Operation: err.Op,
		Kind:      string(err.Kind),
		Error:     err.Error(),
		Timestamp: time.Now().Format(time.RFC3339),
	})
	return err
}
