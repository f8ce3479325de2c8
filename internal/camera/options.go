package camera

import (
	"context"
	"time"

	"github.com/smazurov/depthnode/internal/events"
)

// GetOption reads the current value of an option from the device. Live
// options are only defined while streaming; during the settle interval the
// value may still be the one from before the latest write.
func (d *Device) GetOption(ctx context.Context, o Option) (float64, error) {
	const op = "get_option"

	if !d.profile.SupportsOption(o) {
		return 0, d.fail(newError(KindUnsupported, op, "%s not supported by %s", o, d.profile.Model))
	}
	spec := d.profile.Options[o]

	d.mu.Lock()
	defer d.mu.Unlock()

	if spec.Live && d.state != StateStreaming {
		return 0, d.fail(newError(KindNotReady, op, "%s is only readable while streaming", o))
	}
	v, err := d.transport.GetOption(ctx, d.serial, o)
	if err != nil {
		return 0, d.fail(transportError(op, err))
	}
	if o == OptionR200DepthUnits {
		d.depthUnits = v
	}
	return v, nil
}

// SetOption writes an option value. The write is accepted during the
// settle interval; a subsequent GetOption reflects it once the interval
// has elapsed.
func (d *Device) SetOption(ctx context.Context, o Option, value float64) error {
	const op = "set_option"

	if !d.profile.SupportsOption(o) {
		return d.fail(newError(KindUnsupported, op, "%s not supported by %s", o, d.profile.Model))
	}
	spec := d.profile.Options[o]
	if !spec.Domain.Contains(value) {
		return d.fail(newError(KindOutOfDomain, op, "%v outside the domain of %s", value, o))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if spec.Live && d.state != StateStreaming {
		return d.fail(newError(KindNotReady, op, "%s is only writable while streaming", o))
	}
	if err := d.transport.SetOption(ctx, d.serial, o, value); err != nil {
		return d.fail(transportError(op, err))
	}

	d.logger.Debug("Option set", "option", o.String(), "value", value)
	d.publisher.Publish(events.OptionChangedEvent{
		Serial:    d.serial,
		Option:    o.String(),
		Value:     value,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	return nil
}
