package camera

import (
	"context"
	"sort"
	"time"

	"github.com/smazurov/depthnode/internal/events"
)

// EnableStream commits mode for kind. The mode must match an entry of the
// stream's mode table on all four fields. Re-enabling a stream replaces
// its mode. Not allowed while streaming.
func (d *Device) EnableStream(kind StreamKind, mode StreamMode) error {
	const op = "enable_stream"

	if !containsMode(d.profile.Modes[kind], mode) {
		return d.fail(newError(KindUnsupportedMode, op, "%s does not support %s", kind, mode))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateStreaming {
		return d.fail(newError(KindNotReady, op, "cannot change %s while streaming", kind))
	}

	if d.feasible != nil {
		candidate := make(map[StreamKind]StreamMode, len(d.streams)+1)
		for k, m := range d.streams {
			candidate[k] = m
		}
		candidate[kind] = mode
		if !d.feasible(candidate) {
			return d.fail(newError(KindUnsupportedMode, op, "%s %s cannot stream together with the current configuration", kind, mode))
		}
	}

	d.streams[kind] = mode
	d.logger.Info("Stream enabled", "stream", kind, "mode", mode.String())
	d.publisher.Publish(events.StreamEnabledEvent{
		Serial:    d.serial,
		Stream:    string(kind),
		Mode:      mode.String(),
		Timestamp: time.Now().Format(time.RFC3339),
	})
	d.setState(StateConfigured)
	return nil
}

// EnableStreamPreset resolves preset through the model profile and enables
// the resulting mode.
func (d *Device) EnableStreamPreset(kind StreamKind, preset Preset) error {
	mode, ok := d.profile.Presets[kind][preset]
	if !ok {
		return d.fail(newError(KindUnsupportedMode, "enable_stream_preset", "%s has no %s preset", kind, preset))
	}
	return d.EnableStream(kind, mode)
}

// DisableStream removes kind from the configuration. Removing the last
// stream returns the device to idle.
func (d *Device) DisableStream(kind StreamKind) error {
	const op = "disable_stream"

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateStreaming {
		return d.fail(newError(KindNotReady, op, "cannot disable %s while streaming", kind))
	}
	if _, ok := d.streams[kind]; !ok {
		return d.fail(newError(KindNotEnabled, op, "%s is not enabled", kind))
	}

	delete(d.streams, kind)
	d.logger.Info("Stream disabled", "stream", kind)
	d.publisher.Publish(events.StreamDisabledEvent{
		Serial:    d.serial,
		Stream:    string(kind),
		Timestamp: time.Now().Format(time.RFC3339),
	})
	if len(d.streams) == 0 {
		d.setState(StateIdle)
	}
	return nil
}

// StreamConfig returns the committed mode of kind.
func (d *Device) StreamConfig(kind StreamKind) (StreamMode, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	mode, ok := d.streams[kind]
	return mode, ok
}

// IsStreamEnabled reports whether kind is part of the configuration.
func (d *Device) IsStreamEnabled(kind StreamKind) bool {
	_, ok := d.StreamConfig(kind)
	return ok
}

// EnabledStreams returns the enabled stream kinds in canonical order.
func (d *Device) EnabledStreams() []StreamKind {
	d.mu.Lock()
	defer d.mu.Unlock()
	kinds := make([]StreamKind, 0, len(d.streams))
	for k := range d.streams {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return streamIndex(kinds[i]) < streamIndex(kinds[j]) })
	return kinds
}

func streamIndex(k StreamKind) int {
	for i, s := range AllStreams {
		if s == k {
			return i
		}
	}
	return len(AllStreams)
}

// Start commits the configuration to the device and begins streaming. A
// transport failure leaves the device in its previous state. Option values
// and frame cadence are only reliable after WaitSettled returns.
func (d *Device) Start(ctx context.Context) error {
	const op = "start"

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateStreaming {
		return d.fail(newError(KindNotReady, op, "already streaming"))
	}
	if len(d.streams) == 0 {
		return d.fail(newError(KindNoStreamsEnabled, op, "enable at least one stream before starting"))
	}

	config := make(map[StreamKind]StreamMode, len(d.streams))
	for k, m := range d.streams {
		config[k] = m
	}
	if err := d.transport.Start(ctx, d.serial, config); err != nil {
		return d.fail(transportError(op, err))
	}

	d.settledAt = time.Now().Add(d.settle)
	d.refreshDepthUnits(ctx)
	d.logger.Info("Streaming started", "streams", len(config), "settle", d.settle)
	d.setState(StateStreaming)
	return nil
}

// Stop ends streaming and returns the device to idle. The stream
// configuration is kept so it can be restarted or disabled.
func (d *Device) Stop(ctx context.Context) error {
	const op = "stop"

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateStreaming {
		return d.fail(newError(KindNotReady, op, "device is %s, not streaming", d.state))
	}
	if err := d.transport.Stop(ctx, d.serial); err != nil {
		return d.fail(transportError(op, err))
	}

	d.settledAt = time.Time{}
	d.refreshDepthUnits(ctx)
	d.logger.Info("Streaming stopped")
	d.setState(StateIdle)
	return nil
}

// detach drops the streaming session of a device that left the bus. The
// hardware lost its session with the connection, so only local state is
// reset; the stream configuration is kept as with Stop.
func (d *Device) detach() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.settledAt = time.Time{}
	if d.state == StateStreaming {
		d.logger.Warn("Streaming session lost, device left the bus")
		d.setState(StateIdle)
	}
}

// SettleDeadline returns when the current streaming session settles, or the
// zero time when the device is not streaming.
func (d *Device) SettleDeadline() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settledAt
}

// WaitSettled blocks until the post-start settle interval has elapsed.
func (d *Device) WaitSettled(ctx context.Context) error {
	d.mu.Lock()
	state, deadline := d.state, d.settledAt
	d.mu.Unlock()

	if state != StateStreaming {
		return d.fail(newError(KindNotReady, "wait_settled", "device is %s, not streaming", state))
	}

	wait := time.Until(deadline)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
