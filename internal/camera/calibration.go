package camera

import "context"

// DefaultDepthScale is the depth unit in meters per sample when the depth
// units option has not been overridden.
const DefaultDepthScale float32 = 0.001

// Extrinsics returns the transform from one stream's frame to another's.
// Stored pairs are returned as-is, reverse pairs are inverted, and pairs
// that share a stored neighbour are composed through it.
func (d *Device) Extrinsics(from, to StreamKind) (Extrinsics, error) {
	if !from.IsValid() || !to.IsValid() {
		return Extrinsics{}, newError(KindUnsupportedPair, "extrinsics", "unknown stream in pair %s -> %s", from, to)
	}
	if from == to {
		return IdentityExtrinsics(), nil
	}
	if e, ok := d.lookupExtrinsics(from, to); ok {
		return e, nil
	}
	for _, via := range AllStreams {
		if via == from || via == to {
			continue
		}
		first, ok := d.lookupExtrinsics(from, via)
		if !ok {
			continue
		}
		second, ok := d.lookupExtrinsics(via, to)
		if !ok {
			continue
		}
		return first.Then(second), nil
	}
	return Extrinsics{}, newError(KindUnsupportedPair, "extrinsics", "no calibration between %s and %s", from, to)
}

func (d *Device) lookupExtrinsics(from, to StreamKind) (Extrinsics, bool) {
	if e, ok := d.calib.Extrinsics[StreamPair{From: from, To: to}]; ok {
		return e, true
	}
	if e, ok := d.calib.Extrinsics[StreamPair{From: to, To: from}]; ok {
		return e.Inverse(), true
	}
	return Extrinsics{}, false
}

// Intrinsics returns the projection parameters of an enabled stream in
// its committed mode.
func (d *Device) Intrinsics(kind StreamKind) (Intrinsics, error) {
	d.mu.Lock()
	mode, ok := d.streams[kind]
	d.mu.Unlock()
	if !ok {
		return Intrinsics{}, newError(KindNotEnabled, "intrinsics", "%s is not enabled", kind)
	}
	lens, ok := d.calib.Lenses[kind]
	if !ok {
		return Intrinsics{}, newError(KindNotFound, "intrinsics", "no lens calibration for %s", kind)
	}
	return lens.Project(mode), nil
}

// DepthScale returns meters per depth sample as configured by the device's
// r200_depth_units option. While streaming the option is read from the
// device, so a write made during the settle interval shows up once it
// settles. Otherwise the last value read from the device is used.
func (d *Device) DepthScale() float32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateStreaming {
		d.refreshDepthUnits(context.Background())
	}
	if d.depthUnits > 0 {
		// depth units are micrometers per sample
		return float32(d.depthUnits / 1e6)
	}
	return DefaultDepthScale
}

// refreshDepthUnits caches the device's depth units. A failed read keeps
// the previous value. Must be called with mu held.
func (d *Device) refreshDepthUnits(ctx context.Context) {
	if !d.profile.SupportsOption(OptionR200DepthUnits) {
		return
	}
	v, err := d.transport.GetOption(ctx, d.serial, OptionR200DepthUnits)
	if err != nil {
		d.logger.Warn("Failed to read depth units", "error", err)
		return
	}
	d.depthUnits = v
}
