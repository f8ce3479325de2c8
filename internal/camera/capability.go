package camera

// SupportsOption reports whether the device model exposes o. The answer is
// static for the lifetime of the handle.
func (d *Device) SupportsOption(o Option) bool {
	return d.profile.SupportsOption(o)
}

// SupportedOptions lists the supported options in identifier order.
func (d *Device) SupportedOptions() []Option {
	var opts []Option
	for o := Option(0); o < OptionCount; o++ {
		if d.profile.SupportsOption(o) {
			opts = append(opts, o)
		}
	}
	return opts
}

// OptionDomain returns the validity domain of a supported option.
func (d *Device) OptionDomain(o Option) (Domain, error) {
	if !d.profile.SupportsOption(o) {
		return Domain{}, newError(KindUnsupported, "option_domain", "%s not supported by %s", o, d.profile.Model)
	}
	return d.profile.Options[o].Domain, nil
}

// OptionSpec returns the full option description for a supported option.
func (d *Device) OptionSpec(o Option) (OptionSpec, error) {
	if !d.profile.SupportsOption(o) {
		return OptionSpec{}, newError(KindUnsupported, "option_spec", "%s not supported by %s", o, d.profile.Model)
	}
	return d.profile.Options[o], nil
}

// StreamModeCount returns the number of native modes of a stream.
func (d *Device) StreamModeCount(kind StreamKind) int {
	return len(d.profile.Modes[kind])
}

// StreamMode returns the mode at index in the stream's ordered mode table.
func (d *Device) StreamMode(kind StreamKind, index int) (StreamMode, error) {
	modes := d.profile.Modes[kind]
	if index < 0 || index >= len(modes) {
		return StreamMode{}, newError(KindOutOfRange, "stream_mode", "%s mode %d outside [0, %d)", kind, index, len(modes))
	}
	return modes[index], nil
}

// StreamModes returns a copy of the stream's mode table.
func (d *Device) StreamModes(kind StreamKind) []StreamMode {
	modes := d.profile.Modes[kind]
	out := make([]StreamMode, len(modes))
	copy(out, modes)
	return out
}

// Presets returns the presets defined for a stream.
func (d *Device) Presets(kind StreamKind) map[Preset]StreamMode {
	out := make(map[Preset]StreamMode, len(d.profile.Presets[kind]))
	for p, m := range d.profile.Presets[kind] {
		out[p] = m
	}
	return out
}
