package camera

import "context"

// DeviceInfo is what the transport reports for a discoverable device.
type DeviceInfo struct {
	Name   string
	Serial string
	Model  Model
}

// Calibration is the per-unit calibration read from the device at discovery.
type Calibration struct {
	// Lenses holds a resolution-independent lens model per native or derived stream.
	Lenses map[StreamKind]Lens
	// Extrinsics holds the stored transforms. Reverse directions are derived.
	Extrinsics map[StreamPair]Extrinsics
}

// Transport is the boundary to the device-communication layer. Every error
// it returns is surfaced to callers as a TRANSPORT_ERROR with the original
// error as cause.
type Transport interface {
	// Enumerate lists the devices discoverable right now.
	Enumerate(ctx context.Context) ([]DeviceInfo, error)

	// ReadCalibration reads the unit's calibration block.
	ReadCalibration(ctx context.Context, serial string) (Calibration, error)

	// Start commits the stream configuration and begins streaming.
	Start(ctx context.Context, serial string, config map[StreamKind]StreamMode) error

	// Stop ends streaming.
	Stop(ctx context.Context, serial string) error

	// GetOption reads the live value of an option.
	GetOption(ctx context.Context, serial string, option Option) (float64, error)

	// SetOption writes an option value.
	SetOption(ctx context.Context, serial string, option Option, value float64) error
}
