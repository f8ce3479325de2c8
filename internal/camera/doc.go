// Package camera is the device session and streaming-mode negotiation engine
// for multi-sensor depth cameras.
//
// # Overview
//
// A caller-owned [Context] enumerates devices through a [Transport] and hands
// out [*Device] handles. Each handle exposes four surfaces:
//
//   - Capability table: supported options and the ordered stream-mode table of
//     every stream, fixed at discovery (see [ModelProfile]).
//   - Calibration store: extrinsics between stream pairs, intrinsics of enabled
//     streams, and the depth scale.
//   - Session state machine: enable/disable streams, start and stop.
//   - Option control: get/set of runtime parameters with validity domains.
//
// # Lifecycle
//
//	idle --EnableStream--> configured --Start--> streaming --Stop--> idle
//
// Stream selection is legal in idle and configured. Start requires at least
// one enabled stream. After Start the device needs a settle interval
// (about one second on R200) before option reads and frame cadence are
// reliable; [Device.WaitSettled] blocks until then.
//
// # Usage
//
//	ctx := camera.NewContext(transport, catalog.Models, camera.WithPublisher(bus))
//	n, err := ctx.Count(context.Background())
//	dev, err := ctx.Device(context.Background(), 0)
//	err = dev.EnableStream(camera.StreamDepth, camera.StreamMode{Width: 480, Height: 360, Format: camera.FormatZ16, Framerate: 60})
//	err = dev.Start(context.Background())
//	err = dev.WaitSettled(context.Background())
//	err = dev.SetOption(context.Background(), camera.OptionR200LRGain, 400)
//	err = dev.Stop(context.Background())
//
// # Errors
//
// Every failure is an [*Error] carrying one [ErrorKind]. Use errors.Is with
// the sentinels (ErrNotReady, ErrUnsupportedMode, ...) or [KindOf].
// Transport failures are wrapped as TRANSPORT_ERROR with the original
// error as cause.
//
// # Concurrency
//
// Calls against one Device are serialized by a per-device mutex. Different
// devices share no mutable state and can be driven from separate goroutines.
package camera
