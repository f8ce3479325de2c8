package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/depthnode/internal/camera"
	"github.com/smazurov/depthnode/internal/catalog"
	"github.com/smazurov/depthnode/internal/logging"
	"github.com/smazurov/depthnode/internal/simulator"
)

// DefaultSimDevices is the device list used when none is given.
const DefaultSimDevices = "r200:2391004154,f200:1000000001"

// sessionFlags selects the devices and catalog used by the offline subcommands.
type sessionFlags struct {
	devices  string
	catalog  string
	settle   time.Duration
	logLevel string
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.devices, "sim-devices", DefaultSimDevices, "Simulated devices as model:serial[:baseline_mm], comma separated")
	cmd.Flags().StringVar(&f.catalog, "catalog", "", "Extra catalog file merged over the built-in models")
	cmd.Flags().DurationVar(&f.settle, "settle", camera.DefaultSettleInterval, "Option settle interval")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
}

// open builds a device context over the simulator and enumerates it.
func (f *sessionFlags) open(ctx context.Context) (*camera.Context, *simulator.Transport, error) {
	logging.Initialize(logging.Config{Level: f.logLevel, Format: "text"})

	cat, err := catalog.Load(f.catalog)
	if err != nil {
		return nil, nil, err
	}
	specs, err := simulator.ParseDeviceSpecs(f.devices)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid --sim-devices: %w", err)
	}
	sim, err := simulator.New(cat, specs, simulator.WithSettleInterval(f.settle))
	if err != nil {
		return nil, nil, err
	}

	session := camera.NewContext(sim, cat.Models, camera.WithSettleInterval(f.settle))
	if _, err := session.Count(ctx); err != nil {
		return nil, nil, fmt.Errorf("enumeration failed: %w", err)
	}
	return session, sim, nil
}

// selectDevices returns the devices named by serials, or all of them.
func selectDevices(session *camera.Context, serials []string) ([]*camera.Device, error) {
	if len(serials) == 0 {
		return session.Devices(), nil
	}
	devices := make([]*camera.Device, 0, len(serials))
	for _, serial := range serials {
		dev, err := session.DeviceBySerial(serial)
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", serial, err)
		}
		devices = append(devices, dev)
	}
	return devices, nil
}
