package cmd

import (
	"github.com/spf13/cobra"

	"github.com/smazurov/depthnode/internal/camera"
)

type describeDocument struct {
	Devices []deviceDescription `json:"devices" yaml:"devices" toml:"device"`
}

type deviceDescription struct {
	Serial     string                       `json:"serial" yaml:"serial" toml:"serial"`
	Name       string                       `json:"name" yaml:"name" toml:"name"`
	Model      string                       `json:"model" yaml:"model" toml:"model"`
	DepthScale float32                      `json:"depth_scale" yaml:"depth_scale" toml:"depth_scale"`
	Streams    map[string]streamDescription `json:"streams" yaml:"streams" toml:"streams"`
	Options    []optionDescription          `json:"options" yaml:"options" toml:"option"`
	Extrinsics []extrinsicsDescription      `json:"extrinsics" yaml:"extrinsics" toml:"extrinsics"`
}

type streamDescription struct {
	Modes   []string          `json:"modes" yaml:"modes" toml:"modes"`
	Presets map[string]string `json:"presets,omitempty" yaml:"presets,omitempty" toml:"presets,omitempty"`
}

type optionDescription struct {
	Name    string        `json:"name" yaml:"name" toml:"name"`
	Domain  camera.Domain `json:"domain" yaml:"domain" toml:"domain"`
	Default float64       `json:"default" yaml:"default" toml:"default"`
	Live    bool          `json:"live" yaml:"live" toml:"live"`
}

type extrinsicsDescription struct {
	From        string     `json:"from" yaml:"from" toml:"from"`
	To          string     `json:"to" yaml:"to" toml:"to"`
	Rotation    [9]float32 `json:"rotation" yaml:"rotation" toml:"rotation"`
	Translation [3]float32 `json:"translation" yaml:"translation" toml:"translation"`
}

// CreateDescribeCmd creates the describe command.
func CreateDescribeCmd() *cobra.Command {
	var flags sessionFlags
	var format string

	cmd := &cobra.Command{
		Use:   "describe [serial...]",
		Short: "Dump device capabilities and calibration",
		Long: `Prints the supported modes, presets, option domains and depth-relative ` +
			`extrinsics of each device in a structured format.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			devices, err := selectDevices(session, args)
			if err != nil {
				return err
			}

			var doc describeDocument
			for _, dev := range devices {
				doc.Devices = append(doc.Devices, describeDevice(dev))
			}
			return encode(cmd.OutOrStdout(), format, doc)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", FormatTOML, "Output format (toml, json, yaml)")
	return cmd
}

func describeDevice(dev *camera.Device) deviceDescription {
	desc := deviceDescription{
		Serial:     dev.Serial(),
		Name:       dev.Name(),
		Model:      string(dev.Model()),
		DepthScale: dev.DepthScale(),
		Streams:    make(map[string]streamDescription),
	}

	for _, kind := range camera.AllStreams {
		modes := dev.StreamModes(kind)
		if len(modes) > 0 {
			sd := streamDescription{Modes: make([]string, len(modes))}
			for i, m := range modes {
				sd.Modes[i] = m.String()
			}
			if presets := dev.Presets(kind); len(presets) > 0 {
				sd.Presets = make(map[string]string, len(presets))
				for p, m := range presets {
					sd.Presets[string(p)] = m.String()
				}
			}
			desc.Streams[string(kind)] = sd
		}

		if kind == camera.StreamDepth {
			continue
		}
		if e, err := dev.Extrinsics(camera.StreamDepth, kind); err == nil {
			desc.Extrinsics = append(desc.Extrinsics, extrinsicsDescription{
				From:        string(camera.StreamDepth),
				To:          string(kind),
				Rotation:    e.Rotation,
				Translation: e.Translation,
			})
		}
	}

	for _, o := range dev.SupportedOptions() {
		spec, err := dev.OptionSpec(o)
		if err != nil {
			continue
		}
		desc.Options = append(desc.Options, optionDescription{
			Name:    o.String(),
			Domain:  spec.Domain,
			Default: spec.Default,
			Live:    spec.Live,
		})
	}
	return desc
}
