package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smazurov/depthnode/internal/camera"
)

type deviceRow struct {
	Index  int    `json:"index" yaml:"index" toml:"index"`
	Serial string `json:"serial" yaml:"serial" toml:"serial"`
	Model  string `json:"model" yaml:"model" toml:"model"`
	Name   string `json:"name" yaml:"name" toml:"name"`
}

type deviceList struct {
	Devices []deviceRow `json:"devices" yaml:"devices" toml:"device"`
}

// CreateDevicesCmd creates the devices command.
func CreateDevicesCmd() *cobra.Command {
	var flags sessionFlags
	var format string

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List connected depth cameras",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, _, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}

			var list deviceList
			for i, dev := range session.Devices() {
				list.Devices = append(list.Devices, deviceRow{
					Index:  i,
					Serial: dev.Serial(),
					Model:  string(dev.Model()),
					Name:   dev.Name(),
				})
			}

			out := cmd.OutOrStdout()
			if format != FormatText {
				return encode(out, format, list)
			}
			if len(list.Devices) == 0 {
				fmt.Fprintln(out, "No devices found")
				return nil
			}
			for _, row := range list.Devices {
				fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", row.Index, row.Serial, row.Model, row.Name)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", FormatText, "Output format (text, toml, json, yaml)")
	return cmd
}

// CreateModesCmd creates the modes command.
func CreateModesCmd() *cobra.Command {
	var flags sessionFlags

	cmd := &cobra.Command{
		Use:   "modes <serial> [stream...]",
		Short: "Show the stream modes and presets of a device",
		Long:  `Lists every mode a device supports for the given streams, in catalog order. Without streams, every native stream is listed.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			dev, err := session.DeviceBySerial(args[0])
			if err != nil {
				return err
			}

			kinds := make([]camera.StreamKind, 0, len(camera.AllStreams))
			if len(args) == 1 {
				for _, kind := range camera.AllStreams {
					if dev.StreamModeCount(kind) > 0 {
						kinds = append(kinds, kind)
					}
				}
			}
			for _, name := range args[1:] {
				kind, err := camera.ParseStreamKind(name)
				if err != nil {
					return err
				}
				kinds = append(kinds, kind)
			}

			out := cmd.OutOrStdout()
			for _, kind := range kinds {
				fmt.Fprintf(out, "%s:\n", kind)
				for i, mode := range dev.StreamModes(kind) {
					fmt.Fprintf(out, "  %2d  %s%s\n", i, mode, presetSuffix(dev.Presets(kind), mode))
				}
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// presetSuffix names the presets resolving to mode.
func presetSuffix(presets map[camera.Preset]camera.StreamMode, mode camera.StreamMode) string {
	var names []string
	for _, p := range []camera.Preset{camera.PresetBestQuality, camera.PresetLargestImage, camera.PresetHighestFramerate} {
		if m, ok := presets[p]; ok && m == mode {
			names = append(names, string(p))
		}
	}
	if len(names) == 0 {
		return ""
	}
	return "  (" + strings.Join(names, ", ") + ")"
}
