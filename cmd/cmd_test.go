package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--settle", "5ms"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDevicesCmd(t *testing.T) {
	out, err := run(t, CreateDevicesCmd(), "--format", "json")
	if err != nil {
		t.Fatalf("devices: %v", err)
	}
	var list deviceList
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("unmarshal %q: %v", out, err)
	}
	if len(list.Devices) != 2 {
		t.Fatalf("got %d devices, want 2", len(list.Devices))
	}
	if list.Devices[0].Serial != "2391004154" || list.Devices[1].Model != "f200" {
		t.Errorf("devices = %+v", list.Devices)
	}

	out, err = run(t, CreateDevicesCmd(), "--sim-devices", "")
	if err != nil {
		t.Fatalf("devices with none: %v", err)
	}
	if !strings.Contains(out, "No devices found") {
		t.Errorf("output = %q", out)
	}

	if _, err := run(t, CreateDevicesCmd(), "--sim-devices", "x200:1"); err == nil {
		t.Error("bad device spec accepted")
	}
}

func TestModesCmd(t *testing.T) {
	out, err := run(t, CreateModesCmd(), "2391004154", "depth")
	if err != nil {
		t.Fatalf("modes: %v", err)
	}
	if !strings.HasPrefix(out, "depth:\n") {
		t.Errorf("missing header: %q", out)
	}
	if !strings.Contains(out, "480x360/z16@60  (best_quality)") {
		t.Errorf("preset not marked: %q", out)
	}

	out, err = run(t, CreateModesCmd(), "1000000001")
	if err != nil {
		t.Fatalf("modes all: %v", err)
	}
	if strings.Contains(out, "infrared2:") {
		t.Errorf("f200 lists infrared2: %q", out)
	}

	if _, err := run(t, CreateModesCmd(), "2391004154", "sonar"); err == nil {
		t.Error("unknown stream accepted")
	}
	if _, err := run(t, CreateModesCmd(), "0000000000"); err == nil {
		t.Error("unknown serial accepted")
	}
}

func checkDescription(t *testing.T, doc describeDocument) {
	t.Helper()
	if len(doc.Devices) != 1 {
		t.Fatalf("got %d devices, want 1", len(doc.Devices))
	}
	dev := doc.Devices[0]
	if dev.Serial != "2391004154" || dev.Model != "r200" || dev.DepthScale != 0.001 {
		t.Errorf("identity = %+v", dev)
	}
	if dev.Streams["depth"].Presets["best_quality"] != "480x360/z16@60" {
		t.Errorf("depth stream = %+v", dev.Streams["depth"])
	}
	if _, ok := dev.Streams["rectified_color"]; ok {
		t.Error("derived stream listed with modes")
	}

	found := false
	for _, e := range dev.Extrinsics {
		if e.To == "infrared2" {
			found = true
			if math.Abs(float64(e.Translation[0])+0.07) > 1e-6 {
				t.Errorf("baseline = %v", e.Translation)
			}
		}
	}
	if !found {
		t.Error("depth to infrared2 extrinsics missing")
	}

	for _, o := range dev.Options {
		if o.Name == "r200_lr_gain" {
			if o.Domain.Min != 100 || o.Domain.Max != 1600 || o.Default != 400 || !o.Live {
				t.Errorf("r200_lr_gain = %+v", o)
			}
			return
		}
	}
	t.Error("r200_lr_gain missing")
}

func TestDescribeCmdFormats(t *testing.T) {
	tests := []struct {
		format    string
		unmarshal func([]byte, any) error
	}{
		{"json", json.Unmarshal},
		{"yaml", yaml.Unmarshal},
		{"toml", toml.Unmarshal},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out, err := run(t, CreateDescribeCmd(), "2391004154", "--format", tt.format)
			if err != nil {
				t.Fatalf("describe: %v", err)
			}
			var doc describeDocument
			if err := tt.unmarshal([]byte(out), &doc); err != nil {
				t.Fatalf("unmarshal: %v\n%s", err, out)
			}
			checkDescription(t, doc)
		})
	}

	if _, err := run(t, CreateDescribeCmd(), "--format", "xml"); err == nil {
		t.Error("unknown format accepted")
	}
	if _, err := run(t, CreateDescribeCmd(), "9999999999"); err == nil {
		t.Error("unknown serial accepted")
	}
}

func TestProbeCmd(t *testing.T) {
	out, err := run(t, CreateProbeCmd())
	if err != nil {
		t.Fatalf("probe: %v\n%s", err, out)
	}
	if !strings.Contains(out, "2391004154 (r200") || !strings.Contains(out, "PASS device_name") {
		t.Errorf("output = %q", out)
	}

	out, err = run(t, CreateProbeCmd(), "--sim-devices", "r200:2391004154:90",
		"--checks", "extrinsics_depth_infrared2", "--format", "json")
	if !errors.Is(err, ErrProbeFailed) {
		t.Fatalf("err = %v, want ErrProbeFailed", err)
	}
	var doc probeDocument
	if err := json.Unmarshal([]byte(out[:strings.LastIndex(out, "}")+1]), &doc); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out)
	}
	if doc.Passed || len(doc.Reports) != 1 || doc.Reports[0].Results[0].Status != "fail" {
		t.Errorf("probe doc = %+v", doc)
	}

	out, err = run(t, CreateProbeCmd(), "--list")
	if err != nil || !strings.Contains(out, "option_round_trip") {
		t.Errorf("list = %q, %v", out, err)
	}

	if _, err := run(t, CreateProbeCmd(), "--checks", "warp_drive"); err == nil {
		t.Error("unknown check accepted")
	}
}
