package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

type testOptions struct {
	Config string `help:"Config file path"`

	Port           int           `toml:"server.port" env:"PORT"`
	Devices        []string      `toml:"simulator.devices" env:"SIM_DEVICES"`
	SettleInterval time.Duration `toml:"simulator.settle_interval" env:"SETTLE_INTERVAL"`
	Tolerance      float64       `toml:"probe.baseline_tolerance" env:"BASELINE_TOLERANCE"`
	Metrics        bool          `toml:"metrics.enabled" env:"METRICS_ENABLED"`
	CatalogFile    string        `toml:"catalog.file" env:"CATALOG_FILE"`
}

const sampleTOML = `
[server]
port = 8091

[simulator]
devices = ["r200:2391004154", "f200:1000000001"]
settle_interval = "250ms"

[probe]
baseline_tolerance = 0.01

[metrics]
enabled = true

[catalog]
file = "/etc/depthnode/models.toml"
`

func tempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "depthnode.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigFromTOML(t *testing.T) {
	opts := &testOptions{Config: tempConfig(t, sampleTOML)}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	want := testOptions{
		Config:         opts.Config,
		Port:           8091,
		Devices:        []string{"r200:2391004154", "f200:1000000001"},
		SettleInterval: 250 * time.Millisecond,
		Tolerance:      0.01,
		Metrics:        true,
		CatalogFile:    "/etc/depthnode/models.toml",
	}
	if !reflect.DeepEqual(*opts, want) {
		t.Errorf("got %+v\nwant %+v", *opts, want)
	}
}

func TestLoadConfigFromEnvVars(t *testing.T) {
	t.Setenv("DEPTHNODE_PORT", "9000")
	t.Setenv("DEPTHNODE_SIM_DEVICES", "r200:2391004154:70, r200:2391004155")
	t.Setenv("DEPTHNODE_SETTLE_INTERVAL", "1s")
	t.Setenv("DEPTHNODE_BASELINE_TOLERANCE", "0.005")
	t.Setenv("DEPTHNODE_METRICS_ENABLED", "false")

	opts := &testOptions{Metrics: true}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.Port != 9000 {
		t.Errorf("Port = %d", opts.Port)
	}
	if !reflect.DeepEqual(opts.Devices, []string{"r200:2391004154:70", "r200:2391004155"}) {
		t.Errorf("Devices = %v", opts.Devices)
	}
	if opts.SettleInterval != time.Second {
		t.Errorf("SettleInterval = %v", opts.SettleInterval)
	}
	if opts.Tolerance != 0.005 {
		t.Errorf("Tolerance = %v", opts.Tolerance)
	}
	if opts.Metrics {
		t.Error("Metrics should be disabled by env")
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	t.Setenv("DEPTHNODE_PORT", "9100")

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("catalog-file", "", "")
	cmd.Flags().Int("port", 0, "")
	if err := cmd.Flags().Set("catalog-file", "/tmp/cli.toml"); err != nil {
		t.Fatal(err)
	}

	opts := &testOptions{Config: tempConfig(t, sampleTOML), CatalogFile: "/tmp/cli.toml"}
	if err := LoadConfig(opts, cmd); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.CatalogFile != "/tmp/cli.toml" {
		t.Errorf("CLI flag overwritten: %q", opts.CatalogFile)
	}
	if opts.Port != 9100 {
		t.Errorf("env should override file: Port = %d", opts.Port)
	}
	if opts.SettleInterval != 250*time.Millisecond {
		t.Errorf("file value lost: %v", opts.SettleInterval)
	}
}

func TestLoadConfigDurationMilliseconds(t *testing.T) {
	opts := &testOptions{Config: tempConfig(t, "[simulator]\nsettle_interval = 750\n")}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if opts.SettleInterval != 750*time.Millisecond {
		t.Errorf("SettleInterval = %v, want 750ms", opts.SettleInterval)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		toml string
		env  map[string]string
	}{
		{"string port", "[server]\nport = \"eighty\"\n", nil},
		{"bad duration", "[simulator]\nsettle_interval = \"soon\"\n", nil},
		{"mixed list", "[simulator]\ndevices = [\"r200:1\", 2]\n", nil},
		{"invalid toml", "[server\nport = 1\n", nil},
		{"bad env int", "", map[string]string{"DEPTHNODE_PORT": "x"}},
		{"bad env duration", "", map[string]string{"DEPTHNODE_SETTLE_INTERVAL": "5 parsecs"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			opts := &testOptions{}
			if tt.toml != "" {
				opts.Config = tempConfig(t, tt.toml)
			}
			if err := LoadConfig(opts, nil); err == nil {
				t.Error("LoadConfig should fail")
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	opts := &testOptions{Config: filepath.Join(t.TempDir(), "absent.toml"), Port: 8090}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig should not fail for missing file: %v", err)
	}
	if opts.Port != 8090 {
		t.Errorf("default overwritten: %d", opts.Port)
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"server": map[string]any{"port": int64(8090)},
		"flat":   "x",
	}
	if got := getNestedValue(data, "server.port"); got != int64(8090) {
		t.Errorf("server.port = %v", got)
	}
	if got := getNestedValue(data, "flat.inner"); got != nil {
		t.Errorf("flat.inner = %v, want nil", got)
	}
	if got := getNestedValue(data, "missing.key"); got != nil {
		t.Errorf("missing.key = %v, want nil", got)
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := map[string]string{
		"Port":           "port",
		"SettleInterval": "settle-interval",
		"CatalogFile":    "catalog-file",
	}
	for in, want := range tests {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReadLoggingConfig(t *testing.T) {
	path := tempConfig(t, `
[logging]
level = "warn"
format = "json"
buffer_size = 250
camera = "debug"

[logging.modules]
api = "error"
`)

	cfg, err := ReadLoggingConfig(path)
	if err != nil {
		t.Fatalf("ReadLoggingConfig: %v", err)
	}
	if cfg.Level != "warn" || cfg.Format != "json" || cfg.BufferSize != 250 {
		t.Errorf("cfg = %+v", cfg)
	}
	want := map[string]string{"camera": "debug", "api": "error"}
	if !reflect.DeepEqual(cfg.Modules, want) {
		t.Errorf("Modules = %v, want %v", cfg.Modules, want)
	}
}

func TestLoadLoggingConfigFallsBack(t *testing.T) {
	for name, content := range map[string]string{
		"bad level":  "[logging]\nsimulator = \"verbose\"\n",
		"bad syntax": "[logging\n",
	} {
		t.Run(name, func(t *testing.T) {
			cfg := LoadLoggingConfig(tempConfig(t, content))
			if cfg.Level != "info" || cfg.Format != "text" || len(cfg.Modules) != 0 {
				t.Errorf("expected defaults, got %+v", cfg)
			}
		})
	}

	if cfg := LoadLoggingConfig(""); cfg.Level != "info" {
		t.Errorf("empty path: %+v", cfg)
	}
}
