package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/smazurov/depthnode/cmd"
	"github.com/smazurov/depthnode/internal/api"
	"github.com/smazurov/depthnode/internal/camera"
	"github.com/smazurov/depthnode/internal/catalog"
	"github.com/smazurov/depthnode/internal/config"
	"github.com/smazurov/depthnode/internal/conformance"
	"github.com/smazurov/depthnode/internal/events"
	"github.com/smazurov/depthnode/internal/logging"
	"github.com/smazurov/depthnode/internal/metrics"
	"github.com/smazurov/depthnode/internal/monitoring"
	"github.com/smazurov/depthnode/internal/simulator"
	"github.com/smazurov/depthnode/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Camera settings
	CameraSimDevices     string `help:"Simulated devices as model:serial[:baseline_mm], comma separated" default:"r200:2391004154,f200:1000000001" toml:"camera.sim_devices" env:"CAMERA_SIM_DEVICES"`
	CameraSettleInterval string `help:"Delay after start before option values read back" default:"1s" toml:"camera.settle_interval" env:"CAMERA_SETTLE_INTERVAL"`
	CameraCatalogFile    string `help:"Extra model catalog merged over the built-in one" default:"" toml:"camera.catalog_file" env:"CAMERA_CATALOG_FILE"`
	CameraRescanInterval string `help:"Interval between device re-enumerations (0 disables)" default:"5s" toml:"camera.rescan_interval" env:"CAMERA_RESCAN_INTERVAL"`

	// Probe settings
	ProbeParallelism int `help:"Devices probed at once (0 for no limit)" default:"0" toml:"probe.parallelism" env:"PROBE_PARALLELISM"`

	// Metrics settings
	MetricsPrometheusEnabled bool `help:"Serve Prometheus metrics at /metrics" default:"true" toml:"metrics.prometheus_enabled" env:"METRICS_PROMETHEUS_ENABLED"`

	// Logging settings
	LoggingLevel  string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Module levels come from the [logging] table of the same file
		loggingConfig := config.LoadLoggingConfig(opts.Config)
		loggingConfig.Level = opts.LoggingLevel
		loggingConfig.Format = opts.LoggingFormat
		logging.Initialize(loggingConfig)

		logger := logging.GetLogger("main")
		logger.Info("Starting depthnode", "version", version.String())

		settle, err := time.ParseDuration(opts.CameraSettleInterval)
		if err != nil || settle < 0 {
			logger.Warn("Invalid settle interval, using default", "value", opts.CameraSettleInterval, "default", camera.DefaultSettleInterval)
			settle = camera.DefaultSettleInterval
		}

		cat, err := catalog.Load(opts.CameraCatalogFile)
		if err != nil {
			logger.Error("Failed to load model catalog", "error", err)
			os.Exit(1)
		}

		specs, err := simulator.ParseDeviceSpecs(opts.CameraSimDevices)
		if err != nil {
			logger.Error("Invalid simulated device list", "error", err)
			os.Exit(1)
		}
		transport, err := simulator.New(cat, specs, simulator.WithSettleInterval(settle))
		if err != nil {
			logger.Error("Failed to create simulator", "error", err)
			os.Exit(1)
		}

		// Create event bus for in-process event handling
		eventBus := events.New()
		detachLogs := api.BridgeLogs(eventBus)

		collector := metrics.NewCollector(eventBus, logging.GetLogger("metrics"))

		session := camera.NewContext(transport, cat.Models,
			camera.WithPublisher(eventBus),
			camera.WithSettleInterval(settle))

		rescanInterval, err := time.ParseDuration(opts.CameraRescanInterval)
		if err != nil || rescanInterval < 0 {
			logger.Warn("Invalid rescan interval, polling disabled", "value", opts.CameraRescanInterval)
			rescanInterval = 0
		}
		rescanner := monitoring.NewRescanner(session, rescanInterval, logging.GetLogger("monitoring"))

		apiOpts := &api.Options{
			AuthUsername: opts.AuthUsername,
			AuthPassword: opts.AuthPassword,
			Session:      session,
			EventBus:     eventBus,
			Runner:       conformance.NewRunner(conformance.WithParallelism(opts.ProbeParallelism)),
		}
		if opts.MetricsPrometheusEnabled {
			apiOpts.PrometheusHandler = promhttp.Handler()
		}
		server := api.NewServer(apiOpts)

		// Logging levels follow the config file without a restart
		watcher := config.NewConfigWatcher(opts.Config, config.ReadLoggingConfig, logging.GetLogger("config"))
		watcher.OnReload(func(cfg logging.Config) {
			logging.SetLevels(cfg)
			logger.Info("Logging levels reloaded", "level", cfg.Level)
		})

		hangup := make(chan os.Signal, 1)

		hooks.OnStart(func() {
			// Collector must be subscribed before discovery publishes
			collector.Start()

			if count, countErr := session.Count(context.Background()); countErr != nil {
				logger.Warn("Initial enumeration failed", "error", countErr)
			} else {
				logger.Info("Devices enumerated", "count", count)
			}

			rescanner.Start()

			if startErr := watcher.Start(); startErr != nil {
				logger.Warn("Failed to start config watcher, hot-reload disabled", "error", startErr)
			}
			signal.Notify(hangup, syscall.SIGHUP)
			go func() {
				for range hangup {
					logger.Info("SIGHUP received, reloading config")
					watcher.Reload()
				}
			}()

			ln, listenErr := net.Listen("tcp", opts.Port)
			if listenErr != nil {
				logger.Error("Failed to listen", "port", opts.Port, "error", listenErr)
				os.Exit(1)
			}
			if _, notifyErr := daemon.SdNotify(false, daemon.SdNotifyReady); notifyErr != nil {
				logger.Debug("sd_notify failed", "error", notifyErr)
			}
			if serveErr := server.Serve(ln); serveErr != nil {
				logger.Error("Failed to start HTTP server", "error", serveErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if stopErr := server.Stop(ctx); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			rescanner.Stop()

			// Stop streaming devices after the API stops accepting requests
			if stopErr := session.StopAll(ctx); stopErr != nil {
				logger.Error("Error stopping devices", "error", stopErr)
			}

			signal.Stop(hangup)
			close(hangup)
			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping config watcher", "error", stopErr)
			}
			collector.Stop()
			detachLogs()
		})
	})

	cli.Root().Use = "depthnode"
	cli.Root().Version = version.String()

	for _, sub := range []*cobra.Command{
		cmd.CreateDevicesCmd(),
		cmd.CreateModesCmd(),
		cmd.CreateDescribeCmd(),
		cmd.CreateProbeCmd(),
	} {
		cli.Root().AddCommand(sub)
	}

	// Run the CLI
	cli.Run()
}
