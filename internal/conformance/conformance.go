// Package conformance runs behavioural checks against live device handles:
// identity, option partition, calibration geometry, stereo symmetry,
// streaming combinations and option round trips after the settle interval.
package conformance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/smazurov/depthnode/internal/camera"
	"github.com/smazurov/depthnode/internal/logging"
)

// Status is the outcome of one check.
type Status string

// Check outcomes.
const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// Result is the outcome of one check against one device.
type Result struct {
	Check    string        `json:"check" yaml:"check" toml:"check"`
	Status   Status        `json:"status" yaml:"status" toml:"status"`
	Message  string        `json:"message,omitempty" yaml:"message,omitempty" toml:"message,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration" toml:"duration"`
}

// Report collects the results of every check run against a device.
type Report struct {
	Serial  string   `json:"serial" yaml:"serial" toml:"serial"`
	Name    string   `json:"name" yaml:"name" toml:"name"`
	Model   string   `json:"model" yaml:"model" toml:"model"`
	Results []Result `json:"results" yaml:"results" toml:"results"`
}

// Passed reports whether no check failed.
func (r Report) Passed() bool {
	for _, res := range r.Results {
		if res.Status == StatusFail {
			return false
		}
	}
	return true
}

// Counts returns the number of passed, failed and skipped checks.
func (r Report) Counts() (pass, fail, skip int) {
	for _, res := range r.Results {
		switch res.Status {
		case StatusPass:
			pass++
		case StatusFail:
			fail++
		case StatusSkip:
			skip++
		}
	}
	return pass, fail, skip
}

// Check is a named probe. Run returns nil on success, a SkipError when the
// check does not apply to the device, or any other error on failure.
type Check struct {
	Name        string
	Description string
	Run         func(ctx context.Context, dev *camera.Device) error
}

// SkipError marks a check as not applicable.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string { return "skipped: " + e.Reason }

func skip(format string, args ...any) error {
	return &SkipError{Reason: fmt.Sprintf(format, args...)}
}

// Runner executes checks against devices.
type Runner struct {
	checks   []Check
	parallel int
	logger   *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithChecks replaces the default check list.
func WithChecks(checks ...Check) RunnerOption {
	return func(r *Runner) {
		r.checks = checks
	}
}

// WithParallelism bounds how many devices are probed at once. Zero or
// less means no bound.
func WithParallelism(n int) RunnerOption {
	return func(r *Runner) {
		r.parallel = n
	}
}

// NewRunner creates a runner with DefaultChecks.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		checks: DefaultChecks(),
		logger: logging.GetLogger("conformance"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Checks returns the configured checks.
func (r *Runner) Checks() []Check {
	return r.checks
}

// Run probes every device concurrently. Checks against one device run in
// order because they drive its session. The returned reports follow the
// order of devices.
func (r *Runner) Run(ctx context.Context, devices []*camera.Device) ([]Report, error) {
	reports := make([]Report, len(devices))
	g, gctx := errgroup.WithContext(ctx)
	if r.parallel > 0 {
		g.SetLimit(r.parallel)
	}
	for i, dev := range devices {
		g.Go(func() error {
			report, err := r.RunDevice(gctx, dev)
			reports[i] = report
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return reports, err
	}
	return reports, nil
}

// RunDevice runs every check against dev. The device must not be
// streaming. An error is returned only when ctx is cancelled.
func (r *Runner) RunDevice(ctx context.Context, dev *camera.Device) (Report, error) {
	report := Report{
		Serial: dev.Serial(),
		Name:   dev.Name(),
		Model:  string(dev.Model()),
	}
	logger := r.logger.With("serial", dev.Serial())

	if dev.IsStreaming() {
		return report, fmt.Errorf("device %s is streaming, stop it before probing", dev.Serial())
	}

	for _, check := range r.checks {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		start := time.Now()
		err := check.Run(ctx, dev)
		res := Result{Check: check.Name, Duration: time.Since(start)}

		var skipped *SkipError
		switch {
		case err == nil:
			res.Status = StatusPass
		case errors.As(err, &skipped):
			res.Status = StatusSkip
			res.Message = skipped.Reason
		default:
			res.Status = StatusFail
			res.Message = err.Error()
		}
		report.Results = append(report.Results, res)
		logger.Debug("Check finished", "check", check.Name, "status", res.Status, "duration", res.Duration)

		// leave the device in a clean state for the next check
		if cleanupErr := reset(ctx, dev); cleanupErr != nil {
			logger.Warn("Failed to reset device after check", "check", check.Name, "error", cleanupErr)
		}
	}

	pass, fail, skipped := report.Counts()
	logger.Info("Device probed", "passed", pass, "failed", fail, "skipped", skipped)
	return report, nil
}

// reset stops the device and disables every stream.
func reset(ctx context.Context, dev *camera.Device) error {
	if dev.IsStreaming() {
		if err := dev.Stop(ctx); err != nil {
			return err
		}
	}
	for _, kind := range dev.EnabledStreams() {
		if err := dev.DisableStream(kind); err != nil {
			return err
		}
	}
	return nil
}
