// Package monitoring keeps the device list current by re-enumerating on an
// interval or on demand. Removals and re-appearances are published by the
// device context itself.
package monitoring

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Enumerator re-enumerates devices and returns how many are present.
type Enumerator interface {
	Count(ctx context.Context) (int, error)
}

// Rescanner polls an Enumerator for device changes.
type Rescanner struct {
	enumerator Enumerator
	interval   time.Duration
	logger     *slog.Logger

	trigger chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	last    int
}

// NewRescanner creates a rescanner. An interval of zero disables polling;
// Trigger still works.
func NewRescanner(enumerator Enumerator, interval time.Duration, logger *slog.Logger) *Rescanner {
	return &Rescanner{
		enumerator: enumerator,
		interval:   interval,
		logger:     logger,
		trigger:    make(chan struct{}, 1),
		last:       -1,
	}
}

// Start begins monitoring for device changes.
func (r *Rescanner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	var tick <-chan time.Time
	if r.interval > 0 {
		ticker := time.NewTicker(r.interval)
		tick = ticker.C
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			<-ctx.Done()
			ticker.Stop()
		}()
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.logger.Debug("Device rescan started", "interval", r.interval)
		for {
			select {
			case <-ctx.Done():
				r.logger.Debug("Device rescan stopped")
				return
			case <-tick:
				r.scan(ctx)
			case <-r.trigger:
				r.scan(ctx)
			}
		}
	}()
}

// Trigger requests an immediate rescan. Requests made while one is pending
// are coalesced.
func (r *Rescanner) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Stop stops the rescanner and waits for an in-flight scan to finish.
func (r *Rescanner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

// LastCount returns the device count seen by the most recent successful
// scan, or -1 before the first one.
func (r *Rescanner) LastCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *Rescanner) scan(ctx context.Context) {
	n, err := r.enumerator.Count(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Warn("Device rescan failed", "error", err)
		}
		return
	}

	r.mu.Lock()
	prev := r.last
	r.last = n
	r.mu.Unlock()

	if prev != n {
		r.logger.Info("Device count changed", "previous", prev, "current", n)
	}
}
