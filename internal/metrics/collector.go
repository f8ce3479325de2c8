package metrics

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/smazurov/depthnode/internal/events"
)

// Collector subscribes to engine events and keeps the camera metrics current.
type Collector struct {
	eventBus      *events.Bus
	logger        *slog.Logger
	mu            sync.Mutex
	unsubscribers []func()

	streamsMu sync.Mutex
	streams   map[string]struct{}
}

// NewCollector creates a collector fed from eventBus.
func NewCollector(eventBus *events.Bus, logger *slog.Logger) *Collector {
	return &Collector{
		eventBus: eventBus,
		logger:   logger,
		streams:  make(map[string]struct{}),
	}
}

// Start begins listening for engine events.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubscribers != nil {
		return
	}
	c.unsubscribers = []func(){
		c.eventBus.Subscribe(func(e events.DeviceDiscoveredEvent) {
			DeviceAdded(e.Serial)
		}),
		c.eventBus.Subscribe(func(e events.DeviceRemovedEvent) {
			c.forgetDevice(e.Serial)
			DeviceRemoved(e.Serial)
		}),
		c.eventBus.Subscribe(func(e events.StreamEnabledEvent) {
			c.handleStreamEnabled(e)
		}),
		c.eventBus.Subscribe(func(e events.StreamDisabledEvent) {
			c.handleStreamDisabled(e)
		}),
		c.eventBus.Subscribe(func(e events.DeviceStateChangedEvent) {
			StateChanged(e.Serial, e.From, e.To)
		}),
		c.eventBus.Subscribe(func(e events.OptionChangedEvent) {
			OptionWritten(e.Serial, e.Option, e.Value)
		}),
		c.eventBus.Subscribe(func(e events.OperationFailedEvent) {
			OperationFailed(e.Serial, e.Operation, e.Kind)
		}),
	}
	c.logger.Info("Metrics collector started")
}

// Stop unsubscribes from the event bus.
func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, unsub := range c.unsubscribers {
		unsub()
	}
	c.unsubscribers = nil
	c.logger.Info("Metrics collector stopped")
}

// handleStreamEnabled counts a stream once even when its mode is replaced.
func (c *Collector) handleStreamEnabled(e events.StreamEnabledEvent) {
	key := e.Serial + "/" + e.Stream
	c.streamsMu.Lock()
	_, replaced := c.streams[key]
	c.streams[key] = struct{}{}
	c.streamsMu.Unlock()

	if replaced {
		c.logger.Debug("Stream mode replaced", "serial", e.Serial, "stream", e.Stream, "mode", e.Mode)
		return
	}
	StreamsChanged(e.Serial, 1)
}

func (c *Collector) handleStreamDisabled(e events.StreamDisabledEvent) {
	key := e.Serial + "/" + e.Stream
	c.streamsMu.Lock()
	_, known := c.streams[key]
	delete(c.streams, key)
	c.streamsMu.Unlock()

	if known {
		StreamsChanged(e.Serial, -1)
	}
}

func (c *Collector) forgetDevice(serial string) {
	prefix := serial + "/"
	c.streamsMu.Lock()
	defer c.streamsMu.Unlock()
	for key := range c.streams {
		if strings.HasPrefix(key, prefix) {
			delete(c.streams, key)
		}
	}
}
