// Package metrics provides Prometheus metrics for camera sessions.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cameraDevices = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "depthnode",
		Subsystem: "camera",
		Name:      "devices",
		Help:      "Number of enumerated devices",
	})

	cameraStreaming = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "depthnode",
		Subsystem: "camera",
		Name:      "streaming_devices",
		Help:      "Number of devices currently streaming",
	})

	cameraEnabledStreams = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "depthnode",
		Subsystem: "camera",
		Name:      "enabled_streams",
		Help:      "Streams in the committed configuration of a device",
	}, []string{"serial"})

	cameraTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "depthnode",
		Subsystem: "camera",
		Name:      "state_transitions_total",
		Help:      "Lifecycle transitions by source and target state",
	}, []string{"from", "to"})

	cameraOptionWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "depthnode",
		Subsystem: "camera",
		Name:      "option_writes_total",
		Help:      "Accepted option writes",
	}, []string{"option"})

	cameraOptionValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "depthnode",
		Subsystem: "camera",
		Name:      "option_value",
		Help:      "Last value written to an option",
	}, []string{"serial", "option"})

	cameraFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "depthnode",
		Subsystem: "camera",
		Name:      "failures_total",
		Help:      "Failed device operations by operation and error kind",
	}, []string{"operation", "kind"})

	// Local cache for API access.
	deviceCache   = make(map[string]*DeviceMetrics)
	deviceCacheMu sync.RWMutex
)

// DeviceMetrics holds current metric values for a device.
type DeviceMetrics struct {
	State          string  `json:"state" example:"streaming"`
	EnabledStreams int     `json:"enabled_streams"`
	OptionWrites   float64 `json:"option_writes"`
	Failures       float64 `json:"failures"`
	LastFailure    string  `json:"last_failure,omitempty"`
}

// DeviceAdded records a newly enumerated device.
func DeviceAdded(serial string) {
	cameraDevices.Inc()
	updateCache(serial, func(m *DeviceMetrics) {
		if m.State == "" {
			m.State = "idle"
		}
	})
}

// DeviceRemoved drops all per-device series.
func DeviceRemoved(serial string) {
	cameraDevices.Dec()
	cameraEnabledStreams.DeleteLabelValues(serial)
	cameraOptionValue.DeletePartialMatch(prometheus.Labels{"serial": serial})

	deviceCacheMu.Lock()
	if m, ok := deviceCache[serial]; ok && m.State == "streaming" {
		cameraStreaming.Dec()
	}
	delete(deviceCache, serial)
	deviceCacheMu.Unlock()
}

// StateChanged records a lifecycle transition.
func StateChanged(serial, from, to string) {
	cameraTransitions.WithLabelValues(from, to).Inc()
	if to == "streaming" {
		cameraStreaming.Inc()
	} else if from == "streaming" {
		cameraStreaming.Dec()
	}
	updateCache(serial, func(m *DeviceMetrics) { m.State = to })
}

// StreamsChanged records the size of a device's stream configuration.
func StreamsChanged(serial string, delta int) {
	var count int
	updateCache(serial, func(m *DeviceMetrics) {
		m.EnabledStreams += delta
		if m.EnabledStreams < 0 {
			m.EnabledStreams = 0
		}
		count = m.EnabledStreams
	})
	cameraEnabledStreams.WithLabelValues(serial).Set(float64(count))
}

// OptionWritten records an accepted option write.
func OptionWritten(serial, option string, value float64) {
	cameraOptionWrites.WithLabelValues(option).Inc()
	cameraOptionValue.WithLabelValues(serial, option).Set(value)
	updateCache(serial, func(m *DeviceMetrics) { m.OptionWrites++ })
}

// OperationFailed records a failed device operation.
func OperationFailed(serial, operation, kind string) {
	cameraFailures.WithLabelValues(operation, kind).Inc()
	if serial == "" {
		return
	}
	updateCache(serial, func(m *DeviceMetrics) {
		m.Failures++
		m.LastFailure = operation + ": " + kind
	})
}

// GetDeviceMetrics returns current metric values for a device.
func GetDeviceMetrics(serial string) *DeviceMetrics {
	deviceCacheMu.RLock()
	defer deviceCacheMu.RUnlock()
	if m, ok := deviceCache[serial]; ok {
		dup := *m
		return &dup
	}
	return nil
}

// GetAllDeviceMetrics returns metrics for all known devices.
func GetAllDeviceMetrics() map[string]*DeviceMetrics {
	deviceCacheMu.RLock()
	defer deviceCacheMu.RUnlock()
	result := make(map[string]*DeviceMetrics, len(deviceCache))
	for serial, m := range deviceCache {
		dup := *m
		result[serial] = &dup
	}
	return result
}

func updateCache(serial string, update func(*DeviceMetrics)) {
	deviceCacheMu.Lock()
	defer deviceCacheMu.Unlock()
	m, ok := deviceCache[serial]
	if !ok {
		m = &DeviceMetrics{}
		deviceCache[serial] = m
	}
	update(m)
}
