package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStateChangedTracksStreaming(t *testing.T) {
	serial := "9000000001"
	before := testutil.ToFloat64(cameraStreaming)

	DeviceAdded(serial)
	StateChanged(serial, "idle", "configured")
	StateChanged(serial, "configured", "streaming")

	if got := testutil.ToFloat64(cameraStreaming) - before; got != 1 {
		t.Errorf("streaming delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(cameraTransitions.WithLabelValues("configured", "streaming")); got < 1 {
		t.Errorf("configured->streaming transitions = %v", got)
	}

	m := GetDeviceMetrics(serial)
	if m == nil || m.State != "streaming" {
		t.Fatalf("cached metrics = %+v", m)
	}

	StateChanged(serial, "streaming", "configured")
	if got := testutil.ToFloat64(cameraStreaming) - before; got != 0 {
		t.Errorf("streaming delta after stop = %v, want 0", got)
	}
}

func TestOptionWrittenAndFailures(t *testing.T) {
	serial := "9000000002"
	DeviceAdded(serial)

	OptionWritten(serial, "r200_lr_gain", 800)
	OptionWritten(serial, "r200_lr_gain", 1200)
	OperationFailed(serial, "set_option", "NOT_READY")

	if got := testutil.ToFloat64(cameraOptionValue.WithLabelValues(serial, "r200_lr_gain")); got != 1200 {
		t.Errorf("option value = %v, want 1200", got)
	}
	if got := testutil.ToFloat64(cameraFailures.WithLabelValues("set_option", "NOT_READY")); got < 1 {
		t.Errorf("failures = %v", got)
	}

	m := GetDeviceMetrics(serial)
	if m.OptionWrites != 2 || m.Failures != 1 || m.LastFailure != "set_option: NOT_READY" {
		t.Errorf("cached metrics = %+v", m)
	}

	// returned value is a copy
	m.OptionWrites = 99
	if GetDeviceMetrics(serial).OptionWrites != 2 {
		t.Error("GetDeviceMetrics returned shared state")
	}
}

func TestDeviceRemovedDropsSeries(t *testing.T) {
	serial := "9000000003"
	before := testutil.ToFloat64(cameraStreaming)

	DeviceAdded(serial)
	StreamsChanged(serial, 1)
	StateChanged(serial, "configured", "streaming")
	DeviceRemoved(serial)

	if GetDeviceMetrics(serial) != nil {
		t.Error("cache entry survived removal")
	}
	if _, ok := GetAllDeviceMetrics()[serial]; ok {
		t.Error("GetAllDeviceMetrics still lists removed device")
	}
	if got := testutil.ToFloat64(cameraStreaming) - before; got != 0 {
		t.Errorf("streaming delta after removal = %v, want 0", got)
	}
}
