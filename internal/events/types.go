package events

// Event type constants for kelindar/event.
const (
	TypeDeviceDiscovered uint32 = iota + 1
	TypeDeviceRemoved
	TypeStreamEnabled
	TypeStreamDisabled
	TypeDeviceStateChanged
	TypeOptionChanged
	TypeOperationFailed
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// DeviceDiscoveredEvent is published the first time a serial is seen by a context.
type DeviceDiscoveredEvent struct {
	ContextID string `json:"context_id"`
	Serial    string `json:"serial" example:"2351406921"`
	Name      string `json:"name" example:"Intel RealSense R200"`
	Model     string `json:"model" example:"r200"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z"`
}

// Type returns the event type identifier for DeviceDiscoveredEvent.
func (e DeviceDiscoveredEvent) Type() uint32 { return TypeDeviceDiscovered }

// DeviceRemovedEvent is published when a known serial disappears from enumeration.
type DeviceRemovedEvent struct {
	ContextID string `json:"context_id"`
	Serial    string `json:"serial"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for DeviceRemovedEvent.
func (e DeviceRemovedEvent) Type() uint32 { return TypeDeviceRemoved }

// StreamEnabledEvent is published when a stream mode is committed to a device configuration.
type StreamEnabledEvent struct {
	Serial    string `json:"serial"`
	Stream    string `json:"stream" example:"depth"`
	Mode      string `json:"mode" example:"480x360/z16@60"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for StreamEnabledEvent.
func (e StreamEnabledEvent) Type() uint32 { return TypeStreamEnabled }

// StreamDisabledEvent is published when a stream is removed from a device configuration.
type StreamDisabledEvent struct {
	Serial    string `json:"serial"`
	Stream    string `json:"stream"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for StreamDisabledEvent.
func (e StreamDisabledEvent) Type() uint32 { return TypeStreamDisabled }

// DeviceStateChangedEvent is published on every lifecycle transition.
type DeviceStateChangedEvent struct {
	Serial    string `json:"serial"`
	From      string `json:"from" example:"configured"`
	To        string `json:"to" example:"streaming"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for DeviceStateChangedEvent.
func (e DeviceStateChangedEvent) Type() uint32 { return TypeDeviceStateChanged }

// OptionChangedEvent is published after an option write has been accepted.
type OptionChangedEvent struct {
	Serial    string  `json:"serial"`
	Option    string  `json:"option" example:"r200_lr_gain"`
	Value     float64 `json:"value"`
	Timestamp string  `json:"timestamp"`
}

// Type returns the event type identifier for OptionChangedEvent.
func (e OptionChangedEvent) Type() uint32 { return TypeOptionChanged }

// OperationFailedEvent is published whenever a device operation returns an error.
type OperationFailedEvent struct {
	Serial    string `json:"serial"`
	Operation string `json:"operation" example:"set_option"`
	Kind      string `json:"kind" example:"NOT_READY"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for OperationFailedEvent.
func (e OperationFailedEvent) Type() uint32 { return TypeOperationFailed }

// LogEntryEvent carries one buffered log line to streaming clients.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp"`
	Level      string         `json:"level" example:"info"`
	Module     string         `json:"module" example:"camera"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
