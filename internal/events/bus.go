package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers of its concrete type.
// Usage: bus.Publish(DeviceStateChangedEvent{...})
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case DeviceDiscoveredEvent:
		event.Publish(b.dispatcher, e)
	case DeviceRemovedEvent:
		event.Publish(b.dispatcher, e)
	case StreamEnabledEvent:
		event.Publish(b.dispatcher, e)
	case StreamDisabledEvent:
		event.Publish(b.dispatcher, e)
	case DeviceStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case OptionChangedEvent:
		event.Publish(b.dispatcher, e)
	case OperationFailedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers a handler; the handler's parameter type selects the
// events it receives. Returns an unsubscribe function, or a no-op for
// unrecognised handler types.
// Usage: unsub := bus.Subscribe(func(e OptionChangedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(DeviceDiscoveredEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DeviceRemovedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(StreamEnabledEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(StreamDisabledEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DeviceStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(OptionChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(OperationFailedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
