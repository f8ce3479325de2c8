package events

import "github.com/kelindar/event"

// SubscribeToChannel forwards events of type T to ch. Delivery never blocks
// the publisher: when ch is full the event is dropped.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}

// SubscribeAllToChannel forwards every engine event type (log entries
// excluded) to ch and returns a
// single function that removes all subscriptions.
func SubscribeAllToChannel(bus *Bus, ch chan<- any) func() {
	unsubscribers := []func(){
		SubscribeToChannel[DeviceDiscoveredEvent](bus, ch),
		SubscribeToChannel[DeviceRemovedEvent](bus, ch),
		SubscribeToChannel[StreamEnabledEvent](bus, ch),
		SubscribeToChannel[StreamDisabledEvent](bus, ch),
		SubscribeToChannel[DeviceStateChangedEvent](bus, ch),
		SubscribeToChannel[OptionChangedEvent](bus, ch),
		SubscribeToChannel[OperationFailedEvent](bus, ch),
	}
	return func() {
		for _, unsub := range unsubscribers {
			unsub()
		}
	}
}
