package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/depthnode/internal/events"
)

// registerSSERoutes registers the engine event stream.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of device discovery, stream configuration, lifecycle, option and failure events",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"device-discovered":    events.DeviceDiscoveredEvent{},
		"device-removed":       events.DeviceRemovedEvent{},
		"stream-enabled":       events.StreamEnabledEvent{},
		"stream-disabled":      events.StreamDisabledEvent{},
		"device-state-changed": events.DeviceStateChangedEvent{},
		"option-changed":       events.OptionChangedEvent{},
		"operation-failed":     events.OperationFailedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)
		unsubscribe := events.SubscribeAllToChannel(s.eventBus, eventCh)
		defer unsubscribe()

		// announce the current devices so late subscribers start with a full picture
		for _, dev := range s.session.Devices() {
			if err := send.Data(events.DeviceDiscoveredEvent{
				ContextID: s.session.ID(),
				Serial:    dev.Serial(),
				Name:      dev.Name(),
				Model:     string(dev.Model()),
			}); err != nil {
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
