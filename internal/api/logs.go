package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/depthnode/internal/events"
	"github.com/smazurov/depthnode/internal/logging"
)

// LogsInput filters buffered log entries.
type LogsInput struct {
	Module string `query:"module" example:"camera" doc:"Only entries from this module"`
	Level  string `query:"level" example:"warn" doc:"Minimum level"`
	Serial string `query:"serial" example:"2391004154" doc:"Only entries about this device"`
	Limit  int    `query:"limit" minimum:"0" maximum:"10000" doc:"Newest N entries; 0 returns all"`
}

// LogsResponse holds buffered log entries, oldest first.
type LogsResponse struct {
	Body struct {
		Entries []logging.LogEntry `json:"entries"`
		Count   int                `json:"count"`
	}
}

// LogLevelsResponse maps modules to their effective level.
type LogLevelsResponse struct {
	Body struct {
		Levels map[string]string `json:"levels"`
	}
}

// SetLogLevelInput changes the level of one module.
type SetLogLevelInput struct {
	Module string `path:"module" example:"camera"`
	Body   struct {
		Level string `json:"level" example:"debug" enum:"debug,info,warn,error"`
	}
}

// BridgeLogs publishes every buffered log entry on bus so that the log
// stream endpoint can forward it. Returns a function detaching the bridge.
func BridgeLogs(bus *events.Bus) func() {
	logging.SetLogCallback(func(entry logging.LogEntry) {
		bus.Publish(logEntryEvent(entry))
	})
	return func() { logging.SetLogCallback(nil) }
}

func logEntryEvent(entry logging.LogEntry) events.LogEntryEvent {
	return events.LogEntryEvent{
		Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
		Level:      entry.Level,
		Module:     entry.Module,
		Message:    entry.Message,
		Attributes: entry.Attributes,
	}
}

func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Logs",
		Description: "Buffered log entries, oldest first",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{400, 401},
	}, func(_ context.Context, input *LogsInput) (*LogsResponse, error) {
		if input.Level != "" && !logging.ValidLevel(input.Level) {
			return nil, huma.Error400BadRequest("unknown level " + input.Level)
		}
		resp := &LogsResponse{}
		resp.Body.Entries = []logging.LogEntry{}
		if buffer := logging.GetBuffer(); buffer != nil {
			resp.Body.Entries = buffer.Query(logging.Filter{
				Module:   input.Module,
				MinLevel: input.Level,
				Serial:   input.Serial,
				Limit:    input.Limit,
			})
		}
		resp.Body.Count = len(resp.Body.Entries)
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-log-levels",
		Method:      http.MethodGet,
		Path:        "/api/logs/levels",
		Summary:     "Log Levels",
		Description: "Effective level of every module logger",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*LogLevelsResponse, error) {
		resp := &LogLevelsResponse{}
		resp.Body.Levels = logging.ModuleLevels()
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-log-level",
		Method:      http.MethodPut,
		Path:        "/api/logs/levels/{module}",
		Summary:     "Set Log Level",
		Description: "Change the level of one module until the next config reload",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401, 422},
	}, func(_ context.Context, input *SetLogLevelInput) (*LogLevelsResponse, error) {
		if !logging.SetModuleLevel(input.Module, input.Body.Level) {
			return nil, huma.Error422UnprocessableEntity("unknown level " + input.Body.Level)
		}
		s.logger.Info("Log level changed", "target_module", input.Module, "level", input.Body.Level)
		resp := &LogLevelsResponse{}
		resp.Body.Levels = logging.ModuleLevels()
		return resp, nil
	})

	sse.Register(s.api, huma.Operation{
		OperationID: "logs-stream",
		Method:      http.MethodGet,
		Path:        "/api/logs/stream",
		Summary:     "Log Stream",
		Description: "Real-time log streaming via Server-Sent Events. Sends buffered logs first, then streams new logs.",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"message": events.LogEntryEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// subscribe before replaying so nothing falls between the two
		eventCh := make(chan any, 100)
		unsubscribe := events.SubscribeToChannel[events.LogEntryEvent](s.eventBus, eventCh)
		defer unsubscribe()

		if buffer := logging.GetBuffer(); buffer != nil {
			for _, entry := range buffer.ReadAll() {
				if err := send.Data(logEntryEvent(entry)); err != nil {
					return
				}
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
