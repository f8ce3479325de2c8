package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/depthnode/internal/api/models"
	"github.com/smazurov/depthnode/internal/camera"
)

// StreamInput addresses one stream of a device.
type StreamInput struct {
	SerialInput
	Stream string `path:"stream" example:"depth" doc:"Stream kind"`
}

// EnableStreamInput carries the mode or preset to commit.
type EnableStreamInput struct {
	StreamInput
	Body models.EnableStreamBody
}

func (s *Server) registerStreamRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-stream-modes",
		Method:      http.MethodGet,
		Path:        "/api/devices/{serial}/streams/{stream}",
		Summary:     "Stream Modes",
		Description: "List the supported modes and presets of a stream and its committed mode",
		Tags:        []string{"streams"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 404},
	}, func(_ context.Context, input *StreamInput) (*models.StreamModesResponse, error) {
		dev, kind, err := s.lookupStream(input)
		if err != nil {
			return nil, err
		}

		modes := dev.StreamModes(kind)
		data := models.StreamModesData{
			Serial: dev.Serial(),
			Stream: string(kind),
			Modes:  make([]string, len(modes)),
		}
		for i, m := range modes {
			data.Modes[i] = m.String()
		}
		if presets := dev.Presets(kind); len(presets) > 0 {
			data.Presets = make(map[string]string, len(presets))
			for p, m := range presets {
				data.Presets[string(p)] = m.String()
			}
		}
		if mode, ok := dev.StreamConfig(kind); ok {
			data.Enabled = mode.String()
		}
		return &models.StreamModesResponse{Body: data}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "enable-stream",
		Method:      http.MethodPut,
		Path:        "/api/devices/{serial}/streams/{stream}",
		Summary:     "Enable Stream",
		Description: "Commit a mode for a stream, given explicitly or through a preset. Replaces any previous mode.",
		Tags:        []string{"streams"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 404, 409, 422},
	}, func(_ context.Context, input *EnableStreamInput) (*models.StreamConfigResponse, error) {
		dev, kind, err := s.lookupStream(&input.StreamInput)
		if err != nil {
			return nil, err
		}

		body := input.Body
		switch {
		case body.Mode != "" && body.Preset != "":
			return nil, huma.Error400BadRequest("mode and preset are mutually exclusive")
		case body.Mode != "":
			mode, parseErr := camera.ParseStreamMode(body.Mode)
			if parseErr != nil {
				return nil, huma.Error400BadRequest("invalid mode", parseErr)
			}
			err = dev.EnableStream(kind, mode)
		case body.Preset != "":
			preset, parseErr := camera.ParsePreset(body.Preset)
			if parseErr != nil {
				return nil, huma.Error400BadRequest("invalid preset", parseErr)
			}
			err = dev.EnableStreamPreset(kind, preset)
		default:
			return nil, huma.Error400BadRequest("mode or preset is required")
		}
		if err != nil {
			return nil, mapCameraError(err)
		}

		mode, _ := dev.StreamConfig(kind)
		return &models.StreamConfigResponse{
			Body: models.StreamConfigData{
				Serial: dev.Serial(),
				Stream: string(kind),
				Mode:   mode.String(),
				State:  string(dev.State()),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "disable-stream",
		Method:        http.MethodDelete,
		Path:          "/api/devices/{serial}/streams/{stream}",
		Summary:       "Disable Stream",
		Description:   "Remove a stream from the configuration",
		Tags:          []string{"streams"},
		Security:      withAuth(),
		Errors:        []int{400, 401, 404, 409},
		DefaultStatus: http.StatusOK,
	}, func(_ context.Context, input *StreamInput) (*models.ActionResponse, error) {
		dev, kind, err := s.lookupStream(input)
		if err != nil {
			return nil, err
		}
		if err := dev.DisableStream(kind); err != nil {
			return nil, mapCameraError(err)
		}
		return actionResponse(dev), nil
	})
}

func (s *Server) lookupStream(input *StreamInput) (*camera.Device, camera.StreamKind, error) {
	kind, err := camera.ParseStreamKind(input.Stream)
	if err != nil {
		return nil, "", huma.Error400BadRequest("invalid stream", err)
	}
	dev, _, err := s.lookupDevice(input.Serial)
	if err != nil {
		return nil, "", err
	}
	return dev, kind, nil
}
