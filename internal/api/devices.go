package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/depthnode/internal/api/models"
	"github.com/smazurov/depthnode/internal/camera"
)

// SerialInput addresses one device.
type SerialInput struct {
	Serial string `path:"serial" example:"2391004154" doc:"Device serial number"`
}

// ListDevicesInput controls re-enumeration.
type ListDevicesInput struct {
	Refresh bool `query:"refresh" doc:"Re-enumerate the transport before listing"`
}

func (s *Server) registerDeviceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-devices",
		Method:      http.MethodGet,
		Path:        "/api/devices",
		Summary:     "List Devices",
		Description: "List devices from the last enumeration, or re-enumerate with refresh=true",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 502},
	}, func(ctx context.Context, input *ListDevicesInput) (*models.DeviceListResponse, error) {
		if input.Refresh || len(s.session.Devices()) == 0 {
			if _, err := s.session.Count(ctx); err != nil {
				return nil, mapCameraError(err)
			}
		}

		devices := s.session.Devices()
		data := make([]models.DeviceData, len(devices))
		for i, dev := range devices {
			data[i] = deviceData(i, dev)
		}
		return &models.DeviceListResponse{
			Body: models.DeviceListData{
				ContextID: s.session.ID(),
				Devices:   data,
				Count:     len(data),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-device",
		Method:      http.MethodGet,
		Path:        "/api/devices/{serial}",
		Summary:     "Get Device",
		Description: "Get identity, session state and depth scale of one device",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, input *SerialInput) (*models.DeviceResponse, error) {
		dev, index, err := s.lookupDevice(input.Serial)
		if err != nil {
			return nil, err
		}
		return &models.DeviceResponse{Body: deviceData(index, dev)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "start-device",
		Method:      http.MethodPost,
		Path:        "/api/devices/{serial}/start",
		Summary:     "Start Streaming",
		Description: "Start streaming every enabled stream",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 409, 502},
	}, func(ctx context.Context, input *SerialInput) (*models.ActionResponse, error) {
		dev, _, err := s.lookupDevice(input.Serial)
		if err != nil {
			return nil, err
		}
		if err := dev.Start(ctx); err != nil {
			return nil, mapCameraError(err)
		}
		return actionResponse(dev), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-device",
		Method:      http.MethodPost,
		Path:        "/api/devices/{serial}/stop",
		Summary:     "Stop Streaming",
		Description: "Stop streaming; the stream configuration is kept",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 409, 502},
	}, func(ctx context.Context, input *SerialInput) (*models.ActionResponse, error) {
		dev, _, err := s.lookupDevice(input.Serial)
		if err != nil {
			return nil, err
		}
		if err := dev.Stop(ctx); err != nil {
			return nil, mapCameraError(err)
		}
		return actionResponse(dev), nil
	})
}

// lookupDevice resolves a serial against the last enumeration and returns
// the device with its index.
func (s *Server) lookupDevice(serial string) (*camera.Device, int, error) {
	dev, err := s.session.DeviceBySerial(serial)
	if err != nil {
		return nil, 0, mapCameraError(err)
	}
	for i, d := range s.session.Devices() {
		if d == dev {
			return dev, i, nil
		}
	}
	return dev, -1, nil
}

func deviceData(index int, dev *camera.Device) models.DeviceData {
	enabled := dev.EnabledStreams()
	streams := make([]string, len(enabled))
	for i, kind := range enabled {
		streams[i] = string(kind)
	}
	return models.DeviceData{
		Index:          index,
		Serial:         dev.Serial(),
		Name:           dev.Name(),
		Model:          string(dev.Model()),
		State:          string(dev.State()),
		EnabledStreams: streams,
		DepthScale:     dev.DepthScale(),
	}
}

func actionResponse(dev *camera.Device) *models.ActionResponse {
	return &models.ActionResponse{
		Body: models.ActionData{
			Serial: dev.Serial(),
			State:  string(dev.State()),
		},
	}
}
