package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/depthnode/internal/api/models"
	"github.com/smazurov/depthnode/internal/camera"
)

// OptionInput addresses one option of a device.
type OptionInput struct {
	SerialInput
	Option string `path:"option" example:"r200_lr_gain" doc:"Option name"`
}

// SetOptionInput carries the value to write.
type SetOptionInput struct {
	OptionInput
	Body models.SetOptionBody
}

// ListOptionsInput filters the option list.
type ListOptionsInput struct {
	SerialInput
	Supported bool `query:"supported" doc:"Only list options the device supports"`
}

func (s *Server) registerOptionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-options",
		Method:      http.MethodGet,
		Path:        "/api/devices/{serial}/options",
		Summary:     "List Options",
		Description: "List every option with its support flag, and domain and default where supported",
		Tags:        []string{"options"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, input *ListOptionsInput) (*models.OptionListResponse, error) {
		dev, _, err := s.lookupDevice(input.Serial)
		if err != nil {
			return nil, err
		}

		all := camera.AllOptions()
		options := make([]models.OptionData, 0, len(all))
		for _, o := range all {
			data := models.OptionData{Name: o.String()}
			if spec, specErr := dev.OptionSpec(o); specErr == nil {
				def := spec.Default
				data.Supported = true
				data.Domain = models.NewDomainData(spec.Domain)
				data.Default = &def
				data.Live = spec.Live
			} else if input.Supported {
				continue
			}
			options = append(options, data)
		}
		return &models.OptionListResponse{
			Body: models.OptionListData{Serial: dev.Serial(), Options: options},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-option",
		Method:      http.MethodGet,
		Path:        "/api/devices/{serial}/options/{option}",
		Summary:     "Get Option",
		Description: "Read the current value of an option",
		Tags:        []string{"options"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 404, 409, 422, 502},
	}, func(ctx context.Context, input *OptionInput) (*models.OptionValueResponse, error) {
		dev, o, err := s.lookupOption(input)
		if err != nil {
			return nil, err
		}
		value, err := dev.GetOption(ctx, o)
		if err != nil {
			return nil, mapCameraError(err)
		}
		return optionValue(dev, o, value), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-option",
		Method:      http.MethodPut,
		Path:        "/api/devices/{serial}/options/{option}",
		Summary:     "Set Option",
		Description: "Write an option value. Reads reflect the write once the settle interval after start has elapsed.",
		Tags:        []string{"options"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 404, 409, 422, 502},
	}, func(ctx context.Context, input *SetOptionInput) (*models.OptionValueResponse, error) {
		dev, o, err := s.lookupOption(&input.OptionInput)
		if err != nil {
			return nil, err
		}
		if err := dev.SetOption(ctx, o, input.Body.Value); err != nil {
			return nil, mapCameraError(err)
		}
		return optionValue(dev, o, input.Body.Value), nil
	})
}

func (s *Server) lookupOption(input *OptionInput) (*camera.Device, camera.Option, error) {
	o, err := camera.ParseOption(input.Option)
	if err != nil {
		return nil, 0, huma.Error400BadRequest("invalid option", err)
	}
	dev, _, err := s.lookupDevice(input.Serial)
	if err != nil {
		return nil, 0, err
	}
	return dev, o, nil
}

func optionValue(dev *camera.Device, o camera.Option, value float64) *models.OptionValueResponse {
	return &models.OptionValueResponse{
		Body: models.OptionValueData{
			Serial: dev.Serial(),
			Option: o.String(),
			Value:  value,
		},
	}
}
