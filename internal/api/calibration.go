package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/depthnode/internal/api/models"
	"github.com/smazurov/depthnode/internal/camera"
)

// ExtrinsicsInput names the stream pair.
type ExtrinsicsInput struct {
	SerialInput
	From string `query:"from" required:"true" example:"depth" doc:"Source stream"`
	To   string `query:"to" required:"true" example:"infrared2" doc:"Target stream"`
}

func (s *Server) registerCalibrationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-extrinsics",
		Method:      http.MethodGet,
		Path:        "/api/devices/{serial}/extrinsics",
		Summary:     "Extrinsics",
		Description: "Rigid transform from one stream's coordinate frame to another's",
		Tags:        []string{"calibration"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 404, 422},
	}, func(_ context.Context, input *ExtrinsicsInput) (*models.ExtrinsicsResponse, error) {
		from, err := camera.ParseStreamKind(input.From)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid from stream", err)
		}
		to, err := camera.ParseStreamKind(input.To)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid to stream", err)
		}
		dev, _, err := s.lookupDevice(input.Serial)
		if err != nil {
			return nil, err
		}

		e, err := dev.Extrinsics(from, to)
		if err != nil {
			return nil, mapCameraError(err)
		}
		return &models.ExtrinsicsResponse{
			Body: models.ExtrinsicsData{
				From:        string(from),
				To:          string(to),
				Rotation:    e.Rotation,
				Translation: e.Translation,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-intrinsics",
		Method:      http.MethodGet,
		Path:        "/api/devices/{serial}/streams/{stream}/intrinsics",
		Summary:     "Intrinsics",
		Description: "Projection parameters of an enabled stream at its committed mode",
		Tags:        []string{"calibration"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 404, 409},
	}, func(_ context.Context, input *StreamInput) (*models.IntrinsicsResponse, error) {
		dev, kind, err := s.lookupStream(input)
		if err != nil {
			return nil, err
		}
		in, err := dev.Intrinsics(kind)
		if err != nil {
			return nil, mapCameraError(err)
		}
		return &models.IntrinsicsResponse{
			Body: models.IntrinsicsData{
				Stream: string(kind),
				Width:  in.Width,
				Height: in.Height,
				PPX:    in.PPX,
				PPY:    in.PPY,
				FX:     in.FX,
				FY:     in.FY,
				Model:  string(in.Model),
				Coeffs: in.Coeffs,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-depth-scale",
		Method:      http.MethodGet,
		Path:        "/api/devices/{serial}/depth-scale",
		Summary:     "Depth Scale",
		Description: "Meters per depth unit",
		Tags:        []string{"calibration"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, input *SerialInput) (*models.DepthScaleResponse, error) {
		dev, _, err := s.lookupDevice(input.Serial)
		if err != nil {
			return nil, err
		}
		return &models.DepthScaleResponse{
			Body: models.DepthScaleData{Serial: dev.Serial(), DepthScale: dev.DepthScale()},
		}, nil
	})
}
