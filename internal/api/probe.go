package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/depthnode/internal/camera"
	"github.com/smazurov/depthnode/internal/conformance"
)

// ProbeBody selects checks. An empty list runs all of them.
type ProbeBody struct {
	Checks []string `json:"checks,omitempty" doc:"Check names to run"`
}

// ProbeInput probes every device.
type ProbeInput struct {
	Body ProbeBody `required:"false"`
}

// ProbeDeviceInput probes one device.
type ProbeDeviceInput struct {
	SerialInput
	Body ProbeBody `required:"false"`
}

// ProbeData holds one report per probed device.
type ProbeData struct {
	Passed  bool                 `json:"passed" doc:"True when no check failed on any device"`
	Reports []conformance.Report `json:"reports"`
}

// ProbeResponse is returned by the probe endpoints.
type ProbeResponse struct {
	Body ProbeData
}

// CheckData describes an available check.
type CheckData struct {
	Name        string `json:"name" example:"stereo_intrinsics"`
	Description string `json:"description"`
}

// ChecksResponse lists available checks.
type ChecksResponse struct {
	Body struct {
		Checks []CheckData `json:"checks"`
	}
}

func (s *Server) registerProbeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-checks",
		Method:      http.MethodGet,
		Path:        "/api/probe/checks",
		Summary:     "List Checks",
		Description: "List the conformance checks in run order",
		Tags:        []string{"probe"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*ChecksResponse, error) {
		resp := &ChecksResponse{}
		for _, c := range s.runner.Checks() {
			resp.Body.Checks = append(resp.Body.Checks, CheckData{Name: c.Name, Description: c.Description})
		}
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "probe-devices",
		Method:      http.MethodPost,
		Path:        "/api/probe",
		Summary:     "Probe All Devices",
		Description: "Run conformance checks against every enumerated device that is not streaming",
		Tags:        []string{"probe"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 409, 502},
	}, func(ctx context.Context, input *ProbeInput) (*ProbeResponse, error) {
		runner, err := s.probeRunner(input.Body.Checks)
		if err != nil {
			return nil, err
		}
		if _, err := s.session.Count(ctx); err != nil {
			return nil, mapCameraError(err)
		}
		devices := s.session.Devices()
		if err := rejectStreaming(devices...); err != nil {
			return nil, err
		}

		reports, err := runner.Run(ctx, devices)
		if err != nil {
			return nil, huma.Error500InternalServerError("probe interrupted", err)
		}
		return probeResponse(reports), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "probe-device",
		Method:      http.MethodPost,
		Path:        "/api/devices/{serial}/probe",
		Summary:     "Probe Device",
		Description: "Run conformance checks against one device. The device must not be streaming.",
		Tags:        []string{"probe"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 404, 409},
	}, func(ctx context.Context, input *ProbeDeviceInput) (*ProbeResponse, error) {
		runner, err := s.probeRunner(input.Body.Checks)
		if err != nil {
			return nil, err
		}
		dev, _, err := s.lookupDevice(input.Serial)
		if err != nil {
			return nil, err
		}
		if err := rejectStreaming(dev); err != nil {
			return nil, err
		}

		report, err := runner.RunDevice(ctx, dev)
		if err != nil {
			return nil, huma.Error500InternalServerError("probe interrupted", err)
		}
		return probeResponse([]conformance.Report{report}), nil
	})
}

func (s *Server) probeRunner(names []string) (*conformance.Runner, error) {
	if len(names) == 0 {
		return s.runner, nil
	}
	checks, err := conformance.Select(names)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid checks", err)
	}
	return conformance.NewRunner(conformance.WithChecks(checks...)), nil
}

func rejectStreaming(devices ...*camera.Device) error {
	for _, dev := range devices {
		if dev.IsStreaming() {
			return huma.Error409Conflict(fmt.Sprintf("device %s is streaming, stop it before probing", dev.Serial()))
		}
	}
	return nil
}

func probeResponse(reports []conformance.Report) *ProbeResponse {
	passed := true
	for _, r := range reports {
		passed = passed && r.Passed()
	}
	return &ProbeResponse{Body: ProbeData{Passed: passed, Reports: reports}}
}
