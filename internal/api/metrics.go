package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/depthnode/internal/metrics"
)

// DeviceMetricsResponse maps serials to their metric snapshot.
type DeviceMetricsResponse struct {
	Body struct {
		Devices map[string]*metrics.DeviceMetrics `json:"devices"`
	}
}

// registerMetricsRoutes exposes the metric cache as JSON. Prometheus
// scrapes GET /metrics instead.
func (s *Server) registerMetricsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-device-metrics",
		Method:      http.MethodGet,
		Path:        "/api/metrics/devices",
		Summary:     "Device Metrics",
		Description: "Per-device counters: state, enabled streams, option writes and failures",
		Tags:        []string{"metrics"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*DeviceMetricsResponse, error) {
		resp := &DeviceMetricsResponse{}
		resp.Body.Devices = metrics.GetAllDeviceMetrics()
		return resp, nil
	})
}
