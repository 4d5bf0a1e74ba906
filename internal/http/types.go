package http

import "github.com/fyrsmithlabs/svclocator/internal/services"

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status    string           `json:"status"`
	Services  int              `json:"services"`
	Running   int              `json:"running"`
	Telemetry *TelemetryStatus `json:"telemetry,omitempty"`
}

// TelemetryStatus reports the OpenTelemetry pipeline.
type TelemetryStatus struct {
	Enabled  bool `json:"enabled"`
	Healthy  bool `json:"healthy"`
	Degraded bool `json:"degraded"`
}

// ListResponse is the response body for GET /api/v1/services.
type ListResponse struct {
	Services []services.Status `json:"services"`
}

// ErrorResponse is returned for rejected requests. Kind names the guard
// violation when there is one.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
