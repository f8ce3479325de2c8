package models

import "github.com/smazurov/depthnode/internal/version"

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
	Devices int    `json:"devices" example:"2" doc:"Devices found by the last enumeration"`
}

type HealthResponse struct {
	Body HealthData
}

type VersionResponse struct {
	Body version.Info
}

// Generic acknowledgement for state-changing calls
type ActionData struct {
	Serial string `json:"serial" example:"2391004154" doc:"Device serial"`
	State  string `json:"state" example:"streaming" doc:"Device state after the call"`
}

type ActionResponse struct {
	Body ActionData
}
