package api

import "github.com/iris-runtime/iris/pkg/database"

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string                  `json:"status"`
	Version  string                  `json:"version"`
	Database *database.HealthStatus  `json:"database,omitempty"`
	SafeMode bool                    `json:"safe_mode"`
}

// AffectSnapshot mirrors affect.State for the status response.
type AffectSnapshot struct {
	Energy  float64 `json:"energy"`
	Valence float64 `json:"valence"`
	Arousal float64 `json:"arousal"`
}

// PressureSnapshot mirrors resource.Snapshot for the status response.
type PressureSnapshot struct {
	RAMPercent     float64 `json:"ram_percent"`
	StoragePercent float64 `json:"storage_percent"`
	Level          string  `json:"level"`
}

// CapabilitySnapshot is one entry in the status response's capability list.
type CapabilitySnapshot struct {
	Name            string `json:"name"`
	State           string `json:"state"`
	QuarantineCount int    `json:"quarantine_count"`
}

// StatusResponse is returned by GET /status (spec.md §7).
type StatusResponse struct {
	Mode         string               `json:"mode"`
	SafeMode     bool                 `json:"safe_mode"`
	Affect       AffectSnapshot       `json:"affect"`
	Pressure     PressureSnapshot     `json:"pressure"`
	Capabilities []CapabilitySnapshot `json:"capabilities"`
}
