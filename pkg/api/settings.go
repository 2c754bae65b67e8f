package api

import "github.com/iudanet/folio/internal/models"

// SettingsResponse ответ GET/PUT /api/v1/settings
type SettingsResponse struct {
	Settings *models.Settings `json:"settings"`
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Version  string `json:"version,omitempty"`
}
