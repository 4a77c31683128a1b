package dto

// HealthResponse reports service health.
type HealthResponse struct {
	Status string `json:"status"`
}
