package api

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

// SyncWindow reports where the shared moment landed on the output timeline
// and how far each clip was shifted to meet it.
type SyncWindow struct {
	Instant float64   `json:"instant"`
	Starts  []float64 `json:"starts"`
}

type SyncResponse struct {
	JobID    string      `json:"job_id"`
	Status   string      `json:"status"`
	Message  string      `json:"message,omitempty"`
	Output   string      `json:"output,omitempty"`
	Sync     *SyncWindow `json:"sync,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
