package models

import "time"

// SubmitResponse is returned by the JSON submission endpoint
type SubmitResponse struct {
	Success        bool          `json:"success"`
	State          string        `json:"state"`
	Filename       string        `json:"filename,omitempty"`
	DownloadURL    string        `json:"download_url,omitempty"`
	DownloadLabel  string        `json:"download_label,omitempty"`
	Status         string        `json:"status,omitempty"`
	Error          string        `json:"error,omitempty"`
	Field          string        `json:"field,omitempty"`
	ProcessingTime time.Duration `json:"processing_time"`
	RequestID      string        `json:"request_id"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    time.Duration     `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// StatusResponse describes the running service and its upstream
type StatusResponse struct {
	Service        string    `json:"service"`
	Version        string    `json:"version"`
	Timestamp      time.Time `json:"timestamp"`
	Uptime         string    `json:"uptime"`
	TailorEndpoint string    `json:"tailor_endpoint"`
	StrictMIME     bool      `json:"strict_mime"`
	MaxFileSize    int64     `json:"max_file_size"`
	DownloadStore  string    `json:"download_store"`
	DownloadTTL    string    `json:"download_ttl"`
	GRPCEnabled    bool      `json:"grpc_enabled"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}
