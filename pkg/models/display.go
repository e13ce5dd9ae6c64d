package models

import "time"

// DisplayRequest is the query string accepted by GET /display.
// The required checks live in the validator so that a missing url, is or hm
// all surface the same error.
type DisplayRequest struct {
	URL string `form:"url"`
	Is  string `form:"is"`
	Hm  string `form:"hm"`
}

// DisplayEvent describes one finished /display request. It never carries the
// is/hm values or the fetched content.
type DisplayEvent struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id"`
	Host       string    `json:"host,omitempty"`
	Path       string    `json:"path,omitempty"`
	Outcome    string    `json:"outcome"`
	Bytes      int       `json:"bytes"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Redis  bool   `json:"redis"`
	NATS   bool   `json:"nats"`
}

// StatsResponse holds per-outcome counters for /display.
type StatsResponse struct {
	Outcomes map[string]int64 `json:"outcomes"`
}
