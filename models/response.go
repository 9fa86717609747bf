package models

import "encoding/json"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// APIResponse is the envelope returned by the upstream sheet API.
type APIResponse struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// HasData reports whether the response is a success carrying a payload.
// Anything else is treated as "no data".
func (r *APIResponse) HasData() bool {
	if r == nil || r.Status != StatusSuccess || len(r.Data) == 0 {
		return false
	}
	return string(r.Data) != "null"
}
