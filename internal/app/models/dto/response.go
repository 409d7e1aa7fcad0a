package dto

import "time"

// APIResponse is the success envelope every handler writes.
type APIResponse struct {
	Data      interface{}  `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	Timestamp time.Time    `json:"timestamp" example:"2025-04-23T12:01:05.123Z"`
}

// NewAPIResponse wraps data in the success envelope.
func NewAPIResponse(data interface{}) APIResponse {
	return APIResponse{Data: data, Timestamp: time.Now()}
}

// MessageResponse is a bare acknowledgement.
type MessageResponse struct {
	Message string `json:"message" example:"Trip ended"`
}
