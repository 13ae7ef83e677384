package repo

import (
	"context"
	"fmt"
)

// GenerateRequest is a single completion request to the classification backend
type GenerateRequest struct {
	Model       string
	Prompt      string
	Temperature *float32 // nil leaves the backend default
	Images      [][]byte // raw image bytes for vision models
}

// BackendRepo is the text/vision generation backend
type BackendRepo interface {
	// Generate returns the backend's reply text.
	// Non-success statuses are returned as *StatusError.
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// StatusError is returned when the backend answers with a non-success status
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend status %d", e.Code)
}

// Temperature returns a pointer to t
func Temperature(t float32) *float32 {
	return &t
}
