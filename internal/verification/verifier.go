// Package verification runs a document image through the verification
// service and compares the fields it returns against the expected record.
package verification

import (
	"context"

	"academia/internal/upload"
	"academia/internal/verification/compare"
)

// Result is the {success, message, data} contract of the verification service.
type Result struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    compare.Observed `json:"data,omitempty"`
}

// Verifier submits an image for verification.
type Verifier interface {
	Verify(ctx context.Context, file upload.File) (Result, error)
}
