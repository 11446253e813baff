package verification

import (
	"context"
	"maps"
	"time"

	"academia/internal/upload"
	"academia/internal/verification/compare"
)

// MockVerifier stands in for the verification service. It waits Latency and
// then returns the same successful payload regardless of the input.
type MockVerifier struct {
	Latency time.Duration
	Record  compare.Observed
}

func (v MockVerifier) Verify(ctx context.Context, _ upload.File) (Result, error) {
	if v.Latency > 0 {
		timer := time.NewTimer(v.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-timer.C:
		}
	}
	return Result{
		Success: true,
		Message: "Document verified",
		Data:    maps.Clone(v.Record),
	}, nil
}
