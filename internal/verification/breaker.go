package verification

import (
	"context"
	"log/slog"

	"academia/internal/platform/upstream"
	"academia/internal/upload"
	"academia/pkg/platform/circuit"
)

// BreakerVerifier fails fast while the wrapped verifier is unhealthy.
type BreakerVerifier struct {
	next    Verifier
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// NewBreakerVerifier wraps next with breaker.
func NewBreakerVerifier(next Verifier, breaker *circuit.Breaker, logger *slog.Logger) *BreakerVerifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &BreakerVerifier{next: next, breaker: breaker, logger: logger}
}

func (v *BreakerVerifier) Verify(ctx context.Context, file upload.File) (Result, error) {
	if !v.breaker.Allow() {
		return Result{}, upstream.NewError(upstream.ErrorOutage, serviceName, "verification service unavailable", nil)
	}

	result, err := v.next.Verify(ctx, file)
	if ctx.Err() != nil {
		// cancelled by the caller, says nothing about the service
		return result, err
	}

	if err != nil && upstream.Unavailable(err) {
		if _, change := v.breaker.RecordFailure(); change.Opened {
			v.logger.WarnContext(ctx, "circuit opened",
				"breaker", v.breaker.Name(),
				"error", err,
			)
		}
		return result, err
	}
	if _, change := v.breaker.RecordSuccess(); change.Closed {
		v.logger.InfoContext(ctx, "circuit closed", "breaker", v.breaker.Name())
	}
	return result, err
}
