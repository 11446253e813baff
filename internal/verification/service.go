package verification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"academia/internal/audit"
	"academia/internal/platform/metrics"
	"academia/internal/session"
	"academia/internal/upload"
	"academia/internal/verification/compare"
	dErrors "academia/pkg/domain-errors"
	"academia/pkg/platform/sentinel"
	"academia/pkg/requestcontext"
)

// SessionStore is the slice of the session store the service needs.
type SessionStore interface {
	Get(ctx context.Context, id string) session.Session
	Select(ctx context.Context, id string, file upload.File, preview upload.Preview) session.Session
	Reset(ctx context.Context, id string)
	Begin(ctx context.Context, id string) (context.Context, session.Session, error)
	Complete(ctx context.Context, id, attemptID string, resp session.Response) (session.Session, error)
}

// Previewer validates an uploaded file and builds its preview.
type Previewer interface {
	Accept(ctx context.Context, f upload.File) (upload.Preview, error)
}

// Service drives the authenticate screen: file selection, verification and
// comparison against the expected record.
type Service struct {
	sessions  SessionStore
	previewer Previewer
	verifier  Verifier
	expected  compare.Expected
	metrics   *metrics.Metrics
	auditor   *audit.Publisher
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records verification outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAuditor records verification outcomes in the audit trail.
func WithAuditor(p *audit.Publisher) Option {
	return func(s *Service) { s.auditor = p }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService wires the authenticate flow.
func NewService(sessions SessionStore, previewer Previewer, verifier Verifier, expected compare.Expected, opts ...Option) *Service {
	s := &Service{
		sessions:  sessions,
		previewer: previewer,
		verifier:  verifier,
		expected:  expected,
		logger:    slog.Default(),
		tracer:    otel.Tracer("academia/verification"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Expected returns the record uploads are compared against.
func (s *Service) Expected() compare.Expected {
	return s.expected
}

// Current returns the session as the page should display it.
func (s *Service) Current(ctx context.Context, sessionID string) session.View {
	return s.sessions.Get(ctx, sessionID).View()
}

// Select validates file and makes it the session's selected file. A rejected
// file leaves the session as it was.
func (s *Service) Select(ctx context.Context, sessionID string, file upload.File) (session.View, error) {
	preview, err := s.previewer.Accept(ctx, file)
	if err != nil {
		s.metrics.IncUpload("rejected")
		return session.View{}, err
	}
	file.ContentType = preview.ContentType
	sess := s.sessions.Select(ctx, sessionID, file, preview)
	s.metrics.IncUpload("accepted")

	s.logger.InfoContext(ctx, "file selected",
		"session_id", sessionID,
		"attempt_id", sess.AttemptID,
		"file_name", file.Name,
		"content_type", preview.ContentType,
		"size", file.Size(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return sess.View(), nil
}

// Reset clears the session and cancels any in-flight verification.
func (s *Service) Reset(ctx context.Context, sessionID string) {
	s.sessions.Reset(ctx, sessionID)
}

// Verify submits the selected file and compares the returned fields. A
// verifier error becomes an unsuccessful response rather than an error. The
// response is discarded with CodeConflict when a newer attempt replaced this
// one while it was running.
func (s *Service) Verify(ctx context.Context, sessionID string) (session.Response, error) {
	attemptCtx, sess, err := s.sessions.Begin(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return session.Response{}, dErrors.New(dErrors.CodeValidation, "no file selected")
		}
		return session.Response{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to start verification")
	}

	attemptCtx, span := s.tracer.Start(attemptCtx, "verification.verify",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("attempt.id", sess.AttemptID),
			attribute.String("file.content_type", sess.File.ContentType),
			attribute.Int64("file.size", sess.File.Size()),
		))
	defer span.End()

	start := time.Now()
	result, verr := s.verifier.Verify(attemptCtx, *sess.File)

	resp := session.Response{
		Success:     result.Success,
		Message:     result.Message,
		Data:        result.Data,
		CompletedAt: requestcontext.Now(ctx),
	}
	if verr != nil {
		span.RecordError(verr)
		span.SetStatus(codes.Error, "verification failed")
		resp = session.Response{Success: false, Message: verr.Error(), CompletedAt: resp.CompletedAt}
	} else if result.Success {
		report := compare.Render(result.Data, s.expected)
		resp.Report = &report
		span.SetAttributes(attribute.Int("verification.mismatches", len(report.Mismatches)))
	}

	if _, err := s.sessions.Complete(ctx, sessionID, sess.AttemptID, resp); err != nil {
		if errors.Is(err, sentinel.ErrSuperseded) || errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.ObserveVerification("stale", time.Since(start))
			s.auditor.Emit(ctx, audit.Event{
				Action:  audit.ActionAttemptDiscarded,
				Subject: sess.File.Name,
				Reason:  "superseded by a newer attempt",
			})
			s.logger.InfoContext(ctx, "stale verification discarded",
				"session_id", sessionID,
				"attempt_id", sess.AttemptID,
				"request_id", requestcontext.RequestID(ctx),
			)
			return session.Response{}, dErrors.Wrap(err, dErrors.CodeConflict, "stale attempt")
		}
		return session.Response{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record verification")
	}

	outcome := outcomeOf(resp)
	s.metrics.ObserveVerification(outcome, time.Since(start))
	s.auditor.Emit(ctx, audit.Event{
		Action:   audit.ActionDocumentVerified,
		Subject:  sess.File.Name,
		Decision: outcome,
		Reason:   resp.Message,
	})
	s.logger.InfoContext(ctx, "verification completed",
		"session_id", sessionID,
		"attempt_id", sess.AttemptID,
		"outcome", outcome,
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", requestcontext.RequestID(ctx),
	)
	if verr != nil {
		s.logger.WarnContext(ctx, "verification call failed",
			"session_id", sessionID,
			"error", verr,
		)
	}
	return resp, nil
}

func outcomeOf(resp session.Response) string {
	switch {
	case !resp.Success:
		return "failed"
	case resp.Report != nil && resp.Report.AllMatch:
		return "all_match"
	default:
		return "mismatch"
	}
}
