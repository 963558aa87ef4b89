package observability

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/responsainveniree/student-info-api/pkg/config"
	"github.com/responsainveniree/student-info-api/pkg/middleware/requestid"
)

// InitSentry configures the global Sentry hub. Without a DSN it is a no-op and the returned flush
// function does nothing.
func InitSentry(cfg config.SentryConfig, env string) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: env,
		Release:     cfg.Release,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureErr reports err tagged with the request ID carried by ctx.
func CaptureErr(ctx context.Context, err error) {
	if err == nil {
		return
	}
	hub := sentry.CurrentHub().Clone()
	if reqID := requestid.FromContext(ctx); reqID != "" {
		hub.Scope().SetTag("request_id", reqID)
	}
	hub.CaptureException(err)
}
