package middleware

import (
	"context"

	"github.com/package-register/tinyc/ctx"
	"github.com/package-register/tinyc/engine"
	"github.com/package-register/tinyc/telemetry"
)

// Timing wraps every stage in an OpenTelemetry span via the global
// telemetry.Tracer, recording the stage's outcome as the span's status.
// A Noop tracer (telemetry's default) makes this zero-overhead when no
// tracer has been configured with telemetry.Init.
type Timing struct{}

func NewTiming() *Timing { return &Timing{} }

func (t *Timing) Name() string { return "timing" }

func (t *Timing) Wrap(stageName string, c *ctx.Context, next engine.Continuation) engine.StageOutcome {
	_, span := telemetry.StartSpan(context.Background(), stageName)
	defer span.End()

	outcome := next()

	if outcome.Succeeded {
		span.SetStatus(telemetry.StatusOK, "")
	} else {
		span.SetStatus(telemetry.StatusError, outcome.ErrorMessage)
		span.SetAttributes(telemetry.Attribute{Key: "error.code", Value: string(outcome.ErrorCode)})
	}
	return outcome
}

var _ engine.Middleware = (*Timing)(nil)
