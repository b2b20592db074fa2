package middleware

import (
	"time"

	"github.com/package-register/tinyc/ctx"
	"github.com/package-register/tinyc/engine"
	"github.com/package-register/tinyc/errs"
)

// ResourceLimit enforces a hard wall-clock deadline per stage on top of the
// Context's own memory budget. A stage that runs past Timeout has its
// outcome replaced with a CapacityExceeded failure; the stage's goroutine is
// not interrupted (engine.Stage has no cancellation hook), so this bounds
// how long a pipeline run waits on a stage, not how long the stage actually
// keeps running in the background.
type ResourceLimit struct {
	timeout time.Duration
}

// NewResourceLimit builds a ResourceLimit middleware. A non-positive
// timeout disables the deadline entirely.
func NewResourceLimit(timeout time.Duration) *ResourceLimit {
	return &ResourceLimit{timeout: timeout}
}

func (r *ResourceLimit) Name() string { return "resource_limit" }

func (r *ResourceLimit) Wrap(stageName string, c *ctx.Context, next engine.Continuation) engine.StageOutcome {
	if r.timeout <= 0 {
		return next()
	}

	done := make(chan engine.StageOutcome, 1)
	go func() {
		done <- next()
	}()

	select {
	case outcome := <-done:
		return outcome
	case <-time.After(r.timeout):
		return engine.Failure(errs.CapacityExceeded, "stage '"+stageName+"' exceeded its time budget")
	}
}

var _ engine.Middleware = (*ResourceLimit)(nil)
