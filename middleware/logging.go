// Package middleware provides the cross-cutting engine.Middleware
// implementations the compiler pipeline is assembled with: logging, span
// timing, memory accounting, resource limiting, and fault injection.
package middleware

import (
	"time"

	"github.com/package-register/tinyc/ctx"
	"github.com/package-register/tinyc/engine"
	"github.com/package-register/tinyc/logger"
)

// Logging logs a line before and after every stage invocation: the stage
// name on entry, and the outcome plus elapsed duration on exit.
type Logging struct{}

func NewLogging() *Logging { return &Logging{} }

func (l *Logging) Name() string { return "logging" }

func (l *Logging) Wrap(stageName string, c *ctx.Context, next engine.Continuation) engine.StageOutcome {
	log := logger.L()
	log.Debug("stage starting", "stage", stageName)
	start := time.Now()
	outcome := next()
	elapsed := time.Since(start)

	if outcome.Succeeded {
		log.Info("stage succeeded", "stage", stageName, "duration", elapsed)
	} else {
		log.Error("stage failed", "stage", stageName, "duration", elapsed, "code", outcome.ErrorCode, "message", outcome.ErrorMessage)
	}
	return outcome
}

var _ engine.Middleware = (*Logging)(nil)
