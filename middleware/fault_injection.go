package middleware

import (
	"github.com/package-register/tinyc/ctx"
	"github.com/package-register/tinyc/engine"
)

// FaultInjection forces a named stage to fail with a fixed outcome instead
// of running it, for exercising a pipeline's fault-tolerance policy in
// tests without hand-writing a failing Stage for every scenario.
type FaultInjection struct {
	stageName string
	outcome   engine.StageOutcome
}

// NewFaultInjection builds a middleware that replaces stageName's outcome
// with outcome every time it runs, without invoking the stage at all. Any
// other stage passes through untouched.
func NewFaultInjection(stageName string, outcome engine.StageOutcome) *FaultInjection {
	return &FaultInjection{stageName: stageName, outcome: outcome}
}

func (f *FaultInjection) Name() string { return "fault_injection" }

func (f *FaultInjection) Wrap(stageName string, c *ctx.Context, next engine.Continuation) engine.StageOutcome {
	if stageName != f.stageName {
		return next()
	}
	return f.outcome
}

var _ engine.Middleware = (*FaultInjection)(nil)
