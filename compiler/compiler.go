// Package compiler assembles the lexer, parser, type checker, and code
// generator stages, plus the standard middleware stack, into a single
// engine.Pipeline driven by a config.CompilerConfig.
package compiler

import (
	"github.com/package-register/tinyc/budget"
	"github.com/package-register/tinyc/codegen"
	"github.com/package-register/tinyc/config"
	"github.com/package-register/tinyc/ctx"
	"github.com/package-register/tinyc/engine"
	"github.com/package-register/tinyc/errs"
	"github.com/package-register/tinyc/lexer"
	"github.com/package-register/tinyc/middleware"
	"github.com/package-register/tinyc/parser"
	"github.com/package-register/tinyc/typecheck"
)

const (
	sourceTextKey = "source_text"
	outputCodeKey = "output_code"
)

// Result is the outcome of a single Compile call: the generated code on
// success, plus the full pipeline outcome for diagnostics either way.
type Result struct {
	OutputCode string
	Outcome    engine.PipelineOutcome
}

// Succeeded reports whether every stage completed under the configured
// fault-tolerance policy.
func (r Result) Succeeded() bool { return r.Outcome.Succeeded }

// New builds the four-stage compiler pipeline over a fresh Context sized to
// cfg's memory budget, with the standard logging/timing/memory-accounting
// middleware stack applied in that order (outermost to innermost).
func New(cfg *config.CompilerConfig, monitor *budget.Monitor) (*engine.Pipeline, *ctx.Context, error) {
	c := ctx.New(cfg.Budget())

	p := engine.New(c,
		engine.WithFaultTolerance(cfg.FaultTolerancePolicy()),
		engine.WithDetailLevel(cfg.ErrorDetailLevel()),
	)

	if monitor == nil {
		monitor = budget.NewMonitor(cfg.MaxMemory)
	}

	mws := []engine.Middleware{
		middleware.NewLogging(),
		middleware.NewTiming(),
		middleware.NewMemoryAccounting(monitor),
	}
	for _, mw := range mws {
		if err := p.AddMiddleware(mw); err != nil {
			return nil, nil, err
		}
	}

	stages := []engine.Stage{
		lexer.New(),
		parser.New(),
		typecheck.New(),
		codegen.New(cfg.CodegenConfig()),
	}
	for _, s := range stages {
		if err := p.AddStage(s); err != nil {
			return nil, nil, err
		}
	}

	return p, c, nil
}

// Compile runs the full pipeline over sourceText under cfg, returning the
// generated code (on success) and the pipeline's outcome either way.
func Compile(sourceText string, cfg *config.CompilerConfig, monitor *budget.Monitor) (Result, error) {
	p, c, err := New(cfg, monitor)
	if err != nil {
		return Result{}, err
	}

	if err := c.Set(sourceTextKey, sourceText, nil); err != nil {
		return Result{}, errs.Wrap(errs.Classify(err), "binding source_text", err)
	}

	outcome := p.Execute()
	result := Result{Outcome: outcome}

	if v, getErr := c.Get(outputCodeKey); getErr == nil {
		if code, ok := v.(string); ok {
			result.OutputCode = code
		}
	}
	return result, nil
}
