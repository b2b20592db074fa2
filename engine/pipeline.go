package engine

import (
	"sync"
	"sync/atomic"

	"github.com/package-register/tinyc/ctx"
	"github.com/package-register/tinyc/errs"
)

// FaultTolerance selects how the Pipeline reacts to a failing stage.
type FaultTolerance int

const (
	// Strict records the failure and stops; the pipeline is reported failed.
	Strict FaultTolerance = iota
	// Lenient records the failure and continues to the next stage; the
	// pipeline is reported failed.
	Lenient
	// BestEffort records the failure and continues; stage failures alone do
	// not mark the pipeline as failed.
	BestEffort
	// Custom invokes the installed FailureHandler, which decides whether to
	// continue or abort.
	Custom
)

// FailureHandler is invoked once per failing stage when FaultTolerance is
// Custom. It returns true to continue to the next stage, false to abort.
type FailureHandler func(stageName string, outcome StageOutcome) bool

// FailureRecord is one entry in a PipelineOutcome's failure list.
type FailureRecord struct {
	StageName string
	Code      errs.Code
	Message   string
}

// PipelineOutcome is the result of one Pipeline.Execute call.
type PipelineOutcome struct {
	Succeeded bool
	Failures  []FailureRecord
}

// Option configures a Pipeline at construction time.
type Option func(*Pipeline)

// WithFaultTolerance sets the fault-tolerance policy.
func WithFaultTolerance(ft FaultTolerance) Option {
	return func(p *Pipeline) { p.fault = ft }
}

// WithDetailLevel sets the error-detail level applied to failure messages.
func WithDetailLevel(level errs.DetailLevel) Option {
	return func(p *Pipeline) { p.detail = level }
}

// WithFailureHandler installs the handler used in Custom fault-tolerance mode.
func WithFailureHandler(h FailureHandler) Option {
	return func(p *Pipeline) { p.handler = h }
}

// Pipeline is an ordered list of stages plus an ordered stack of middleware,
// sharing one Context, executed left-to-right with each stage wrapped by
// the middleware stack outermost-first.
type Pipeline struct {
	mu          sync.Mutex
	stages      []Stage
	middlewares []Middleware
	context     *ctx.Context
	fault       FaultTolerance
	detail      errs.DetailLevel
	handler     FailureHandler

	executing   int32 // re-entrancy guard, 0 or 1
	interrupted int32 // advisory, middleware-settable
}

// New creates a Pipeline bound to the given Context.
func New(c *ctx.Context, opts ...Option) *Pipeline {
	p := &Pipeline{context: c, fault: Strict, detail: errs.Full}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Context returns the Pipeline's shared Context.
func (p *Pipeline) Context() *ctx.Context { return p.context }

// AddStage appends a stage. Permitted only when the pipeline is not
// currently executing.
func (p *Pipeline) AddStage(s Stage) error {
	if atomic.LoadInt32(&p.executing) == 1 {
		return errs.New(errs.Reentrancy, "cannot add stage while pipeline is executing")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stages = append(p.stages, s)
	return nil
}

// AddMiddleware appends a middleware to the innermost end of the stack: the
// first middleware added stays outermost.
// Permitted only when the pipeline is not currently executing.
func (p *Pipeline) AddMiddleware(m Middleware) error {
	if atomic.LoadInt32(&p.executing) == 1 {
		return errs.New(errs.Reentrancy, "cannot add middleware while pipeline is executing")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.middlewares = append(p.middlewares, m)
	return nil
}

// SetFailureHandler installs the policy callback used only in Custom mode.
func (p *Pipeline) SetFailureHandler(h FailureHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = h
}

// Interrupt raises the advisory interrupted flag. Execute checks it between
// stages and reports cleanly instead of running the remaining stages. There
// is no cancellation support inside a stage itself: the core has no
// suspension points.
func (p *Pipeline) Interrupt() {
	atomic.StoreInt32(&p.interrupted, 1)
}

func (p *Pipeline) snapshot() ([]Stage, []Middleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	stages := make([]Stage, len(p.stages))
	copy(stages, p.stages)
	mws := make([]Middleware, len(p.middlewares))
	copy(mws, p.middlewares)
	return stages, mws
}

// Execute runs every stage in order, each wrapped by the middleware onion,
// and returns the aggregate PipelineOutcome. Concurrent Execute calls on
// the same Pipeline fail with Reentrancy.
func (p *Pipeline) Execute() PipelineOutcome {
	if !atomic.CompareAndSwapInt32(&p.executing, 0, 1) {
		return PipelineOutcome{
			Succeeded: false,
			Failures: []FailureRecord{{
				Code:    errs.Reentrancy,
				Message: errs.FormatMessage(p.detail, errs.Reentrancy, "execute called while already executing"),
			}},
		}
	}
	defer atomic.StoreInt32(&p.executing, 0)
	atomic.StoreInt32(&p.interrupted, 0)

	stages, mws := p.snapshot()
	outcome := PipelineOutcome{Succeeded: true}

	for _, stage := range stages {
		if atomic.LoadInt32(&p.interrupted) == 1 {
			break
		}

		so := dispatch(mws, stage.Name(), p.context, stage)
		if so.Succeeded {
			continue
		}

		record := FailureRecord{
			StageName: stage.Name(),
			Code:      so.ErrorCode,
			Message:   errs.FormatMessage(p.detail, so.ErrorCode, so.ErrorMessage),
		}
		outcome.Failures = append(outcome.Failures, record)

		switch p.fault {
		case Strict:
			outcome.Succeeded = false
			return outcome
		case Lenient:
			outcome.Succeeded = false
		case BestEffort:
			// stage failures alone do not mark the pipeline failed
		case Custom:
			cont := true
			if p.handler != nil {
				cont = p.handler(stage.Name(), so)
			}
			outcome.Succeeded = false
			if !cont {
				return outcome
			}
		}
	}

	return outcome
}
