package engine

import "github.com/package-register/tinyc/ctx"

// Continuation invokes the next middleware in the stack, or the stage
// itself at the innermost frame.
type Continuation func() StageOutcome

// Middleware wraps every stage for cross-cutting concerns: logging, timing,
// memory accounting, resource limiting, fault injection. It may observe the
// stage name and Context before calling the continuation, skip the
// continuation entirely (short-circuiting to any outcome it chooses), or
// inspect and override the outcome the continuation returns. It must invoke
// the continuation at most once.
type Middleware interface {
	Name() string
	Wrap(stageName string, c *ctx.Context, next Continuation) StageOutcome
}

// MiddlewareFunc adapts a plain function to the Middleware interface.
type MiddlewareFunc struct {
	MiddlewareName string
	Fn             func(stageName string, c *ctx.Context, next Continuation) StageOutcome
}

func (f MiddlewareFunc) Name() string { return f.MiddlewareName }

func (f MiddlewareFunc) Wrap(stageName string, c *ctx.Context, next Continuation) StageOutcome {
	return f.Fn(stageName, c, next)
}

// dispatch builds the onion for a single stage run: middlewares[0] is
// outermost. If middlewares is {M1, M2, M3}, the call nesting is
// M1(M2(M3(stage))) — M1's "before" logic runs first, its "after" logic
// runs last.
func dispatch(middlewares []Middleware, stageName string, c *ctx.Context, stage Stage) StageOutcome {
	var step func(i int) StageOutcome
	step = func(i int) StageOutcome {
		if i >= len(middlewares) {
			return stage.Run(c)
		}
		mw := middlewares[i]
		return mw.Wrap(stageName, c, func() StageOutcome {
			return step(i + 1)
		})
	}
	return step(0)
}
