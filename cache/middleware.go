package cache

import (
	"github.com/package-register/tinyc/ctx"
	"github.com/package-register/tinyc/engine"
	"github.com/package-register/tinyc/errs"
)

// CachingMiddleware short-circuits the named stage when a cached result
// exists for the current source_text/target pair, and records the result
// afterward on a miss.
type CachingMiddleware struct {
	store     *Store
	stageName string
	target    func() string
	sourceKey string
	outputKey string
}

// NewCachingMiddleware creates a middleware that caches the named stage's
// effect on outputKey, keyed by the source text bound at sourceKey and the
// result of calling target.
func NewCachingMiddleware(store *Store, stageName, sourceKey, outputKey string, target func() string) *CachingMiddleware {
	return &CachingMiddleware{
		store:     store,
		stageName: stageName,
		target:    target,
		sourceKey: sourceKey,
		outputKey: outputKey,
	}
}

func (m *CachingMiddleware) Name() string { return "caching" }

func (m *CachingMiddleware) Wrap(stageName string, c *ctx.Context, next engine.Continuation) engine.StageOutcome {
	if stageName != m.stageName {
		return next()
	}

	srcVal, err := c.Get(m.sourceKey)
	if err != nil {
		return next()
	}
	src, ok := srcVal.(string)
	if !ok {
		return next()
	}

	target := m.target()
	hash := HashSource(src)

	if rec, hit, err := m.store.Lookup(hash, target); err == nil && hit {
		if !rec.Succeeded {
			return engine.Failure(errs.InvalidInput, rec.FailureLog)
		}
		if err := c.Set(m.outputKey, rec.OutputCode, nil); err != nil {
			return engine.FromError(err)
		}
		return engine.Success()
	}

	outcome := next()

	rec := CompileRecord{Hash: hash, Target: target, Succeeded: outcome.Succeeded}
	if outcome.Succeeded {
		if v, err := c.Get(m.outputKey); err == nil {
			if s, ok := v.(string); ok {
				rec.OutputCode = s
			}
		}
	} else {
		rec.FailureLog = outcome.ErrorMessage
	}
	_ = m.store.Put(rec)

	return outcome
}

var _ engine.Middleware = (*CachingMiddleware)(nil)
