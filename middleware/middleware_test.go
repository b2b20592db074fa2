package middleware

import (
	"testing"
	"time"

	"github.com/package-register/tinyc/budget"
	"github.com/package-register/tinyc/ctx"
	"github.com/package-register/tinyc/engine"
	"github.com/package-register/tinyc/errs"
)

func okStage(name string) engine.StageFunc {
	return engine.StageFunc{StageName: name, Fn: func(c *ctx.Context) engine.StageOutcome { return engine.Success() }}
}

func runWrapped(mw engine.Middleware, stageName string, stage engine.Stage) engine.StageOutcome {
	c := ctx.New(ctx.DefaultBudget)
	return mw.Wrap(stageName, c, func() engine.StageOutcome { return stage.Run(c) })
}

func TestLoggingPassesThroughOutcome(t *testing.T) {
	mw := NewLogging()
	outcome := runWrapped(mw, "lexer", okStage("lexer"))
	if !outcome.Succeeded {
		t.Fatal("expected success to pass through unchanged")
	}

	failing := engine.StageFunc{StageName: "parser", Fn: func(c *ctx.Context) engine.StageOutcome {
		return engine.Failure(errs.InvalidInput, "bad token")
	}}
	outcome = runWrapped(mw, "parser", failing)
	if outcome.Succeeded || outcome.ErrorCode != errs.InvalidInput {
		t.Fatalf("expected failure to pass through unchanged, got %+v", outcome)
	}
}

func TestTimingDoesNotAlterOutcome(t *testing.T) {
	mw := NewTiming()
	outcome := runWrapped(mw, "codegen", okStage("codegen"))
	if !outcome.Succeeded {
		t.Fatal("expected success to pass through unchanged")
	}
}

func TestMemoryAccountingRecordsContextUsage(t *testing.T) {
	monitor := budget.NewMonitor(1 << 20)
	mw := NewMemoryAccounting(monitor)

	c := ctx.New(ctx.DefaultBudget)
	if err := c.Set("source_text", "func main(): int { return 0; }", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outcome := mw.Wrap("lexer", c, func() engine.StageOutcome { return engine.Success() })
	if !outcome.Succeeded {
		t.Fatal("expected success")
	}
	stats := monitor.GetStats()
	if stats.StageCount != 1 {
		t.Fatalf("expected one recorded stage, got %d", stats.StageCount)
	}
	if stats.TotalBytes != c.MemoryUsage() {
		t.Fatalf("expected recorded bytes to match context usage, got %d vs %d", stats.TotalBytes, c.MemoryUsage())
	}
}

func TestResourceLimitDisabledWhenZero(t *testing.T) {
	mw := NewResourceLimit(0)
	outcome := runWrapped(mw, "typecheck", okStage("typecheck"))
	if !outcome.Succeeded {
		t.Fatal("expected success to pass through when timeout disabled")
	}
}

func TestResourceLimitFiresOnSlowStage(t *testing.T) {
	mw := NewResourceLimit(10 * time.Millisecond)
	slow := engine.StageFunc{StageName: "codegen", Fn: func(c *ctx.Context) engine.StageOutcome {
		time.Sleep(50 * time.Millisecond)
		return engine.Success()
	}}
	outcome := runWrapped(mw, "codegen", slow)
	if outcome.Succeeded || outcome.ErrorCode != errs.CapacityExceeded {
		t.Fatalf("expected a CapacityExceeded timeout failure, got %+v", outcome)
	}
}

func TestFaultInjectionOnlyAffectsNamedStage(t *testing.T) {
	injected := engine.Failure(errs.OutOfMemory, "injected failure")
	mw := NewFaultInjection("parser", injected)

	outcome := runWrapped(mw, "parser", okStage("parser"))
	if outcome.Succeeded || outcome.ErrorCode != errs.OutOfMemory {
		t.Fatalf("expected injected failure for targeted stage, got %+v", outcome)
	}

	outcome = runWrapped(mw, "lexer", okStage("lexer"))
	if !outcome.Succeeded {
		t.Fatal("expected untargeted stage to pass through")
	}
}
