package middleware

import (
	"time"

	"github.com/package-register/tinyc/budget"
	"github.com/package-register/tinyc/ctx"
	"github.com/package-register/tinyc/engine"
	"github.com/package-register/tinyc/logger"
)

// MemoryAccounting samples the Context's memory usage after every stage and
// records it against a budget.Monitor, warning when the run crosses the
// monitor's warning threshold. It never fails a stage on its own: budget
// enforcement is the Context's own job (it already returns
// MemoryLimitExceeded on Set), this middleware only observes and logs.
type MemoryAccounting struct {
	monitor *budget.Monitor
}

func NewMemoryAccounting(monitor *budget.Monitor) *MemoryAccounting {
	return &MemoryAccounting{monitor: monitor}
}

func (m *MemoryAccounting) Name() string { return "memory_accounting" }

func (m *MemoryAccounting) Wrap(stageName string, c *ctx.Context, next engine.Continuation) engine.StageOutcome {
	start := time.Now()
	outcome := next()

	sample := m.monitor.Record(c.MemoryUsage(), time.Since(start))

	if m.monitor.IsCritical() {
		logger.L().Warn("memory usage critical", "stage", stageName, "bytes_used", sample.BytesUsed)
	} else if m.monitor.IsWarning() {
		logger.L().Warn("memory usage approaching budget", "stage", stageName, "bytes_used", sample.BytesUsed)
	}
	return outcome
}

var _ engine.Middleware = (*MemoryAccounting)(nil)
