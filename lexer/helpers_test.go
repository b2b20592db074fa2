package lexer

import (
	"testing"

	"github.com/package-register/tinyc/ctx"
)

func newContextWithSource(t *testing.T, src string) *ctx.Context {
	t.Helper()
	c := ctx.New(ctx.DefaultBudget)
	if err := c.Set(sourceTextKey, src, nil); err != nil {
		t.Fatalf("seed source_text: %v", err)
	}
	return c
}
