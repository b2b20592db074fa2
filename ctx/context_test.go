package ctx

import (
	"testing"

	"github.com/package-register/tinyc/errs"
)

func TestSetGetRoundTrip(t *testing.T) {
	c := New(DefaultBudget)
	if err := c.Set("source_text", "func main(): int { return 0; }", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := c.Get("source_text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.(string) != "func main(): int { return 0; }" {
		t.Fatalf("value mismatch: %v", v)
	}
}

func TestGetMissingKeyIsNotFound(t *testing.T) {
	c := New(DefaultBudget)
	if _, err := c.Get("tokens"); errs.Classify(err) != errs.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestReleaseHookFiresExactlyOnceOnRebind(t *testing.T) {
	c := New(DefaultBudget)
	released := 0
	if err := c.Set("ast", "v1", func() { released++ }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Set("ast", "v2", func() { released++ }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if released != 1 {
		t.Fatalf("expected exactly one release on rebind, got %d", released)
	}
	c.Clear()
	if released != 2 {
		t.Fatalf("expected second release after clear, got %d", released)
	}
}

func TestAcquireOutlivesRebind(t *testing.T) {
	c := New(DefaultBudget)
	released := false
	if err := c.Set("tokens", "stream-v1", func() { released = true }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ref, err := c.Acquire("tokens")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := c.Set("tokens", "stream-v2", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if released {
		t.Fatal("release hook fired while an owned reference is still outstanding")
	}

	if ref.Value().(string) != "stream-v1" {
		t.Fatalf("ref value changed after rebind: %v", ref.Value())
	}

	ref.Release()
	if !released {
		t.Fatal("expected release hook to fire once the last reference is dropped")
	}

	// Releasing twice must not panic or double-fire.
	ref.Release()
}

func TestKeyTooLong(t *testing.T) {
	c := New(Budget{MaxKeyLength: 4})
	err := c.Set("too-long-a-key", "x", nil)
	if errs.Classify(err) != errs.KeyTooLong {
		t.Fatalf("expected KeyTooLong, got %v", err)
	}
}

func TestCapacityExceeded(t *testing.T) {
	c := New(Budget{MaxEntries: 1})
	if err := c.Set("a", "1", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Set("b", "2", nil); errs.Classify(err) != errs.CapacityExceeded {
		t.Fatalf("expected CapacityExceeded, got %v", err)
	}
}

func TestMemoryLimitExceeded(t *testing.T) {
	c := New(Budget{MaxMemory: 4})
	if err := c.Set("k", "hello world", nil); errs.Classify(err) != errs.MemoryLimitExceeded {
		t.Fatalf("expected MemoryLimitExceeded, got %v", err)
	}
}

func TestRemoveDecrementsAndReleases(t *testing.T) {
	c := New(DefaultBudget)
	released := false
	if err := c.Set("output_code", "int main(){}", func() { released = true }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Remove("output_code"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !released {
		t.Fatal("expected release hook to fire on remove")
	}
	if c.Count() != 0 {
		t.Fatalf("expected 0 entries after remove, got %d", c.Count())
	}
}

func TestMemoryUsageTracksRebinds(t *testing.T) {
	c := New(DefaultBudget)
	if err := c.Set("k", "abc", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.MemoryUsage(); got != 3 {
		t.Fatalf("expected usage 3, got %d", got)
	}
	if err := c.Set("k", "abcde", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.MemoryUsage(); got != 5 {
		t.Fatalf("expected usage 5 after rebind, got %d", got)
	}
}
