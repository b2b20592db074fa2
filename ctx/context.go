// Package ctx implements Context: the thread-safe, reference-counted,
// memory-capped key/value store that carries data between pipeline stages.
//
// Every mutator takes a single exclusive lock; readers take the same lock
// briefly and return the stored value itself (a borrowed view) or an owned
// reference.
package ctx

import (
	"sync"

	"github.com/package-register/tinyc/errs"
)

// Sized lets a Context value report its own accounted size. Values that do
// not implement it fall back to defaultEntrySize.
type Sized interface {
	Size() int64
}

// defaultEntrySize is charged against the memory budget for values that do
// not implement Sized. It is a deliberately coarse estimate: the budget is
// a monotonic tracking mechanism, not a byte-exact accountant.
const defaultEntrySize int64 = 64

// Budget configures the hard caps a Context enforces.
type Budget struct {
	MaxMemory    int64 // bytes; 0 means unlimited
	MaxKeyLength int   // 0 means unlimited
	MaxEntries   int   // 0 means unlimited
}

// DefaultBudget is generous enough for normal single-compile-unit use but
// still bounds runaway embedders.
var DefaultBudget = Budget{
	MaxMemory:    64 << 20, // 64 MiB
	MaxKeyLength: 256,
	MaxEntries:   4096,
}

type entry struct {
	value    any
	size     int64
	refCount int
	release  func()
	removed  bool
}

// Context is the shared typed key/value store passed through the pipeline.
// Every observable mutation is protected by a single exclusive lock, per
// spec: readers acquire the same lock briefly to obtain a snapshot or a
// reference.
type Context struct {
	mu      sync.Mutex
	budget  Budget
	entries map[string]*entry
	memUsed int64
}

// New creates an empty Context enforcing the given budget.
func New(budget Budget) *Context {
	return &Context{
		budget:  budget,
		entries: make(map[string]*entry),
	}
}

func sizeOf(v any) int64 {
	switch x := v.(type) {
	case Sized:
		return x.Size()
	case string:
		return int64(len(x))
	case []byte:
		return int64(len(x))
	}
	return defaultEntrySize
}

// Set binds or rebinds key to value. On rebind, the prior value is released
// before the new value is stored. release may be nil.
func (c *Context) Set(key string, value any, release func()) error {
	if c.budget.MaxKeyLength > 0 && len(key) > c.budget.MaxKeyLength {
		return errs.New(errs.KeyTooLong, "key exceeds maximum length: "+key)
	}

	size := sizeOf(value)

	c.mu.Lock()
	defer c.mu.Unlock()

	prior, existed := c.entries[key]
	if !existed && c.budget.MaxEntries > 0 && len(c.entries) >= c.budget.MaxEntries {
		return errs.New(errs.CapacityExceeded, "context entry capacity exceeded")
	}

	projected := c.memUsed - priorSize(prior, existed) + size
	if c.budget.MaxMemory > 0 && projected > c.budget.MaxMemory {
		return errs.New(errs.MemoryLimitExceeded, "context memory budget exceeded")
	}

	if existed {
		c.releaseLocked(key, prior)
	}

	c.entries[key] = &entry{value: value, size: size, refCount: 1, release: release}
	c.memUsed = projected
	return nil
}

func priorSize(e *entry, existed bool) int64 {
	if !existed {
		return 0
	}
	return e.size
}

// Get returns a borrowed view of the value bound to key. The caller must
// treat it as read-only and must not retain it beyond the current stage.
func (c *Context) Get(key string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, errs.New(errs.NotFound, "context key not found: "+key)
	}
	return e.value, nil
}

// Ref is an owned reference that keeps a value alive until Release is
// called, regardless of whether the Context later rebinds the key.
type Ref struct {
	ctx   *Context
	key   string
	e     *entry
	value any
	once  sync.Once
}

// Value returns the referenced value.
func (r *Ref) Value() any { return r.value }

// Release drops this owned reference. It is safe to call more than once.
func (r *Ref) Release() {
	r.once.Do(func() {
		r.ctx.decrement(r.e)
	})
}

// Acquire returns an owned reference to the value bound to key.
func (c *Context) Acquire(key string) (*Ref, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, errs.New(errs.NotFound, "context key not found: "+key)
	}
	e.refCount++
	return &Ref{ctx: c, key: key, e: e, value: e.value}, nil
}

func (c *Context) decrement(e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e.refCount--
	c.maybeReleaseLocked(e)
}

// maybeReleaseLocked fires the release hook exactly once, when the last
// reference is dropped and the binding has been removed or replaced.
func (c *Context) maybeReleaseLocked(e *entry) {
	if e.refCount <= 0 && e.removed && e.release != nil {
		hook := e.release
		e.release = nil
		hook()
	}
}

// releaseLocked unbinds key's current entry (rebind or Remove path): it
// decrements the binding's own reference and, if no owned Refs remain,
// fires the release hook immediately.
func (c *Context) releaseLocked(key string, e *entry) {
	delete(c.entries, key)
	c.memUsed -= e.size
	e.removed = true
	e.refCount--
	c.maybeReleaseLocked(e)
}

// Remove drops the binding for key and decrements its reference.
func (c *Context) Remove(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return errs.New(errs.NotFound, "context key not found: "+key)
	}
	c.releaseLocked(key, e)
	return nil
}

// Count returns the number of bound entries.
func (c *Context) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// MemoryUsage returns the currently tracked memory, in bytes, for bound
// entries.
func (c *Context) MemoryUsage() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.memUsed
}

// Clear removes every binding, releasing each entry whose reference count
// reaches zero.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		c.releaseLocked(key, e)
	}
}
