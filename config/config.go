// Package config loads the compiler's tunables from a YAML document into a
// CompilerConfig, and offers functional options for programmatic overrides.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/package-register/tinyc/codegen"
	"github.com/package-register/tinyc/ctx"
	"github.com/package-register/tinyc/engine"
	"github.com/package-register/tinyc/errs"
)

// CompilerConfig is the full set of tunables a compiler run is built from:
// code generation target and formatting, pipeline fault tolerance and error
// detail, and the Context memory budget the run enforces.
type CompilerConfig struct {
	Target       string `yaml:"target"`
	EmitComments bool   `yaml:"emit_comments"`
	PrettyPrint  bool   `yaml:"pretty_print"`

	FaultTolerance string `yaml:"fault_tolerance"`
	DetailLevel    string `yaml:"detail_level"`

	MaxMemory    int64 `yaml:"max_memory_bytes"`
	MaxKeyLength int   `yaml:"max_key_length"`
	MaxEntries   int   `yaml:"max_entries"`
}

// Default uses ctx.DefaultBudget and engine.New's own defaults (Strict, full
// detail), the C target, and pretty-printing on. PrettyPrint differs from a
// zero codegen.Config, which has pretty-printing off.
func Default() CompilerConfig {
	return CompilerConfig{
		Target:         codegen.C.String(),
		EmitComments:   false,
		PrettyPrint:    true,
		FaultTolerance: "strict",
		DetailLevel:    "full",
		MaxMemory:      ctx.DefaultBudget.MaxMemory,
		MaxKeyLength:   ctx.DefaultBudget.MaxKeyLength,
		MaxEntries:     ctx.DefaultBudget.MaxEntries,
	}
}

// Option mutates a CompilerConfig after it has been loaded, letting an
// embedder override a handful of fields without hand-editing YAML.
type Option func(*CompilerConfig)

func WithTarget(target string) Option {
	return func(c *CompilerConfig) { c.Target = target }
}

func WithPrettyPrint(pretty bool) Option {
	return func(c *CompilerConfig) { c.PrettyPrint = pretty }
}

func WithEmitComments(emit bool) Option {
	return func(c *CompilerConfig) { c.EmitComments = emit }
}

func WithFaultTolerance(policy string) Option {
	return func(c *CompilerConfig) { c.FaultTolerance = policy }
}

func WithDetailLevel(level string) Option {
	return func(c *CompilerConfig) { c.DetailLevel = level }
}

func WithMemoryBudget(maxMemory int64, maxKeyLength, maxEntries int) Option {
	return func(c *CompilerConfig) {
		c.MaxMemory = maxMemory
		c.MaxKeyLength = maxKeyLength
		c.MaxEntries = maxEntries
	}
}

// Load reads and decodes a YAML document at path into a CompilerConfig
// seeded with Default, then applies opts in order.
func Load(path string, opts ...Option) (*CompilerConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.NotFound, "reading config file", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errs.Wrap(errs.InvalidInput, "parsing config YAML", err)
	}

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg, nil
}

// FromDefaults builds a CompilerConfig from Default with opts applied,
// bypassing the filesystem entirely. Used by callers (and tests) that want
// programmatic configuration without a YAML file on disk.
func FromDefaults(opts ...Option) *CompilerConfig {
	cfg := Default()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// CodegenConfig projects the code-generation fields of c into a
// codegen.Config, defaulting to the C target if Target does not parse.
func (c *CompilerConfig) CodegenConfig() codegen.Config {
	target, ok := codegen.ParseTarget(c.Target)
	if !ok {
		target = codegen.C
	}
	return codegen.Config{
		Target:       target,
		EmitComments: c.EmitComments,
		PrettyPrint:  c.PrettyPrint,
	}
}

// FaultTolerancePolicy maps the configured policy name to an
// engine.FaultTolerance, defaulting to Strict for an unrecognized name.
func (c *CompilerConfig) FaultTolerancePolicy() engine.FaultTolerance {
	switch c.FaultTolerance {
	case "lenient":
		return engine.Lenient
	case "best_effort", "best-effort":
		return engine.BestEffort
	case "custom":
		return engine.Custom
	default:
		return engine.Strict
	}
}

// ErrorDetailLevel maps the configured level name to an errs.DetailLevel,
// defaulting to Full for an unrecognized name.
func (c *CompilerConfig) ErrorDetailLevel() errs.DetailLevel {
	if c.DetailLevel == "minimal" {
		return errs.Minimal
	}
	return errs.Full
}

// Budget projects the memory-budget fields of c into a ctx.Budget.
func (c *CompilerConfig) Budget() ctx.Budget {
	return ctx.Budget{
		MaxMemory:    c.MaxMemory,
		MaxKeyLength: c.MaxKeyLength,
		MaxEntries:   c.MaxEntries,
	}
}
