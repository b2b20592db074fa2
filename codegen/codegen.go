package codegen

import (
	"github.com/package-register/tinyc/ast"
	"github.com/package-register/tinyc/ctx"
	"github.com/package-register/tinyc/engine"
	"github.com/package-register/tinyc/errs"
)

const (
	astKey        = "ast"
	outputCodeKey = "output_code"
	configKey     = "codegen_config"
)

// Emit dispatches to the C or IR emitter per cfg.Target.
func Emit(program *ast.Program, cfg Config) (string, error) {
	switch cfg.Target {
	case C:
		return emitC(program, cfg), nil
	case IR:
		return emitIR(program, cfg), nil
	default:
		return "", errs.New(errs.InvalidInput, "unsupported code generation target")
	}
}

// Stage is the engine.Stage implementation wired into the compiler
// pipeline: it reads ast (typed) and a Config, and binds output_code.
// The Config is read from a "codegen_config" Context entry if one is
// bound (letting middleware or an embedder override it per run);
// otherwise the Stage's own default is used.
type Stage struct {
	Default Config
}

// New creates the CodeGen stage with the given default configuration.
func New(cfg Config) *Stage { return &Stage{Default: cfg} }

func (s *Stage) Name() string { return "codegen" }

func (s *Stage) Run(c *ctx.Context) engine.StageOutcome {
	v, err := c.Get(astKey)
	if err != nil {
		return engine.Failure(errs.NullInput, "ast not bound in context")
	}
	program, ok := v.(*ast.Program)
	if !ok {
		return engine.Failure(errs.InvalidInput, "ast is not a *ast.Program")
	}

	cfg := s.Default
	if v, err := c.Get(configKey); err == nil {
		if override, ok := v.(Config); ok {
			cfg = override
		}
	}

	output, emitErr := Emit(program, cfg)
	if emitErr != nil {
		return engine.FromError(emitErr)
	}

	if err := c.Set(outputCodeKey, output, nil); err != nil {
		return engine.FromError(err)
	}
	return engine.Success()
}

var _ engine.Stage = (*Stage)(nil)
