// Package engine implements the middleware-wrapping execution engine: Stage,
// Middleware, and Pipeline, for the compiler's four-stage pipeline (lexer,
// parser, type checker, code generator), but generic enough for an embedder
// to add further stages.
//
// Middleware composes in an onion: the outermost middleware's "before"
// logic runs first and its "after" logic runs last. Construction uses the
// functional-options pattern throughout.
package engine

import (
	"github.com/package-register/tinyc/ctx"
	"github.com/package-register/tinyc/errs"
)

// StageOutcome reports whether a stage succeeded and, on failure, why.
type StageOutcome struct {
	Succeeded    bool
	ErrorCode    errs.Code
	ErrorMessage string
}

// Success builds a successful StageOutcome.
func Success() StageOutcome {
	return StageOutcome{Succeeded: true}
}

// Failure builds a failing StageOutcome with the given code and message.
func Failure(code errs.Code, message string) StageOutcome {
	return StageOutcome{Succeeded: false, ErrorCode: code, ErrorMessage: message}
}

// FromError builds a StageOutcome from an error, classifying it via errs.Classify.
func FromError(err error) StageOutcome {
	if err == nil {
		return Success()
	}
	return Failure(errs.Classify(err), err.Error())
}

// Stage is a named unit of work producing a StageOutcome given a Context.
// Stages consume and produce data only via Context keys; they never call
// each other directly.
type Stage interface {
	Name() string
	Run(c *ctx.Context) StageOutcome
}

// StageFunc adapts a plain function to the Stage interface.
type StageFunc struct {
	StageName string
	Fn        func(c *ctx.Context) StageOutcome
}

func (f StageFunc) Name() string { return f.StageName }

func (f StageFunc) Run(c *ctx.Context) StageOutcome { return f.Fn(c) }
