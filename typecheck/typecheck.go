// Package typecheck implements the TypeChecker stage: a two-pass checker
// that registers function signatures (print pre-registered) before
// checking any function body, then walks each body under a parent-linked
// scope chain, annotating every Expr.Type and VarDecl.DeclaredType in
// place.
package typecheck

import (
	"fmt"

	"github.com/package-register/tinyc/ast"
	"github.com/package-register/tinyc/ctx"
	"github.com/package-register/tinyc/engine"
	"github.com/package-register/tinyc/errs"
)

const astKey = "ast"

type binding struct {
	typ        ast.Type
	isFunction bool
	paramTypes []ast.Type
	returnType ast.Type
}

type scope struct {
	parent *scope
	vars   map[string]binding
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: make(map[string]binding)}
}

func (s *scope) defineLocal(name string, b binding) bool {
	if _, exists := s.vars[name]; exists {
		return false
	}
	s.vars[name] = b
	return true
}

func (s *scope) lookup(name string) (binding, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.vars[name]; ok {
			return b, true
		}
	}
	return binding{}, false
}

// Check runs both passes over program, annotating it in place. It returns
// the first violation encountered, exactly as the stage requires.
func Check(program *ast.Program) error {
	global := newScope(nil)
	global.vars["print"] = binding{isFunction: true, paramTypes: []ast.Type{ast.Int}, returnType: ast.Void}

	for _, fn := range program.Functions {
		if _, exists := global.vars[fn.Name]; exists {
			return fmt.Errorf("duplicate function '%s'", fn.Name)
		}
		paramTypes := make([]ast.Type, len(fn.Params))
		for i, p := range fn.Params {
			paramTypes[i] = p.Type
		}
		global.vars[fn.Name] = binding{isFunction: true, paramTypes: paramTypes, returnType: fn.ReturnType}
	}

	for _, fn := range program.Functions {
		if err := checkFunction(fn, global); err != nil {
			return err
		}
	}
	return nil
}

func checkFunction(fn *ast.Function, global *scope) error {
	funcScope := newScope(global)
	for _, p := range fn.Params {
		if !funcScope.defineLocal(p.Name, binding{typ: p.Type}) {
			return fmt.Errorf("duplicate parameter '%s'", p.Name)
		}
	}
	return checkBlock(fn.Body, funcScope, fn.ReturnType)
}

func checkBlock(b *ast.Block, parent *scope, retType ast.Type) error {
	s := newScope(parent)
	for _, stmt := range b.Stmts {
		if err := checkStmt(stmt, s, retType); err != nil {
			return err
		}
	}
	return nil
}

func checkStmt(stmt ast.Stmt, s *scope, retType ast.Type) error {
	switch st := stmt.(type) {
	case *ast.VarDecl:
		t, err := checkExpr(st.Init, s)
		if err != nil {
			return err
		}
		st.DeclaredType = t
		if !s.defineLocal(st.Name, binding{typ: t}) {
			return fmt.Errorf("duplicate variable '%s'", st.Name)
		}
		return nil

	case *ast.Assign:
		b, ok := s.lookup(st.Name)
		if !ok || b.isFunction {
			return fmt.Errorf("Undefined variable '%s'", st.Name)
		}
		t, err := checkExpr(st.Expr, s)
		if err != nil {
			return err
		}
		if t != b.typ {
			return fmt.Errorf("type mismatch assigning to '%s'", st.Name)
		}
		return nil

	case *ast.If:
		t, err := checkExpr(st.Cond, s)
		if err != nil {
			return err
		}
		if t != ast.Bool {
			return fmt.Errorf("if condition must be bool")
		}
		if err := checkBlock(st.Then, s, retType); err != nil {
			return err
		}
		if st.Else != nil {
			return checkBlock(st.Else, s, retType)
		}
		return nil

	case *ast.While:
		t, err := checkExpr(st.Cond, s)
		if err != nil {
			return err
		}
		if t != ast.Bool {
			return fmt.Errorf("while condition must be bool")
		}
		return checkBlock(st.Body, s, retType)

	case *ast.Return:
		if st.Expr == nil {
			if retType != ast.Void {
				return fmt.Errorf("Return type mismatch")
			}
			return nil
		}
		t, err := checkExpr(st.Expr, s)
		if err != nil {
			return err
		}
		if t != retType {
			return fmt.Errorf("Return type mismatch")
		}
		return nil

	case *ast.ExprStmt:
		_, err := checkExpr(st.Expr, s)
		return err

	case *ast.Block:
		return checkBlock(st, s, retType)

	default:
		return fmt.Errorf("unknown statement node %T", stmt)
	}
}

func checkExpr(e ast.Expr, s *scope) (ast.Type, error) {
	switch ex := e.(type) {
	case *ast.IntLit:
		ex.SetType(ast.Int)
		return ast.Int, nil

	case *ast.BoolLit:
		ex.SetType(ast.Bool)
		return ast.Bool, nil

	case *ast.Var:
		b, ok := s.lookup(ex.Name)
		if !ok || b.isFunction {
			return ast.Unknown, fmt.Errorf("Undefined variable '%s'", ex.Name)
		}
		ex.SetType(b.typ)
		return b.typ, nil

	case *ast.Unary:
		t, err := checkExpr(ex.Operand, s)
		if err != nil {
			return ast.Unknown, err
		}
		if t != ast.Bool {
			return ast.Unknown, fmt.Errorf("logical not requires bool operand")
		}
		ex.SetType(ast.Bool)
		return ast.Bool, nil

	case *ast.Binary:
		return checkBinary(ex, s)

	case *ast.Call:
		return checkCall(ex, s)

	default:
		return ast.Unknown, fmt.Errorf("unknown expression node %T", e)
	}
}

func checkBinary(ex *ast.Binary, s *scope) (ast.Type, error) {
	lt, err := checkExpr(ex.Left, s)
	if err != nil {
		return ast.Unknown, err
	}
	rt, err := checkExpr(ex.Right, s)
	if err != nil {
		return ast.Unknown, err
	}

	switch ex.Op {
	case ast.Add, ast.Sub, ast.Mul, ast.Div, ast.Mod:
		if lt != ast.Int || rt != ast.Int {
			return ast.Unknown, fmt.Errorf("Arithmetic operator requires int")
		}
		ex.SetType(ast.Int)
		return ast.Int, nil

	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		if lt != ast.Int || rt != ast.Int {
			return ast.Unknown, fmt.Errorf("comparison operator %s requires int operands", ex.Op)
		}
		ex.SetType(ast.Bool)
		return ast.Bool, nil

	case ast.OpEq, ast.OpNe:
		if lt != rt {
			return ast.Unknown, fmt.Errorf("operands of %s must have the same type", ex.Op)
		}
		ex.SetType(ast.Bool)
		return ast.Bool, nil

	case ast.OpAnd, ast.OpOr:
		if lt != ast.Bool || rt != ast.Bool {
			return ast.Unknown, fmt.Errorf("logical operator %s requires bool operands", ex.Op)
		}
		ex.SetType(ast.Bool)
		return ast.Bool, nil

	default:
		return ast.Unknown, fmt.Errorf("unknown binary operator %v", ex.Op)
	}
}

func checkCall(ex *ast.Call, s *scope) (ast.Type, error) {
	b, ok := s.lookup(ex.Name)
	if !ok || !b.isFunction {
		return ast.Unknown, fmt.Errorf("call to undefined function '%s'", ex.Name)
	}
	if len(ex.Args) != len(b.paramTypes) {
		return ast.Unknown, fmt.Errorf("function '%s' expects %d argument(s), got %d", ex.Name, len(b.paramTypes), len(ex.Args))
	}
	for i, arg := range ex.Args {
		t, err := checkExpr(arg, s)
		if err != nil {
			return ast.Unknown, err
		}
		if t != b.paramTypes[i] {
			return ast.Unknown, fmt.Errorf("argument %d to '%s' has the wrong type", i+1, ex.Name)
		}
	}
	ex.SetType(b.returnType)
	return b.returnType, nil
}

// Stage is the engine.Stage implementation wired into the compiler
// pipeline: it reads and annotates ast in place.
type Stage struct{}

// New creates the TypeChecker stage.
func New() *Stage { return &Stage{} }

func (s *Stage) Name() string { return "typecheck" }

func (s *Stage) Run(c *ctx.Context) engine.StageOutcome {
	v, err := c.Get(astKey)
	if err != nil {
		return engine.Failure(errs.NullInput, "ast not bound in context")
	}
	program, ok := v.(*ast.Program)
	if !ok {
		return engine.Failure(errs.InvalidInput, "ast is not a *ast.Program")
	}

	if err := Check(program); err != nil {
		return engine.Failure(errs.InvalidInput, err.Error())
	}
	return engine.Success()
}

var _ engine.Stage = (*Stage)(nil)
