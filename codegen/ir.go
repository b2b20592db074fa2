package codegen

import (
	"fmt"
	"strings"

	"github.com/package-register/tinyc/ast"
)

type irEmitter struct {
	buf          strings.Builder
	tempCounter  int
	labelCounter int
}

func (e *irEmitter) nextTemp() string {
	t := fmt.Sprintf("%%t%d", e.tempCounter)
	e.tempCounter++
	return t
}

func (e *irEmitter) nextLabel() string {
	l := fmt.Sprintf("L%d", e.labelCounter)
	e.labelCounter++
	return l
}

func (e *irEmitter) emit(line string) {
	e.buf.WriteString(line)
	e.buf.WriteString("\n")
}

func emitIR(program *ast.Program, cfg Config) string {
	e := &irEmitter{}

	if cfg.EmitComments {
		e.emit("; Generated by tinyc")
	}
	e.emit("declare void @print(i32)")
	e.emit("")

	for i, fn := range program.Functions {
		if i > 0 {
			e.emit("")
		}
		e.emitFunction(fn)
	}

	return e.buf.String()
}

func irReturnType(t ast.Type) string {
	switch t {
	case ast.Int:
		return "i32"
	case ast.Bool:
		return "i1"
	default:
		return "void"
	}
}

func (e *irEmitter) emitFunction(fn *ast.Function) {
	e.tempCounter = 0
	e.labelCounter = 0

	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = fmt.Sprintf("i32 %%%s.param", p.Name)
	}
	e.emit(fmt.Sprintf("define %s @%s(%s) {", irReturnType(fn.ReturnType), fn.Name, strings.Join(params, ", ")))
	e.emit("entry:")

	for _, p := range fn.Params {
		e.emit(fmt.Sprintf("%%%s = alloca i32", p.Name))
		e.emit(fmt.Sprintf("store i32 %%%s.param, %%%s", p.Name, p.Name))
	}

	for _, stmt := range fn.Body.Stmts {
		e.emitStmt(stmt)
	}

	e.emit("}")
}

func (e *irEmitter) emitStmt(stmt ast.Stmt) {
	switch st := stmt.(type) {
	case *ast.VarDecl:
		e.emit(fmt.Sprintf("%%%s = alloca i32", st.Name))
		v := e.emitExpr(st.Init)
		e.emit(fmt.Sprintf("store i32 %s, %%%s", v, st.Name))

	case *ast.Assign:
		v := e.emitExpr(st.Expr)
		e.emit(fmt.Sprintf("store i32 %s, %%%s", v, st.Name))

	case *ast.If:
		e.emitIf(st)

	case *ast.While:
		e.emitWhile(st)

	case *ast.Return:
		if st.Expr == nil {
			e.emit("ret void")
			return
		}
		v := e.emitExpr(st.Expr)
		e.emit(fmt.Sprintf("ret i32 %s", v))

	case *ast.ExprStmt:
		e.emitExpr(st.Expr)

	case *ast.Block:
		for _, s := range st.Stmts {
			e.emitStmt(s)
		}
	}
}

func (e *irEmitter) emitIf(st *ast.If) {
	c := e.emitExpr(st.Cond)
	thenLabel := e.nextLabel()

	var elseLabel string
	if st.Else != nil {
		elseLabel = e.nextLabel()
	}
	endLabel := e.nextLabel()

	branchTarget := endLabel
	if st.Else != nil {
		branchTarget = elseLabel
	}
	e.emit(fmt.Sprintf("br i1 %s, label %%%s, label %%%s", c, thenLabel, branchTarget))

	e.emit(thenLabel + ":")
	for _, s := range st.Then.Stmts {
		e.emitStmt(s)
	}
	e.emit(fmt.Sprintf("br label %%%s", endLabel))

	if st.Else != nil {
		e.emit(elseLabel + ":")
		for _, s := range st.Else.Stmts {
			e.emitStmt(s)
		}
		e.emit(fmt.Sprintf("br label %%%s", endLabel))
	}

	e.emit(endLabel + ":")
}

func (e *irEmitter) emitWhile(st *ast.While) {
	condLabel := e.nextLabel()
	bodyLabel := e.nextLabel()
	endLabel := e.nextLabel()

	e.emit(fmt.Sprintf("br label %%%s", condLabel))
	e.emit(condLabel + ":")
	c := e.emitExpr(st.Cond)
	e.emit(fmt.Sprintf("br i1 %s, label %%%s, label %%%s", c, bodyLabel, endLabel))

	e.emit(bodyLabel + ":")
	for _, s := range st.Body.Stmts {
		e.emitStmt(s)
	}
	e.emit(fmt.Sprintf("br label %%%s", condLabel))

	e.emit(endLabel + ":")
}

func (e *irEmitter) emitExpr(expr ast.Expr) string {
	switch ex := expr.(type) {
	case *ast.IntLit:
		t := e.nextTemp()
		e.emit(fmt.Sprintf("%s = const i32 %d", t, ex.Value))
		return t

	case *ast.BoolLit:
		t := e.nextTemp()
		v := 0
		if ex.Value {
			v = 1
		}
		e.emit(fmt.Sprintf("%s = const i1 %d", t, v))
		return t

	case *ast.Var:
		t := e.nextTemp()
		e.emit(fmt.Sprintf("%s = load %%%s", t, ex.Name))
		return t

	case *ast.Unary:
		v := e.emitExpr(ex.Operand)
		t := e.nextTemp()
		e.emit(fmt.Sprintf("%s = xor i1 %s, 1", t, v))
		return t

	case *ast.Binary:
		return e.emitBinary(ex)

	case *ast.Call:
		return e.emitCall(ex)

	default:
		return ""
	}
}

func (e *irEmitter) emitBinary(ex *ast.Binary) string {
	l := e.emitExpr(ex.Left)
	r := e.emitExpr(ex.Right)
	t := e.nextTemp()

	switch ex.Op {
	case ast.Add:
		e.emit(fmt.Sprintf("%s = add i32 %s, %s", t, l, r))
	case ast.Sub:
		e.emit(fmt.Sprintf("%s = sub i32 %s, %s", t, l, r))
	case ast.Mul:
		e.emit(fmt.Sprintf("%s = mul i32 %s, %s", t, l, r))
	case ast.Div:
		e.emit(fmt.Sprintf("%s = div i32 %s, %s", t, l, r))
	case ast.Mod:
		e.emit(fmt.Sprintf("%s = mod i32 %s, %s", t, l, r))
	case ast.OpEq:
		e.emit(fmt.Sprintf("%s = icmp eq i32 %s, %s", t, l, r))
	case ast.OpNe:
		e.emit(fmt.Sprintf("%s = icmp ne i32 %s, %s", t, l, r))
	case ast.OpLt:
		e.emit(fmt.Sprintf("%s = icmp lt i32 %s, %s", t, l, r))
	case ast.OpLe:
		e.emit(fmt.Sprintf("%s = icmp le i32 %s, %s", t, l, r))
	case ast.OpGt:
		e.emit(fmt.Sprintf("%s = icmp gt i32 %s, %s", t, l, r))
	case ast.OpGe:
		e.emit(fmt.Sprintf("%s = icmp ge i32 %s, %s", t, l, r))
	case ast.OpAnd:
		e.emit(fmt.Sprintf("%s = and i1 %s, %s", t, l, r))
	case ast.OpOr:
		e.emit(fmt.Sprintf("%s = or i1 %s, %s", t, l, r))
	}
	return t
}

func (e *irEmitter) emitCall(ex *ast.Call) string {
	args := make([]string, len(ex.Args))
	for i, a := range ex.Args {
		args[i] = e.emitExpr(a)
	}

	if ex.Name == "print" {
		e.emit(fmt.Sprintf("call void @print(i32 %s)", args[0]))
		return ""
	}

	t := e.nextTemp()
	e.emit(fmt.Sprintf("%s = call i32 @%s(%s)", t, ex.Name, strings.Join(args, ", ")))
	return t
}
