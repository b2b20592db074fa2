package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/package-register/tinyc/ast"
)

type cEmitter struct {
	buf    strings.Builder
	pretty bool
}

func emitC(program *ast.Program, cfg Config) string {
	e := &cEmitter{pretty: cfg.PrettyPrint}

	if cfg.EmitComments {
		e.buf.WriteString("// Generated by tinyc\n")
	}
	e.buf.WriteString("#include <stdio.h>\n#include <stdbool.h>\n\n")

	for _, fn := range program.Functions {
		e.buf.WriteString(e.signature(fn))
		e.buf.WriteString(";\n")
	}
	e.buf.WriteString("\n")

	for i, fn := range program.Functions {
		if i > 0 {
			e.buf.WriteString("\n")
		}
		e.buf.WriteString(e.signature(fn))
		e.buf.WriteString(" ")
		e.emitBlock(fn.Body, 0)
		e.buf.WriteString("\n")
	}

	return e.buf.String()
}

func cType(t ast.Type) string {
	switch t {
	case ast.Int:
		return "int"
	case ast.Bool:
		return "bool"
	case ast.Void:
		return "void"
	default:
		return "int"
	}
}

func (e *cEmitter) signature(fn *ast.Function) string {
	params := "void"
	if len(fn.Params) > 0 {
		parts := make([]string, len(fn.Params))
		for i, p := range fn.Params {
			parts[i] = fmt.Sprintf("%s %s", cType(p.Type), p.Name)
		}
		params = strings.Join(parts, ", ")
	}
	return fmt.Sprintf("%s %s(%s)", cType(fn.ReturnType), fn.Name, params)
}

func (e *cEmitter) indent(level int) string {
	if !e.pretty {
		return ""
	}
	return strings.Repeat("    ", level)
}

func (e *cEmitter) emitBlock(b *ast.Block, level int) {
	e.buf.WriteString("{\n")
	for _, stmt := range b.Stmts {
		e.emitStmt(stmt, level+1)
	}
	e.buf.WriteString(e.indent(level))
	e.buf.WriteString("}\n")
}

func (e *cEmitter) emitStmt(stmt ast.Stmt, level int) {
	ind := e.indent(level)
	switch st := stmt.(type) {
	case *ast.VarDecl:
		e.buf.WriteString(fmt.Sprintf("%s%s %s = %s;\n", ind, cType(st.DeclaredType), st.Name, e.emitExpr(st.Init)))

	case *ast.Assign:
		e.buf.WriteString(fmt.Sprintf("%s%s = %s;\n", ind, st.Name, e.emitExpr(st.Expr)))

	case *ast.If:
		e.buf.WriteString(fmt.Sprintf("%sif (%s) ", ind, e.emitExpr(st.Cond)))
		e.emitBlock(st.Then, level)
		if st.Else != nil {
			e.buf.WriteString(ind)
			e.buf.WriteString("else ")
			e.emitBlock(st.Else, level)
		}

	case *ast.While:
		e.buf.WriteString(fmt.Sprintf("%swhile (%s) ", ind, e.emitExpr(st.Cond)))
		e.emitBlock(st.Body, level)

	case *ast.Return:
		if st.Expr == nil {
			e.buf.WriteString(ind + "return;\n")
		} else {
			e.buf.WriteString(fmt.Sprintf("%sreturn %s;\n", ind, e.emitExpr(st.Expr)))
		}

	case *ast.ExprStmt:
		e.buf.WriteString(fmt.Sprintf("%s%s;\n", ind, e.emitExpr(st.Expr)))

	case *ast.Block:
		e.buf.WriteString(ind)
		e.emitBlock(st, level)
	}
}

func (e *cEmitter) emitExpr(expr ast.Expr) string {
	switch ex := expr.(type) {
	case *ast.IntLit:
		return strconv.FormatInt(ex.Value, 10)

	case *ast.BoolLit:
		if ex.Value {
			return "true"
		}
		return "false"

	case *ast.Var:
		return ex.Name

	case *ast.Unary:
		return fmt.Sprintf("(!%s)", e.emitExpr(ex.Operand))

	case *ast.Binary:
		return fmt.Sprintf("(%s %s %s)", e.emitExpr(ex.Left), ex.Op.String(), e.emitExpr(ex.Right))

	case *ast.Call:
		if ex.Name == "print" {
			return fmt.Sprintf(`printf("%%d\n", %s)`, e.emitExpr(ex.Args[0]))
		}
		args := make([]string, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = e.emitExpr(a)
		}
		return fmt.Sprintf("%s(%s)", ex.Name, strings.Join(args, ", "))

	default:
		return ""
	}
}
