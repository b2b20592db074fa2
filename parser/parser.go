// Package parser implements the Parser stage: tokens -> ast, a recursive-
// descent parser following the grammar and precedence table exactly, using
// peek/expect/advance helpers and one parse method per grammar rule.
package parser

import (
	"fmt"

	"github.com/package-register/tinyc/ast"
	"github.com/package-register/tinyc/ctx"
	"github.com/package-register/tinyc/engine"
	"github.com/package-register/tinyc/errs"
	"github.com/package-register/tinyc/token"
)

const (
	tokensKey = "tokens"
	astKey    = "ast"
)

// syntaxError carries a message plus the offending token's position; it is
// always surfaced to the caller as errs.InvalidInput.
type syntaxError struct {
	msg  string
	line int
	col  int
}

func (e *syntaxError) Error() string {
	return fmt.Sprintf("%s (line %d, column %d)", e.msg, e.line, e.col)
}

func newSyntaxError(tok token.Token, format string, args ...any) *syntaxError {
	return &syntaxError{msg: fmt.Sprintf(format, args...), line: tok.Line, col: tok.Column}
}

type parser struct {
	s *token.TokenStream
}

func (p *parser) peek() token.Token { return p.s.Peek() }

func (p *parser) peekAt(offset int) token.Token { return p.s.PeekAt(offset) }

func (p *parser) advance() token.Token { return p.s.Next() }

func (p *parser) check(k token.Kind) bool { return p.peek().Kind == k }

func (p *parser) expect(k token.Kind, what string) (token.Token, error) {
	if !p.check(k) {
		return token.Token{}, newSyntaxError(p.peek(), "expected %s, got %q", what, p.peek().Lexeme)
	}
	return p.advance(), nil
}

// Parse turns a finished token stream into a Program, or the first grammar
// violation encountered.
func Parse(s *token.TokenStream) (*ast.Program, error) {
	p := &parser{s: s}
	return p.parseProgram()
}

func (p *parser) parseProgram() (*ast.Program, error) {
	var funcs []*ast.Function
	for !p.check(token.EOF) {
		fn, err := p.parseFunction()
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, fn)
	}
	if len(funcs) == 0 {
		return nil, &syntaxError{msg: "program must contain at least one function", line: p.peek().Line, col: p.peek().Column}
	}
	return &ast.Program{Functions: funcs}, nil
}

func (p *parser) parseFunction() (*ast.Function, error) {
	if _, err := p.expect(token.Func, "'func'"); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(token.Identifier, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen, "'('"); err != nil {
		return nil, err
	}

	var params []ast.Param
	if !p.check(token.RParen) {
		params, err = p.parseParams()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.RParen, "')'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Colon, "':'"); err != nil {
		return nil, err
	}
	retType, err := p.parseType()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &ast.Function{Name: nameTok.Lexeme, Params: params, ReturnType: retType, Body: body}, nil
}

func (p *parser) parseParams() ([]ast.Param, error) {
	var params []ast.Param
	param, err := p.parseParam()
	if err != nil {
		return nil, err
	}
	params = append(params, param)

	for p.check(token.Comma) {
		p.advance()
		if p.check(token.RParen) {
			return nil, newSyntaxError(p.peek(), "trailing comma is not allowed in parameter list")
		}
		param, err := p.parseParam()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
	}
	return params, nil
}

func (p *parser) parseParam() (ast.Param, error) {
	nameTok, err := p.expect(token.Identifier, "parameter name")
	if err != nil {
		return ast.Param{}, err
	}
	if _, err := p.expect(token.Colon, "':'"); err != nil {
		return ast.Param{}, err
	}
	typ, err := p.parseType()
	if err != nil {
		return ast.Param{}, err
	}
	return ast.Param{Name: nameTok.Lexeme, Type: typ}, nil
}

func (p *parser) parseType() (ast.Type, error) {
	switch {
	case p.check(token.IntKw):
		p.advance()
		return ast.Int, nil
	case p.check(token.BoolKw):
		p.advance()
		return ast.Bool, nil
	default:
		return ast.Unknown, newSyntaxError(p.peek(), "expected type, got %q", p.peek().Lexeme)
	}
}

func (p *parser) parseBlock() (*ast.Block, error) {
	if _, err := p.expect(token.LBrace, "'{'"); err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for !p.check(token.RBrace) && !p.check(token.EOF) {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.expect(token.RBrace, "'}'"); err != nil {
		return nil, err
	}
	return &ast.Block{Stmts: stmts}, nil
}

func (p *parser) parseStmt() (ast.Stmt, error) {
	switch {
	case p.check(token.Var):
		return p.parseVarDecl()
	case p.check(token.If):
		return p.parseIf()
	case p.check(token.While):
		return p.parseWhile()
	case p.check(token.Return):
		return p.parseReturn()
	case p.check(token.LBrace):
		return p.parseBlock()
	case p.check(token.Identifier) && p.peekAt(1).Kind == token.Assign:
		return p.parseAssign()
	default:
		return p.parseExprStmt()
	}
}

func (p *parser) parseVarDecl() (ast.Stmt, error) {
	p.advance() // "var"
	nameTok, err := p.expect(token.Identifier, "variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Assign, "'='"); err != nil {
		return nil, err
	}
	initExpr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon, "';' after variable declaration"); err != nil {
		return nil, err
	}
	return &ast.VarDecl{Name: nameTok.Lexeme, Init: initExpr}, nil
}

func (p *parser) parseAssign() (ast.Stmt, error) {
	nameTok := p.advance() // Identifier
	p.advance()            // "="
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon, "';' after assignment"); err != nil {
		return nil, err
	}
	return &ast.Assign{Name: nameTok.Lexeme, Expr: expr}, nil
}

func (p *parser) parseIf() (ast.Stmt, error) {
	p.advance() // "if"
	if _, err := p.expect(token.LParen, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen, "')'"); err != nil {
		return nil, err
	}
	thenBlock, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var elseBlock *ast.Block
	if p.check(token.Else) {
		p.advance()
		elseBlock, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return &ast.If{Cond: cond, Then: thenBlock, Else: elseBlock}, nil
}

func (p *parser) parseWhile() (ast.Stmt, error) {
	p.advance() // "while"
	if _, err := p.expect(token.LParen, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen, "')'"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.While{Cond: cond, Body: body}, nil
}

func (p *parser) parseReturn() (ast.Stmt, error) {
	p.advance() // "return"
	if p.check(token.Semicolon) {
		p.advance()
		return &ast.Return{}, nil
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon, "';' after return statement"); err != nil {
		return nil, err
	}
	return &ast.Return{Expr: expr}, nil
}

func (p *parser) parseExprStmt() (ast.Stmt, error) {
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon, "';' after expression statement"); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Expr: expr}, nil
}

func (p *parser) parseExpr() (ast.Expr, error) { return p.parseLogicOr() }

func (p *parser) parseLogicOr() (ast.Expr, error) {
	left, err := p.parseLogicAnd()
	if err != nil {
		return nil, err
	}
	for p.check(token.Or) {
		p.advance()
		right, err := p.parseLogicAnd()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(ast.OpOr, left, right)
	}
	return left, nil
}

func (p *parser) parseLogicAnd() (ast.Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.check(token.And) {
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(ast.OpAnd, left, right)
	}
	return left, nil
}

func (p *parser) parseEquality() (ast.Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.check(token.Eq) || p.check(token.Ne) {
		op := ast.OpEq
		if p.check(token.Ne) {
			op = ast.OpNe
		}
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(op, left, right)
	}
	return left, nil
}

func (p *parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.check(token.Lt) || p.check(token.Le) || p.check(token.Gt) || p.check(token.Ge) {
		var op ast.BinaryOp
		switch p.peek().Kind {
		case token.Lt:
			op = ast.OpLt
		case token.Le:
			op = ast.OpLe
		case token.Gt:
			op = ast.OpGt
		default:
			op = ast.OpGe
		}
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(op, left, right)
	}
	return left, nil
}

func (p *parser) parseTerm() (ast.Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.check(token.Plus) || p.check(token.Minus) {
		op := ast.Add
		if p.check(token.Minus) {
			op = ast.Sub
		}
		p.advance()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(op, left, right)
	}
	return left, nil
}

func (p *parser) parseFactor() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.check(token.Star) || p.check(token.Slash) || p.check(token.Percent) {
		var op ast.BinaryOp
		switch p.peek().Kind {
		case token.Star:
			op = ast.Mul
		case token.Slash:
			op = ast.Div
		default:
			op = ast.Mod
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(op, left, right)
	}
	return left, nil
}

func (p *parser) parseUnary() (ast.Expr, error) {
	if p.check(token.Not) {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnary(operand), nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek()
	switch tok.Kind {
	case token.IntLiteral:
		p.advance()
		return ast.NewIntLit(tok.NumericValue), nil
	case token.True:
		p.advance()
		return ast.NewBoolLit(true), nil
	case token.False:
		p.advance()
		return ast.NewBoolLit(false), nil
	case token.Identifier:
		p.advance()
		if p.check(token.LParen) {
			return p.parseCall(tok.Lexeme)
		}
		return ast.NewVar(tok.Lexeme), nil
	case token.LParen:
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen, "')'"); err != nil {
			return nil, err
		}
		return expr, nil
	default:
		return nil, newSyntaxError(tok, "expected expression, got %q", tok.Lexeme)
	}
}

func (p *parser) parseCall(name string) (ast.Expr, error) {
	p.advance() // "("
	var args []ast.Expr
	if !p.check(token.RParen) {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		for p.check(token.Comma) {
			p.advance()
			if p.check(token.RParen) {
				return nil, newSyntaxError(p.peek(), "trailing comma is not allowed in argument list")
			}
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
	}
	if _, err := p.expect(token.RParen, "')'"); err != nil {
		return nil, err
	}
	return ast.NewCall(name, args), nil
}

// Stage is the engine.Stage implementation wired into the compiler
// pipeline: it reads tokens and, on success, binds ast.
type Stage struct{}

// New creates the Parser stage.
func New() *Stage { return &Stage{} }

func (s *Stage) Name() string { return "parser" }

func (s *Stage) Run(c *ctx.Context) engine.StageOutcome {
	v, err := c.Get(tokensKey)
	if err != nil {
		return engine.Failure(errs.NullInput, "tokens not bound in context")
	}
	stream, ok := v.(*token.TokenStream)
	if !ok {
		return engine.Failure(errs.InvalidInput, "tokens is not a *token.TokenStream")
	}

	program, perr := Parse(stream)
	if perr != nil {
		return engine.Failure(errs.InvalidInput, perr.Error())
	}

	if err := c.Set(astKey, program, nil); err != nil {
		return engine.FromError(err)
	}
	return engine.Success()
}

var _ engine.Stage = (*Stage)(nil)
