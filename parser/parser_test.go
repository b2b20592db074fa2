package parser

import (
	"testing"

	"github.com/package-register/tinyc/ast"
	"github.com/package-register/tinyc/lexer"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	stream, _, hasError := lexer.Lex(src)
	if hasError {
		t.Fatalf("unexpected lex error in fixture: %q", src)
	}
	program, err := Parse(stream)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return program
}

func TestParseSimpleFunction(t *testing.T) {
	program := mustParse(t, `func main(): int { return 0; }`)
	if len(program.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(program.Functions))
	}
	fn := program.Functions[0]
	if fn.Name != "main" || fn.ReturnType != ast.Int {
		t.Fatalf("unexpected function: %+v", fn)
	}
	if len(fn.Body.Stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(fn.Body.Stmts))
	}
	ret, ok := fn.Body.Stmts[0].(*ast.Return)
	if !ok {
		t.Fatalf("expected Return, got %T", fn.Body.Stmts[0])
	}
	lit, ok := ret.Expr.(*ast.IntLit)
	if !ok || lit.Value != 0 {
		t.Fatalf("unexpected return expr: %+v", ret.Expr)
	}
}

func TestParseParams(t *testing.T) {
	program := mustParse(t, `func add(a: int, b: int): int { return a; }`)
	fn := program.Functions[0]
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(fn.Params))
	}
	if fn.Params[0].Name != "a" || fn.Params[0].Type != ast.Int {
		t.Fatalf("unexpected param 0: %+v", fn.Params[0])
	}
}

func TestParseZeroFunctionsRejected(t *testing.T) {
	stream, _, _ := lexer.Lex("   \n\n")
	_, err := Parse(stream)
	if err == nil {
		t.Fatal("expected parse error for empty program")
	}
}

func TestParseTrailingCommaInParamsRejected(t *testing.T) {
	stream, _, _ := lexer.Lex(`func f(a: int,): int { return a; }`)
	_, err := Parse(stream)
	if err == nil {
		t.Fatal("expected parse error for trailing comma in params")
	}
}

func TestParseTrailingCommaInArgsRejected(t *testing.T) {
	stream, _, _ := lexer.Lex(`func main(): int { print(1,); return 0; }`)
	_, err := Parse(stream)
	if err == nil {
		t.Fatal("expected parse error for trailing comma in args")
	}
}

func TestParseMissingSemicolon(t *testing.T) {
	stream, _, _ := lexer.Lex(`func main(): int { var x = 1 return x; }`)
	_, err := Parse(stream)
	if err == nil {
		t.Fatal("expected parse error for missing semicolon")
	}
}

func TestParseAssignVsExprStmtDisambiguation(t *testing.T) {
	program := mustParse(t, `func main(): int { var x = 1; x = 2; print(x); return 0; }`)
	stmts := program.Functions[0].Body.Stmts
	if _, ok := stmts[1].(*ast.Assign); !ok {
		t.Fatalf("expected Assign, got %T", stmts[1])
	}
	exprStmt, ok := stmts[2].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected ExprStmt, got %T", stmts[2])
	}
	if _, ok := exprStmt.Expr.(*ast.Call); !ok {
		t.Fatalf("expected Call inside ExprStmt, got %T", exprStmt.Expr)
	}
}

func TestParseParenthesesDoNotCreateGroupingNode(t *testing.T) {
	program := mustParse(t, `func main(): int { return (1 + 2); }`)
	ret := program.Functions[0].Body.Stmts[0].(*ast.Return)
	bin, ok := ret.Expr.(*ast.Binary)
	if !ok {
		t.Fatalf("expected Binary directly (no grouping node), got %T", ret.Expr)
	}
	if bin.Op != ast.Add {
		t.Fatalf("unexpected op: %v", bin.Op)
	}
}

func TestParsePrecedenceAndLeftAssociativity(t *testing.T) {
	// "1 + 2 * 3" should parse as Add(1, Mul(2,3))
	program := mustParse(t, `func main(): int { return 1 + 2 * 3; }`)
	ret := program.Functions[0].Body.Stmts[0].(*ast.Return)
	add, ok := ret.Expr.(*ast.Binary)
	if !ok || add.Op != ast.Add {
		t.Fatalf("expected top-level Add, got %+v", ret.Expr)
	}
	if _, ok := add.Left.(*ast.IntLit); !ok {
		t.Fatalf("expected left operand IntLit, got %T", add.Left)
	}
	mul, ok := add.Right.(*ast.Binary)
	if !ok || mul.Op != ast.Mul {
		t.Fatalf("expected right operand Mul, got %+v", add.Right)
	}

	// "1 - 2 - 3" should parse as Sub(Sub(1,2),3) (left-associative)
	program2 := mustParse(t, `func main(): int { return 1 - 2 - 3; }`)
	ret2 := program2.Functions[0].Body.Stmts[0].(*ast.Return)
	outer, ok := ret2.Expr.(*ast.Binary)
	if !ok || outer.Op != ast.Sub {
		t.Fatalf("expected outer Sub, got %+v", ret2.Expr)
	}
	if _, ok := outer.Left.(*ast.Binary); !ok {
		t.Fatalf("expected left-associative nesting on the left, got %T", outer.Left)
	}
	if _, ok := outer.Right.(*ast.IntLit); !ok {
		t.Fatalf("expected right operand IntLit, got %T", outer.Right)
	}
}

func TestParseIfElseAndWhile(t *testing.T) {
	program := mustParse(t, `func main(): int {
		if (true) { var x = 1; } else { var x = 2; }
		while (false) { var y = 1; }
		return 0;
	}`)
	stmts := program.Functions[0].Body.Stmts
	ifStmt, ok := stmts[0].(*ast.If)
	if !ok || ifStmt.Else == nil {
		t.Fatalf("expected If with Else, got %+v", stmts[0])
	}
	if _, ok := stmts[1].(*ast.While); !ok {
		t.Fatalf("expected While, got %T", stmts[1])
	}
}

func TestParseFactorialFixture(t *testing.T) {
	program := mustParse(t, `func factorial(n: int) : int { var result = 1; while (n > 1) { result = result * n; n = n - 1; } return result; } func main() : int { var x = 5; var fact = factorial(x); print(fact); return 0; }`)
	if len(program.Functions) != 2 {
		t.Fatalf("expected 2 functions, got %d", len(program.Functions))
	}
	if program.Functions[0].Name != "factorial" || program.Functions[1].Name != "main" {
		t.Fatalf("unexpected function order: %s, %s", program.Functions[0].Name, program.Functions[1].Name)
	}
}
