package compiler

import (
	"strings"
	"testing"

	"github.com/package-register/tinyc/config"
	"github.com/package-register/tinyc/errs"
)

const factorialSource = `
func factorial(n: int): int {
    var result = 1;
    while (n > 1) {
        result = result * n;
        n = n - 1;
    }
    return result;
}

func main(): int {
    var x = 5;
    print(factorial(x));
    return 0;
}
`

func TestCompileFactorialToC(t *testing.T) {
	cfg := config.FromDefaults(config.WithTarget("c"))
	result, err := Compile(factorialSource, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("expected pipeline to succeed, got failures: %+v", result.Outcome.Failures)
	}
	if !strings.Contains(result.OutputCode, "int factorial(int n)") {
		t.Fatalf("expected a factorial signature in output:\n%s", result.OutputCode)
	}
}

func TestCompileFactorialToIR(t *testing.T) {
	cfg := config.FromDefaults(config.WithTarget("ir"))
	result, err := Compile(factorialSource, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("expected pipeline to succeed, got failures: %+v", result.Outcome.Failures)
	}
	if !strings.Contains(result.OutputCode, "define i32 @factorial") {
		t.Fatalf("expected a factorial definition in output:\n%s", result.OutputCode)
	}
}

func TestCompileStopsAtFirstFailureUnderStrictPolicy(t *testing.T) {
	cfg := config.FromDefaults(config.WithFaultTolerance("strict"))
	result, err := Compile(`func main(): int { return y; }`, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Succeeded() {
		t.Fatal("expected failure for an undefined variable")
	}
	if len(result.Outcome.Failures) != 1 {
		t.Fatalf("expected exactly one failure under Strict, got %d", len(result.Outcome.Failures))
	}
	if !strings.Contains(result.Outcome.Failures[0].Message, "Undefined variable") {
		t.Fatalf("expected an undefined-variable message, got %q", result.Outcome.Failures[0].Message)
	}
}

func TestCompileEmptySourceFails(t *testing.T) {
	cfg := config.FromDefaults()
	result, err := Compile("", cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Succeeded() {
		t.Fatal("expected failure for empty source")
	}
	if result.Outcome.Failures[0].Code != errs.NullInput && result.Outcome.Failures[0].Code != errs.InvalidInput {
		t.Fatalf("expected NullInput or InvalidInput, got %v", result.Outcome.Failures[0].Code)
	}
}
