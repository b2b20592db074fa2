package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/package-register/tinyc/codegen"
	"github.com/package-register/tinyc/engine"
	"github.com/package-register/tinyc/errs"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tinyc.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestLoadAppliesYAMLOverDefaults(t *testing.T) {
	path := writeTemp(t, `
target: ir
emit_comments: true
fault_tolerance: lenient
detail_level: minimal
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Target != "ir" || !cfg.EmitComments {
		t.Fatalf("yaml fields not applied: %+v", cfg)
	}
	if cfg.PrettyPrint != Default().PrettyPrint {
		t.Fatalf("expected PrettyPrint to retain default, got %v", cfg.PrettyPrint)
	}
	if cfg.FaultTolerancePolicy() != engine.Lenient {
		t.Fatalf("expected Lenient policy, got %v", cfg.FaultTolerancePolicy())
	}
	if cfg.ErrorDetailLevel() != errs.Minimal {
		t.Fatalf("expected Minimal detail level, got %v", cfg.ErrorDetailLevel())
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
	if errs.Classify(err) != errs.NotFound {
		t.Fatalf("expected NotFound classification, got %v", errs.Classify(err))
	}
}

func TestLoadInvalidYAMLFails(t *testing.T) {
	path := writeTemp(t, "target: [this is not a scalar")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected an error for invalid YAML")
	}
}

func TestOptionsOverrideLoadedValues(t *testing.T) {
	path := writeTemp(t, "target: c\n")
	cfg, err := Load(path, WithTarget("ir"), WithPrettyPrint(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Target != "ir" || cfg.PrettyPrint {
		t.Fatalf("options did not override: %+v", cfg)
	}
}

func TestFromDefaultsBypassesFilesystem(t *testing.T) {
	cfg := FromDefaults(WithFaultTolerance("best_effort"), WithMemoryBudget(1024, 16, 4))
	if cfg.FaultTolerancePolicy() != engine.BestEffort {
		t.Fatalf("expected BestEffort, got %v", cfg.FaultTolerancePolicy())
	}
	budget := cfg.Budget()
	if budget.MaxMemory != 1024 || budget.MaxKeyLength != 16 || budget.MaxEntries != 4 {
		t.Fatalf("unexpected budget: %+v", budget)
	}
}

func TestCodegenConfigDefaultsToCOnUnknownTarget(t *testing.T) {
	cfg := FromDefaults(WithTarget("not-a-real-target"))
	cc := cfg.CodegenConfig()
	if cc.Target != codegen.C {
		t.Fatalf("expected fallback to C target, got %v", cc.Target)
	}
}

func TestFaultTolerancePolicyDefaultsToStrict(t *testing.T) {
	cfg := FromDefaults(WithFaultTolerance("nonsense"))
	if cfg.FaultTolerancePolicy() != engine.Strict {
		t.Fatalf("expected Strict fallback, got %v", cfg.FaultTolerancePolicy())
	}
}
