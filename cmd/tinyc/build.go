package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/package-register/tinyc/compiler"
	"github.com/package-register/tinyc/config"
	"github.com/package-register/tinyc/logger"
	"github.com/package-register/tinyc/source"
)

var (
	flagTarget       string
	flagConfigPath   string
	flagEmitComments bool
	flagPrettyPrint  bool
	flagOutput       string
)

var buildCmd = &cobra.Command{
	Use:   "build <source-file>",
	Short: "Compile a source file to C or IR",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&flagTarget, "target", "c", `code generation target: "c" or "ir"`)
	buildCmd.Flags().StringVar(&flagConfigPath, "config", "", "path to a YAML compiler config (optional)")
	buildCmd.Flags().BoolVar(&flagEmitComments, "emit-comments", false, "emit a header comment in the generated output")
	buildCmd.Flags().BoolVar(&flagPrettyPrint, "pretty", true, "pretty-print generated C with indentation")
	buildCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "write generated code to this file instead of stdout")
}

func runBuild(cmd *cobra.Command, args []string) error {
	runID := uuid.New().String()
	log := logger.L().With("run_id", runID)

	sourcePath := args[0]
	fsys := source.NewOSFS(filepath.Dir(sourcePath))
	sourceBytes, err := fsys.ReadFile(filepath.Base(sourcePath))
	if err != nil {
		return fmt.Errorf("reading %s: %w", sourcePath, err)
	}

	opts := []config.Option{
		config.WithTarget(flagTarget),
		config.WithEmitComments(flagEmitComments),
		config.WithPrettyPrint(flagPrettyPrint),
	}

	var cfg *config.CompilerConfig
	if flagConfigPath != "" {
		cfg, err = config.Load(flagConfigPath, opts...)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.FromDefaults(opts...)
	}

	log.Info("compiling", "source", sourcePath, "target", cfg.Target)

	result, err := compiler.Compile(string(sourceBytes), cfg, nil)
	if err != nil {
		return err
	}

	if !result.Succeeded() {
		var combined error
		for _, failure := range result.Outcome.Failures {
			combined = multierror.Append(combined, fmt.Errorf("[%s] %s: %s", failure.StageName, failure.Code, failure.Message))
		}
		log.Error("compilation failed", "errors", len(result.Outcome.Failures))
		return combined
	}

	if flagOutput != "" {
		if err := os.WriteFile(flagOutput, []byte(result.OutputCode), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", flagOutput, err)
		}
		log.Info("wrote output", "path", flagOutput)
		return nil
	}

	fmt.Print(result.OutputCode)
	return nil
}
