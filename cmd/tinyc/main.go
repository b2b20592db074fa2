// Command tinyc is the compiler's CLI entrypoint: a thin cobra wrapper
// around the compiler package.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/package-register/tinyc/logger"
	"github.com/package-register/tinyc/telemetry"
)

var flagTraceEndpoint string

var rootCmd = &cobra.Command{
	Use:   "tinyc",
	Short: "tinyc compiles the tiny procedural language to C or IR",
}

func main() {
	logger.Init("info")
	rootCmd.PersistentFlags().StringVar(&flagTraceEndpoint, "trace-endpoint", "",
		"OTLP/HTTP collector endpoint (host:port); tracing stays a no-op when unset")
	rootCmd.AddCommand(buildCmd)

	shutdown := func() {}
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		shutdown = initTracing()
	}

	err := rootCmd.Execute()
	shutdown()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initTracing wires a real OTLP exporter into the global telemetry.Tracer
// when --trace-endpoint is set, leaving the default Noop tracer (zero
// overhead) otherwise. Returns a shutdown func safe to defer unconditionally.
func initTracing() func() {
	if flagTraceEndpoint == "" {
		return func() {}
	}

	ctx := context.Background()
	provider, err := telemetry.NewOTLPProvider(ctx, flagTraceEndpoint, "tinyc")
	if err != nil {
		logger.L().Warn("tracing disabled: could not build OTLP provider", "error", err)
		return func() {}
	}

	tracer := telemetry.NewOtel("tinyc", provider)
	telemetry.Init(tracer)
	return func() {
		if err := telemetry.Shutdown(ctx); err != nil {
			logger.L().Warn("tracing shutdown failed", "error", err)
		}
	}
}
