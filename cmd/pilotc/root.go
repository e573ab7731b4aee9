package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentpilot/pilotc/internal/compiler"
	"github.com/agentpilot/pilotc/internal/logging"
	"github.com/agentpilot/pilotc/internal/registry"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verbose       bool
	manifestPaths []string
)

var rootCmd = &cobra.Command{
	Use:   "pilotc",
	Short: "Static validator for agent pilot workflows",
	Long: `pilotc compiles agent pilot workflow definitions before execution,
catching referential, scoping, and structural errors that would otherwise
surface as runtime failures.

  pilotc validate workflow.yaml          Validate a tree-form definition
  pilotc plan plan.json                  Validate a flat dependency list
  pilotc mcp                             Serve the compiler over MCP stdio

Schema-aware field checks need plugin manifests; pass them with --manifests.
Without manifests the compiler degrades to structural checks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringSliceVar(&manifestPaths, "manifests", nil, "plugin manifest files for the schema registry")
}

// newLogger builds the process logger with correlation-ID injection.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	inner := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(logging.NewCorrelationHandler(inner))
}

// newRegistry loads manifests into a schema registry, or returns nil when no
// manifests were given so the compiler skips schema checks.
func newRegistry(logger *slog.Logger) (*registry.Registry, error) {
	if len(manifestPaths) == 0 {
		return nil, nil
	}
	reg := registry.New()
	for _, path := range manifestPaths {
		n, err := reg.LoadManifestFile(path)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded plugin manifests", "path", path, "count", n)
	}
	return reg, nil
}

// newCompiler wires the registry (if any) into a compiler instance.
func newCompiler(logger *slog.Logger) (*compiler.Compiler, *registry.Registry, error) {
	reg, err := newRegistry(logger)
	if err != nil {
		return nil, nil, err
	}
	if reg == nil {
		return compiler.New(nil, logger), nil, nil
	}
	return compiler.New(reg, logger), reg, nil
}

func fail(err error) error {
	fmt.Fprintln(os.Stderr, "pilotc:", err)
	return err
}
