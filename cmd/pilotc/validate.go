package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/agentpilot/pilotc/internal/logging"
	"github.com/agentpilot/pilotc/pkg/dsl"
)

var errInvalid = errors.New("workflow is invalid")

var validateCmd = &cobra.Command{
	Use:   "validate <workflow-file>",
	Short: "Validate a tree-form workflow definition (YAML or JSON)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		comp, _, err := newCompiler(logger)
		if err != nil {
			return fail(err)
		}

		raw, err := loadAsJSON(args[0])
		if err != nil {
			return fail(err)
		}

		ctx := logging.WithCompileID(cmd.Context(), uuid.NewString())
		result := comp.CompileJSON(ctx, raw)
		return printResult(result)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// loadAsJSON reads a YAML or JSON document and re-encodes it as JSON so the
// compiler's structural pre-pass sees a uniform representation.
func loadAsJSON(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %q: %w", path, err)
	}
	return json.Marshal(doc)
}

// printResult writes the result as indented JSON and signals invalid
// workflows through the exit code.
func printResult(result *dsl.CompilationResult) error {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fail(err)
	}
	fmt.Println(string(out))
	if !result.Valid {
		return errInvalid
	}
	return nil
}
