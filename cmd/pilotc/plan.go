package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/agentpilot/pilotc/internal/logging"
)

var planCmd = &cobra.Command{
	Use:   "plan <plan-file>",
	Short: "Validate a flat dependency-list workflow plan (YAML or JSON)",
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
		result := comp.CompilePlanJSON(ctx, raw)
		return printResult(result)
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
}
