package main

import (
	"github.com/spf13/cobra"

	"github.com/agentpilot/pilotc/pkg/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the compiler as an MCP stdio server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		comp, reg, err := newCompiler(logger)
		if err != nil {
			return fail(err)
		}

		srv := mcp.NewPilotServer(mcp.PilotServerDeps{
			Compiler: comp,
			Schemas:  reg,
			Logger:   logger,
		})
		logger.Info("pilotc MCP server listening on stdio")
		return srv.Serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
