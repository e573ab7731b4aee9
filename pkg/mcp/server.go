// Package mcp exposes the workflow compiler as an MCP stdio server so
// authoring agents can pre-flight workflows before handing them to the
// execution engine.
package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/agentpilot/pilotc/internal/compiler"
	"github.com/agentpilot/pilotc/internal/registry"
)

// PilotServerDeps holds the dependencies for creating a PilotServer.
type PilotServerDeps struct {
	Compiler *compiler.Compiler
	Schemas  *registry.Registry // may be nil: schema_refs then reports none
	Logger   *slog.Logger
}

// PilotServer wraps an MCP server with validation tool handlers.
type PilotServer struct {
	compiler  *compiler.Compiler
	schemas   *registry.Registry
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewPilotServer creates a PilotServer with the validation tools registered.
func NewPilotServer(deps PilotServerDeps) *PilotServer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	s := &PilotServer{
		compiler: deps.Compiler,
		schemas:  deps.Schemas,
		logger:   logger,
	}

	mcpSrv := server.NewMCPServer(
		"pilotc",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("pilotc statically validates agent pilot workflows before execution. Use pilot.validate for tree-form definitions, pilot.validate_plan for flat dependency lists, and pilot.schema_refs to list known plugin action schemas."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *PilotServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *PilotServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *PilotServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: validateTool(), Handler: s.handleValidate},
		{Tool: validatePlanTool(), Handler: s.handleValidatePlan},
		{Tool: schemaRefsTool(), Handler: s.handleSchemaRefs},
	}
}

// --- Tool definitions ---

func validateTool() mcp.Tool {
	return mcp.NewTool("pilot.validate",
		mcp.WithDescription("Statically validate a tree-form workflow definition"),
		mcp.WithObject("workflow", mcp.Required(), mcp.Description("Workflow definition object with a steps array")),
		mcp.WithString("name", mcp.Description("Workflow name for log correlation")),
	)
}

func validatePlanTool() mcp.Tool {
	return mcp.NewTool("pilot.validate_plan",
		mcp.WithDescription("Statically validate a flat dependency-list workflow plan"),
		mcp.WithArray("plan", mcp.Required(), mcp.Description("Ordered array of {step_id, type, plugin?, action?, dependencies?} records")),
	)
}

func schemaRefsTool() mcp.Tool {
	return mcp.NewTool("pilot.schema_refs",
		mcp.WithDescription("List the plugin action schemas known to the registry"),
	)
}
