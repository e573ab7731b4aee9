package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/agentpilot/pilotc/internal/logging"
)

// handleValidate compiles a tree-form workflow definition.
func (s *PilotServer) handleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	wfRaw := mcp.ParseStringMap(req, "workflow", nil)
	if wfRaw == nil {
		return mcp.NewToolResultError("workflow is required"), nil
	}

	raw, err := json.Marshal(wfRaw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid workflow: %v", err)), nil
	}

	ctx = logging.WithCompileID(ctx, uuid.NewString())
	if name := req.GetString("name", ""); name != "" {
		ctx = logging.WithWorkflow(ctx, name)
	}

	result := s.compiler.CompileJSON(ctx, raw)
	return marshalResult(result)
}

// handleValidatePlan compiles a flat dependency-list plan.
func (s *PilotServer) handleValidatePlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	planRaw, ok := args["plan"]
	if !ok {
		return mcp.NewToolResultError("plan is required"), nil
	}

	raw, err := json.Marshal(planRaw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid plan: %v", err)), nil
	}

	ctx = logging.WithCompileID(ctx, uuid.NewString())
	result := s.compiler.CompilePlanJSON(ctx, raw)
	return marshalResult(result)
}

// handleSchemaRefs lists the registered plugin action schema refs.
func (s *PilotServer) handleSchemaRefs(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	refs := []string{}
	if s.schemas != nil {
		refs = s.schemas.Refs()
	}
	return marshalResult(map[string]any{"schema_refs": refs})
}

// marshalResult converts a value to a JSON tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
