package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentpilot/pilotc/internal/compiler"
	"github.com/agentpilot/pilotc/internal/registry"
	"github.com/agentpilot/pilotc/pkg/dsl"
)

// --- Helpers ---

func testServer(t *testing.T, reg *registry.Registry) *PilotServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var lookup compiler.SchemaLookup
	if reg != nil {
		lookup = reg
	}
	return NewPilotServer(PilotServerDeps{
		Compiler: compiler.New(lookup, logger),
		Schemas:  reg,
		Logger:   logger,
	})
}

func buildRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: args,
		},
	}
}

func extractText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	return mcp.GetTextFromContent(result.Content[0])
}

func decodeResult(t *testing.T, result *mcp.CallToolResult) *dsl.CompilationResult {
	t.Helper()
	var cr dsl.CompilationResult
	require.NoError(t, json.Unmarshal([]byte(extractText(t, result)), &cr))
	return &cr
}

// --- pilot.validate ---

func TestValidateTool_ValidWorkflow(t *testing.T) {
	s := testServer(t, nil)
	req := buildRequest("pilot.validate", map[string]any{
		"name": "digest",
		"workflow": map[string]any{
			"steps": []any{
				map[string]any{
					"id": "A", "plugin": "gmail", "action": "list_messages",
					"outputs": map[string]any{"emails": "array"},
				},
				map[string]any{
					"id": "B", "type": "transform", "input": "{{A.data.emails}}",
				},
			},
		},
	})

	result, err := s.handleValidate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	cr := decodeResult(t, result)
	assert.True(t, cr.Valid)
	assert.Empty(t, cr.Errors)
	assert.Equal(t, []string{"emails"}, cr.OutputRegistry["A"])
}

func TestValidateTool_InvalidWorkflow(t *testing.T) {
	s := testServer(t, nil)
	req := buildRequest("pilot.validate", map[string]any{
		"workflow": map[string]any{
			"steps": []any{
				map[string]any{"id": "B", "type": "transform", "input": "{{step99.data.x}}"},
			},
		},
	})

	result, err := s.handleValidate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	cr := decodeResult(t, result)
	assert.False(t, cr.Valid)
	require.Len(t, cr.Errors, 1)
	assert.Equal(t, dsl.ErrStepNotFound, cr.Errors[0].Type)
}

func TestValidateTool_MissingWorkflow(t *testing.T) {
	s := testServer(t, nil)
	result, err := s.handleValidate(context.Background(), buildRequest("pilot.validate", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// --- pilot.validate_plan ---

func TestValidatePlanTool_ValidPlan(t *testing.T) {
	s := testServer(t, nil)
	req := buildRequest("pilot.validate_plan", map[string]any{
		"plan": []any{
			map[string]any{"step_id": "fetch", "type": "action", "plugin": "gmail", "action": "list_messages"},
			map[string]any{"step_id": "send", "type": "transform", "dependencies": []any{"fetch"}},
		},
	})

	result, err := s.handleValidatePlan(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.True(t, decodeResult(t, result).Valid)
}

func TestValidatePlanTool_NonArrayPlan(t *testing.T) {
	s := testServer(t, nil)
	req := buildRequest("pilot.validate_plan", map[string]any{
		"plan": map[string]any{"step_id": "fetch"},
	})

	result, err := s.handleValidatePlan(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	cr := decodeResult(t, result)
	assert.False(t, cr.Valid)
	require.Len(t, cr.Errors, 1)
	assert.Contains(t, cr.Errors[0].Message, "must be an array")
}

func TestValidatePlanTool_MissingPlan(t *testing.T) {
	s := testServer(t, nil)
	result, err := s.handleValidatePlan(context.Background(), buildRequest("pilot.validate_plan", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// --- pilot.schema_refs ---

func TestSchemaRefsTool_Empty(t *testing.T) {
	s := testServer(t, nil)
	result, err := s.handleSchemaRefs(context.Background(), buildRequest("pilot.schema_refs", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, extractText(t, result), `"schema_refs":[]`)
}

func TestSchemaRefsTool_Populated(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(&registry.ActionManifest{
		Plugin: "gmail", Action: "list_messages",
		Output: map[string]*registry.FieldSpec{"emails": {Type: "array"}},
	}))
	s := testServer(t, reg)

	result, err := s.handleSchemaRefs(context.Background(), buildRequest("pilot.schema_refs", nil))
	require.NoError(t, err)

	text := extractText(t, result)
	assert.Contains(t, text, "gmail/list_messages")
}
