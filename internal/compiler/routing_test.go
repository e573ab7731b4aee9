package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentpilot/pilotc/pkg/dsl"
)

// --- next_step ---

func TestRouting_NextStepValid(t *testing.T) {
	wf := testWorkflow(
		dsl.Step{ID: "A", Plugin: "p", Action: "a", Outputs: map[string]any{"next_step": "B"}},
		dsl.Step{ID: "B", Type: dsl.StepTypeControl},
	)
	result := compile(t, wf)
	assert.True(t, result.Valid)
}

func TestRouting_NextStepUnknownTarget(t *testing.T) {
	wf := testWorkflow(
		dsl.Step{ID: "A", Plugin: "p", Action: "a", Outputs: map[string]any{"next_step": "nowhere"}},
		dsl.Step{ID: "B", Type: dsl.StepTypeControl},
	)
	result := compile(t, wf)
	errs := errorsOfType(result, dsl.ErrInvalidRouting)
	require.Len(t, errs, 1)
	assert.Equal(t, "A", errs[0].StepID)
	assert.Contains(t, errs[0].Message, `unknown step "nowhere"`)
	assert.Equal(t, "nowhere", errs[0].Details.TargetStep)
	assert.Equal(t, []string{"A", "B"}, errs[0].Details.AvailableKeys)
}

func TestRouting_NextStepWrongType(t *testing.T) {
	wf := testWorkflow(
		dsl.Step{ID: "A", Plugin: "p", Action: "a", Outputs: map[string]any{"next_step": 42}},
	)
	result := compile(t, wf)
	errs := errorsOfType(result, dsl.ErrTypeMismatch)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "must name a step")
}

// --- Branch wrappers ---

func TestRouting_BranchWrapperTargets(t *testing.T) {
	wf := testWorkflow(
		dsl.Step{ID: "route", Type: dsl.StepTypeConditional, Outputs: map[string]any{
			"on_match":  map[string]any{"next_step": "handle"},
			"otherwise": map[string]any{"next_step": "nowhere"},
		}},
		dsl.Step{ID: "handle", Type: dsl.StepTypeControl},
	)
	result := compile(t, wf)
	errs := errorsOfType(result, dsl.ErrInvalidRouting)
	require.Len(t, errs, 1)
	assert.Equal(t, "nowhere", errs[0].Details.TargetStep)
}

func TestRouting_PlainObjectOutputNotRouting(t *testing.T) {
	// An object output without next_step is data, not a branch wrapper.
	wf := testWorkflow(
		dsl.Step{ID: "A", Plugin: "p", Action: "a",
			Outputs: map[string]any{"stats": map[string]any{"count": "number"}}},
	)
	result := compile(t, wf)
	assert.True(t, result.Valid)
	assert.Equal(t, []string{"stats"}, result.OutputRegistry["A"])
}

// --- Loop continuation keys ---

func TestRouting_LoopKeysAcceptBodySteps(t *testing.T) {
	wf := testWorkflow(
		actionStep("A", "emails"),
		dsl.Step{
			ID:   "loop",
			Type: dsl.StepTypeScatterGather,
			Outputs: map[string]any{
				"iteration_next_step":  "body",
				"after_loop_next_step": "done",
			},
			Scatter: &dsl.Scatter{
				Input:   "{{A.emails}}",
				ItemVar: "msg",
				Steps:   []dsl.Step{{ID: "body", Type: dsl.StepTypeTransform, Input: "{{msg.id}}"}},
			},
		},
		dsl.Step{ID: "done", Type: dsl.StepTypeControl},
	)
	result := compile(t, wf)
	assert.True(t, result.Valid)
}

func TestRouting_LoopKeyUnknownTarget(t *testing.T) {
	wf := testWorkflow(
		actionStep("A", "emails"),
		dsl.Step{
			ID:      "loop",
			Type:    dsl.StepTypeScatterGather,
			Outputs: map[string]any{"iteration_next_step": "ghost"},
			Scatter: &dsl.Scatter{
				Input: "{{A.emails}}",
				Steps: []dsl.Step{{ID: "body", Type: dsl.StepTypeTransform}},
			},
		},
	)
	result := compile(t, wf)
	require.Len(t, errorsOfType(result, dsl.ErrInvalidRouting), 1)
}

// --- is_last_step ---

func TestRouting_IsLastStepNeverValidated(t *testing.T) {
	// Any value passes: the key is declared in the schema but unused by the
	// runtime's completion logic.
	for _, val := range []any{true, "yes", 1, map[string]any{"x": 1}} {
		wf := testWorkflow(
			dsl.Step{ID: "A", Plugin: "p", Action: "a",
				Outputs: map[string]any{"is_last_step": val}},
		)
		result := compile(t, wf)
		assert.True(t, result.Valid, "is_last_step=%v", val)
	}
}
