package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentpilot/pilotc/pkg/dsl"
)

// --- Schedule ---

func TestSchedule_Valid(t *testing.T) {
	for _, spec := range []string{"0 9 * * 1-5", "*/15 * * * *", "30 6 1 * *"} {
		wf := testWorkflow(dsl.Step{ID: "A", Type: dsl.StepTypeTransform})
		wf.Schedule = spec
		result := compile(t, wf)
		assert.True(t, result.Valid, "schedule %q", spec)
	}
}

func TestSchedule_Invalid(t *testing.T) {
	for _, spec := range []string{"every tuesday", "0 9 * *", "61 * * * *"} {
		wf := testWorkflow(dsl.Step{ID: "A", Type: dsl.StepTypeTransform})
		wf.Schedule = spec
		result := compile(t, wf)
		errs := errorsOfType(result, dsl.ErrInvalidSchedule)
		require.Len(t, errs, 1, "schedule %q", spec)
		assert.Contains(t, errs[0].Message, spec)
	}
}

func TestSchedule_EmptySkipped(t *testing.T) {
	result := compile(t, testWorkflow(dsl.Step{ID: "A", Type: dsl.StepTypeTransform}))
	assert.True(t, result.Valid)
}

// --- Conditions ---

func TestCondition_ValidCEL(t *testing.T) {
	for _, cond := range []string{
		"input.count > 3",
		`env.MODE == "production"`,
		"config.enabled && input.total >= 10",
		"index < 5",
	} {
		wf := testWorkflow(dsl.Step{ID: "C", Type: dsl.StepTypeConditional, Condition: cond,
			ThenSteps: []dsl.Step{{ID: "t", Type: dsl.StepTypeTransform}}})
		result := compile(t, wf)
		assert.True(t, result.Valid, "condition %q", cond)
		assert.Empty(t, result.Warnings, "condition %q", cond)
	}
}

func TestCondition_UnparsableWarns(t *testing.T) {
	wf := testWorkflow(dsl.Step{ID: "C", Type: dsl.StepTypeConditional,
		Condition: "input.count >>> 3"})
	result := compile(t, wf)
	assert.True(t, result.Valid) // warning only
	warns := warningsOfType(result, dsl.WarnInvalidCondition)
	require.Len(t, warns, 1)
	assert.Equal(t, "C", warns[0].StepID)
}

func TestCondition_UndeclaredNameWarns(t *testing.T) {
	wf := testWorkflow(dsl.Step{ID: "C", Type: dsl.StepTypeConditional,
		Condition: "mystery_var > 3"})
	result := compile(t, wf)
	require.Len(t, warningsOfType(result, dsl.WarnInvalidCondition), 1)
}

func TestCondition_LoopVarInScope(t *testing.T) {
	// Inside a loop body the item variable is a declared CEL name.
	wf := testWorkflow(
		actionStep("A", "emails"),
		dsl.Step{ID: "loop", Type: dsl.StepTypeScatterGather, Scatter: &dsl.Scatter{
			Input:   "{{A.emails}}",
			ItemVar: "msg",
			Steps: []dsl.Step{{ID: "check", Type: dsl.StepTypeConditional,
				Condition: "msg.priority > 2"}},
		}},
	)
	result := compile(t, wf)
	assert.True(t, result.Valid)
	assert.Empty(t, warningsOfType(result, dsl.WarnInvalidCondition))
}

func TestCondition_TemplateSkipsCEL(t *testing.T) {
	// Placeholder conditions are resolved by the reference validator instead.
	wf := testWorkflow(
		actionStep("A", "count"),
		dsl.Step{ID: "C", Type: dsl.StepTypeConditional, Condition: "{{A.count}} > 3"},
	)
	result := compile(t, wf)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Warnings)
}

// --- Transform expressions ---

func TestTransform_ValidExpression(t *testing.T) {
	wf := testWorkflow(dsl.Step{ID: "T", Type: dsl.StepTypeTransform,
		Config: map[string]any{"expression": "len(items) > 0 ? items[0] : nil"}})
	result := compile(t, wf)
	assert.True(t, result.Valid)
}

func TestTransform_BrokenExpression(t *testing.T) {
	wf := testWorkflow(dsl.Step{ID: "T", Type: dsl.StepTypeTransform,
		Config: map[string]any{"expression": "items |> "}})
	result := compile(t, wf)
	errs := errorsOfType(result, dsl.ErrInvalidExpression)
	require.Len(t, errs, 1)
	assert.Equal(t, "T", errs[0].StepID)
	assert.Contains(t, errs[0].Message, "does not compile")
}

func TestTransform_TemplatedExpressionSkipped(t *testing.T) {
	// Template placeholders make the program unparseable pre-interpolation.
	wf := testWorkflow(
		actionStep("A", "emails"),
		dsl.Step{ID: "T", Type: dsl.StepTypeTransform,
			Config: map[string]any{"expression": "len({{A.emails}})"}},
	)
	result := compile(t, wf)
	assert.Empty(t, errorsOfType(result, dsl.ErrInvalidExpression))
}

func TestTransform_ValidQuery(t *testing.T) {
	wf := testWorkflow(dsl.Step{ID: "T", Type: dsl.StepTypeTransform,
		Config: map[string]any{"query": ".items[] | select(.active) | .name"}})
	result := compile(t, wf)
	assert.True(t, result.Valid)
}

func TestTransform_BrokenQuery(t *testing.T) {
	wf := testWorkflow(dsl.Step{ID: "T", Type: dsl.StepTypeTransform,
		Config: map[string]any{"query": ".items[ | ("}})
	result := compile(t, wf)
	errs := errorsOfType(result, dsl.ErrInvalidExpression)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "jq query")
}

func TestTransform_ExpressionOnNonTransformIgnored(t *testing.T) {
	// Only transform steps carry a compiled expression program.
	wf := testWorkflow(dsl.Step{ID: "A", Plugin: "p", Action: "a",
		Config: map[string]any{"expression": "this is not a program"}})
	result := compile(t, wf)
	assert.Empty(t, errorsOfType(result, dsl.ErrInvalidExpression))
}
