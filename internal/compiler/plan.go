package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentpilot/pilotc/internal/logging"
	"github.com/agentpilot/pilotc/pkg/dsl"
)

// CompilePlan validates the flat dependency-list form: required fields,
// forward-dependency detection, and full cycle detection. Array order must
// itself be a valid topological order.
func (c *Compiler) CompilePlan(ctx context.Context, records []dsl.StepRecord) *dsl.CompilationResult {
	result := &dsl.CompilationResult{}
	if records == nil {
		result.AddError(dsl.ErrInvalidPlan, "", "workflow plan must be an array", nil)
		return result.Finalize()
	}
	if len(records) == 0 {
		result.AddError(dsl.ErrInvalidPlan, "", "workflow plan cannot be empty", nil)
		return result.Finalize()
	}

	// Declared ids and their positions. Ids are opaque labels: non-sequential,
	// non-contiguous ids are fine.
	pos := make(map[string]int, len(records))
	for i, rec := range records {
		if rec.StepID == "" {
			result.AddError(dsl.ErrMissingRequiredField, "",
				fmt.Sprintf("step at index %d is missing required field \"step_id\"", i), nil)
			continue
		}
		if _, dup := pos[rec.StepID]; dup {
			result.AddWarning(dsl.WarnDuplicateStepID, rec.StepID,
				fmt.Sprintf("duplicate step id %q: later definition shadows the earlier one", rec.StepID), nil)
		}
		pos[rec.StepID] = i

		switch {
		case rec.Type == "":
			result.AddError(dsl.ErrMissingRequiredField, rec.StepID,
				fmt.Sprintf("step %q is missing required field \"type\"", rec.StepID), nil)
		case !dsl.KnownStepType(dsl.StepType(rec.Type)):
			result.AddWarning(dsl.WarnUnknownStepType, rec.StepID,
				fmt.Sprintf("unknown step type %q", rec.Type), nil)
		case rec.Type == string(dsl.StepTypeAction):
			if rec.Plugin == "" {
				result.AddError(dsl.ErrMissingRequiredField, rec.StepID,
					fmt.Sprintf("action step %q is missing required field \"plugin\"", rec.StepID), nil)
			}
			if rec.Action == "" {
				result.AddError(dsl.ErrMissingRequiredField, rec.StepID,
					fmt.Sprintf("action step %q is missing required field \"action\"", rec.StepID), nil)
			}
		}
	}

	g := newDepGraph()
	for _, rec := range records {
		if rec.StepID != "" {
			g.addNode(rec.StepID)
		}
	}

	for i, rec := range records {
		if rec.StepID == "" {
			continue
		}
		for _, dep := range rec.Dependencies {
			j, exists := pos[dep]
			if !exists {
				result.AddError(dsl.ErrDependencyNotFound, rec.StepID,
					fmt.Sprintf("step %q depends on non-existent step %q", rec.StepID, dep),
					&dsl.ErrorDetails{TargetStep: dep})
				continue
			}
			if j >= i {
				result.AddError(dsl.ErrForwardDependency, rec.StepID,
					fmt.Sprintf("step %q depends on step %q which appears later in the plan", rec.StepID, dep),
					&dsl.ErrorDetails{TargetStep: dep})
			}
			g.addDep(rec.StepID, dep)
			g.addEdge(dep, rec.StepID, dsl.EdgeData)
		}
	}

	// Full cycle detection runs even though the ordering rule rejects most
	// cycle shapes: authors get a distinctly labeled diagnostic.
	if path := g.cycle(); path != nil {
		result.AddError(dsl.ErrCircularDependency, path[0],
			"Circular dependency detected: "+strings.Join(path, " -> "),
			&dsl.ErrorDetails{AvailableKeys: path[:len(path)-1]})
	}

	result.Finalize()
	if result.Valid {
		result.NormalizedDSL = normalizePlan(records, g)
	}

	logging.LogWith(ctx, c.logger).Debug("workflow plan compiled",
		"steps", len(records),
		"errors", len(result.Errors),
		"warnings", len(result.Warnings))
	return result
}

// CompilePlanJSON validates a raw flat-form document. Non-array roots yield a
// single fatal error.
func (c *Compiler) CompilePlanJSON(ctx context.Context, raw []byte) *dsl.CompilationResult {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" || trimmed[0] != '[' {
		result := &dsl.CompilationResult{}
		result.AddError(dsl.ErrInvalidPlan, "", "workflow plan must be an array", nil)
		return result.Finalize()
	}

	var records []dsl.StepRecord
	if err := json.Unmarshal(trimmed, &records); err != nil {
		result := &dsl.CompilationResult{}
		result.AddError(dsl.ErrInvalidPlan, "", "workflow plan must be an array of step records: "+err.Error(), nil)
		return result.Finalize()
	}
	if records == nil {
		records = []dsl.StepRecord{}
	}
	return c.CompilePlan(ctx, records)
}

// normalizePlan builds the graph view of a valid flat plan.
func normalizePlan(records []dsl.StepRecord, g *depGraph) *dsl.NormalizedWorkflow {
	nw := &dsl.NormalizedWorkflow{
		Steps: make([]dsl.NormalizedStep, 0, len(records)),
		Edges: g.edges,
	}
	for _, rec := range records {
		nw.Steps = append(nw.Steps, dsl.NormalizedStep{
			ID:     rec.StepID,
			Type:   dsl.StepType(rec.Type),
			Plugin: rec.Plugin,
			Action: rec.Action,
		})
	}
	return nw
}
