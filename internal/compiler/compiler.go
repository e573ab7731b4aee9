// Package compiler implements the pre-execution static validator for agent
// pilot workflows: symbol-table construction, lexically-scoped reference
// resolution, schema-aware field validation, and graph-structural checks.
// It never executes anything; a compile call is pure and synchronous.
package compiler

import (
	"context"
	"log/slog"

	"github.com/agentpilot/pilotc/internal/logging"
	"github.com/agentpilot/pilotc/internal/registry"
	"github.com/agentpilot/pilotc/pkg/dsl"
)

// SchemaLookup is the query contract of the Schema Registry. A nil lookup
// degrades the compiler to structural checks only; it never fails a compile.
type SchemaLookup interface {
	HasSchemaRef(ref string) bool
	ValidateFieldPath(plugin, action, path string) registry.FieldPathResult
}

// Compiler validates workflow definitions. Safe for concurrent use: all
// per-call state lives in a pass object created at entry.
type Compiler struct {
	schemas    SchemaLookup
	logger     *slog.Logger
	structural *structuralValidator
	conditions *conditionChecker
}

// New creates a Compiler. schemas may be nil (schema checks are skipped).
// Failures initializing optional collaborators (CEL environment, embedded
// JSON Schema) are logged and degrade the corresponding check, matching the
// registry-absent policy.
func New(schemas SchemaLookup, logger *slog.Logger) *Compiler {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Compiler{schemas: schemas, logger: logger}

	sv, err := newStructuralValidator()
	if err != nil {
		logger.Warn("workflow schema unavailable, structural pre-pass disabled", "error", err)
	} else {
		c.structural = sv
	}

	cc, err := newConditionChecker()
	if err != nil {
		logger.Warn("CEL environment unavailable, condition checks disabled", "error", err)
	} else {
		c.conditions = cc
	}

	return c
}

// Compile validates a tree-form workflow and returns the aggregated result.
// Indexing and validation are strictly two passes: a step may reference a
// sibling indexed later in traversal order.
func (c *Compiler) Compile(ctx context.Context, wf *dsl.Workflow) *dsl.CompilationResult {
	result := &dsl.CompilationResult{}
	if wf == nil {
		result.AddError(dsl.ErrInvalidWorkflow, "", "workflow definition is nil", nil)
		return result.Finalize()
	}
	if len(wf.Steps) == 0 {
		result.AddError(dsl.ErrInvalidWorkflow, "", "workflow must contain at least one step", nil)
		return result.Finalize()
	}

	p := newPass(c, result)

	// Pass 1: symbol tables over the whole tree.
	p.buildIndex(wf.Steps)

	// Pass 2: validation.
	if wf.Schedule != "" {
		c.checkSchedule(wf.Schedule, result)
	}
	p.validateSteps(wf.Steps)

	result.OutputRegistry = p.outputs
	result.Finalize()
	if result.Valid {
		result.NormalizedDSL = p.normalize()
	}

	logging.LogWith(ctx, c.logger).Debug("workflow compiled",
		"steps", len(p.order),
		"errors", len(result.Errors),
		"warnings", len(result.Warnings))
	return result
}

// CompileJSON validates a raw tree-form workflow document. The structural
// pre-pass short-circuits: a malformed root yields a single fatal error.
func (c *Compiler) CompileJSON(ctx context.Context, raw []byte) *dsl.CompilationResult {
	wf, errResult := c.decodeWorkflow(raw)
	if errResult != nil {
		return errResult
	}
	return c.Compile(ctx, wf)
}

// pluginAction identifies the (plugin, action) pair of an action-kind step.
type pluginAction struct {
	plugin string
	action string
}

// pass is the request-scoped state of one compile invocation. Nothing here
// survives the call.
type pass struct {
	c      *Compiler
	result *dsl.CompilationResult

	index        map[string]*dsl.Step
	order        []string
	outputs      map[string][]string
	plugins      map[string]pluginAction
	conditionals map[string]bool

	scope *scopeStack
	graph *depGraph
}

func newPass(c *Compiler, result *dsl.CompilationResult) *pass {
	return &pass{
		c:            c,
		result:       result,
		index:        make(map[string]*dsl.Step),
		outputs:      make(map[string][]string),
		plugins:      make(map[string]pluginAction),
		conditionals: make(map[string]bool),
		scope:        &scopeStack{},
		graph:        newDepGraph(),
	}
}

// knownStepIDs returns every indexed id in traversal order.
func (p *pass) knownStepIDs() []string {
	ids := make([]string, len(p.order))
	copy(ids, p.order)
	return ids
}
