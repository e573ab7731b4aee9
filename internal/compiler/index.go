package compiler

import (
	"fmt"
	"sort"

	"github.com/agentpilot/pilotc/pkg/dsl"
)

// buildIndex walks the whole tree depth-first and fills the pass symbol
// tables: step index, output registry, plugin/action registry, and the
// conditional step set. It must complete before any validation starts.
func (p *pass) buildIndex(steps []dsl.Step) {
	for i := range steps {
		p.indexStep(&steps[i])
	}
}

func (p *pass) indexStep(s *dsl.Step) {
	if s.ID == "" {
		p.result.AddError(dsl.ErrMissingRequiredInput, "",
			"step is missing required field \"id\"", nil)
	} else {
		if _, dup := p.index[s.ID]; dup {
			// Later entries shadow earlier ones (last write wins).
			p.result.AddWarning(dsl.WarnDuplicateStepID, s.ID,
				fmt.Sprintf("duplicate step id %q: later definition shadows the earlier one", s.ID), nil)
		} else {
			p.order = append(p.order, s.ID)
			p.graph.addNode(s.ID)
		}
		p.index[s.ID] = s
		p.outputs[s.ID] = declaredOutputKeys(s.Outputs)

		if s.Kind() == dsl.StepTypeAction && s.Plugin != "" && s.Action != "" {
			p.plugins[s.ID] = pluginAction{plugin: s.Plugin, action: s.Action}
		}
		if s.Kind() == dsl.StepTypeConditional {
			p.conditionals[s.ID] = true
		}
	}

	p.buildIndex(s.ThenSteps)
	p.buildIndex(s.ElseSteps)
	if s.Scatter != nil {
		p.buildIndex(s.Scatter.Steps)
	}
}

// declaredOutputKeys filters a step's raw outputs down to legal data output
// keys: reserved routing keys and branch-wrapper objects are dropped even
// when present in the raw definition.
func declaredOutputKeys(outputs map[string]any) []string {
	keys := make([]string, 0, len(outputs))
	for key, val := range outputs {
		if dsl.ReservedRoutingKey(key) {
			continue
		}
		if isBranchWrapper(val) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// isBranchWrapper reports whether a raw output value is a branch-wrapper
// object of the form {next_step: ...}.
func isBranchWrapper(val any) bool {
	m, ok := val.(map[string]any)
	if !ok {
		return false
	}
	_, has := m[dsl.KeyNextStep]
	return has
}

// outputKeysFor returns the registered output keys for a step id.
func (p *pass) outputKeysFor(id string) []string {
	return p.outputs[id]
}

// hasOutputKey reports whether id declares key as a data output.
func (p *pass) hasOutputKey(id, key string) bool {
	for _, k := range p.outputs[id] {
		if k == key {
			return true
		}
	}
	return false
}
