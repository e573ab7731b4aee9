package compiler

import (
	"fmt"
	"sort"

	"github.com/agentpilot/pilotc/pkg/dsl"
)

// validateRouting checks the explicit control-flow edges declared in a step's
// outputs: next_step, branch-wrapper objects carrying next_step, and the loop
// continuation keys. is_last_step is unused by runtime completion logic and
// deliberately never validated.
func (p *pass) validateRouting(s *dsl.Step) {
	keys := make([]string, 0, len(s.Outputs))
	for k := range s.Outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val := s.Outputs[key]
		switch key {
		case dsl.KeyIsLastStep:
			// skip
		case dsl.KeyNextStep:
			p.checkRouteTarget(s, key, val, false)
		case dsl.KeyIterationNextStep, dsl.KeyAfterLoopNextStep:
			p.checkRouteTarget(s, key, val, true)
		default:
			if wrapper, ok := val.(map[string]any); ok {
				if target, has := wrapper[dsl.KeyNextStep]; has {
					p.checkRouteTarget(s, key, target, false)
				}
			}
		}
	}
}

// checkRouteTarget confirms a routing value is a string naming an indexed
// step. Loop-continuation keys additionally accept targets from the step's
// immediate scatter body.
func (p *pass) checkRouteTarget(s *dsl.Step, key string, val any, loopKey bool) {
	target, ok := val.(string)
	if !ok {
		p.result.AddError(dsl.ErrTypeMismatch, s.ID,
			fmt.Sprintf("routing key %q must name a step, got %T", key, val),
			&dsl.ErrorDetails{ExpectedKey: key})
		return
	}

	if _, found := p.index[target]; found {
		p.addRoutingEdge(s.ID, target)
		return
	}
	if loopKey && s.Scatter != nil {
		for i := range s.Scatter.Steps {
			if s.Scatter.Steps[i].ID == target {
				p.addRoutingEdge(s.ID, target)
				return
			}
		}
	}

	p.result.AddError(dsl.ErrInvalidRouting, s.ID,
		fmt.Sprintf("routing key %q targets unknown step %q", key, target),
		&dsl.ErrorDetails{
			ExpectedKey:   key,
			TargetStep:    target,
			AvailableKeys: p.knownStepIDs(),
		})
}
