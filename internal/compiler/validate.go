package compiler

import (
	"fmt"

	"github.com/agentpilot/pilotc/pkg/dsl"
)

// validateSteps runs the validation pass over a step list. Loop-variable
// scoping brackets this recursion, never the indexing pass.
func (p *pass) validateSteps(steps []dsl.Step) {
	for i := range steps {
		p.validateStep(&steps[i])
	}
}

func (p *pass) validateStep(s *dsl.Step) {
	kind := s.Kind()
	if !dsl.KnownStepType(kind) {
		p.result.AddWarning(dsl.WarnUnknownStepType, s.ID,
			fmt.Sprintf("unknown step type %q", string(kind)), nil)
	}
	if kind == dsl.StepTypeAction && (s.Plugin == "" || s.Action == "") {
		p.result.AddError(dsl.ErrMissingRequiredInput, s.ID,
			`action steps require both "plugin" and "action"`, nil)
	}

	p.checkStepExpressions(s)
	p.checkDeclaredOutputs(s)

	// Expression-bearing fields.
	p.walkValue(s, s.Input)
	p.walkValue(s, s.Params)
	p.walkValue(s, s.Config)
	if s.Condition != "" {
		p.validateTemplate(s, s.Condition)
	}
	if s.Scatter != nil {
		p.walkValue(s, s.Scatter.Input)
	}

	p.validateRouting(s)

	p.validateSteps(s.ThenSteps)
	p.validateSteps(s.ElseSteps)
	if s.Scatter != nil {
		if v := s.Scatter.ItemVar; v != "" {
			p.scope.push(v)
			p.validateSteps(s.Scatter.Steps)
			p.scope.pop(v)
		} else {
			p.validateSteps(s.Scatter.Steps)
		}
	}
}
