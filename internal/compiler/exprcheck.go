package compiler

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/google/cel-go/cel"
	"github.com/itchyny/gojq"
	"github.com/robfig/cron/v3"

	"github.com/agentpilot/pilotc/pkg/dsl"
)

// scheduleParser accepts standard 5-field cron expressions.
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// checkSchedule validates the workflow-level cron trigger.
func (c *Compiler) checkSchedule(schedule string, result *dsl.CompilationResult) {
	if _, err := scheduleParser.Parse(schedule); err != nil {
		result.AddError(dsl.ErrInvalidSchedule, "",
			fmt.Sprintf("invalid schedule %q: %s", schedule, err.Error()), nil)
	}
}

// conditionChecker statically parses condition strings with CEL. The
// environment exposes the same top-level names the runtime scope does.
type conditionChecker struct {
	env *cel.Env
}

func newConditionChecker() (*conditionChecker, error) {
	mapType := cel.MapType(cel.StringType, cel.DynType)
	env, err := cel.NewEnv(
		cel.Variable("input", mapType),
		cel.Variable("env", mapType),
		cel.Variable("config", mapType),
		cel.Variable("steps", mapType),
		cel.Variable("item", cel.DynType),
		cel.Variable("current", cel.DynType),
		cel.Variable("index", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	return &conditionChecker{env: env}, nil
}

// check parses a condition, extending the environment with the loop variables
// active at this point of the tree. Parse failure is a warning: the runtime
// may accept syntax the static environment does not model.
func (cc *conditionChecker) check(cond string, scopeVars []string) error {
	env := cc.env
	if len(scopeVars) > 0 {
		opts := make([]cel.EnvOption, 0, len(scopeVars))
		for _, name := range scopeVars {
			opts = append(opts, cel.Variable(name, cel.DynType))
		}
		extended, err := env.Extend(opts...)
		if err != nil {
			return nil // cannot extend (e.g. reserved name); skip the check
		}
		env = extended
	}
	if _, issues := env.Compile(cond); issues != nil && issues.Err() != nil {
		return issues.Err()
	}
	return nil
}

// checkStepExpressions runs the static expression checks a step's kind calls
// for: conditions on conditionals, expression/query programs on transforms,
// and schema_ref declarations.
func (p *pass) checkStepExpressions(s *dsl.Step) {
	// Conditions containing template placeholders are handled by the
	// reference validator; plain conditions must parse as CEL.
	if s.Condition != "" && !strings.Contains(s.Condition, "{{") && p.c.conditions != nil {
		if err := p.c.conditions.check(s.Condition, p.scope.active()); err != nil {
			p.result.AddWarning(dsl.WarnInvalidCondition, s.ID,
				fmt.Sprintf("condition %q does not parse: %s", s.Condition, err.Error()), nil)
		}
	}

	if s.Kind() == dsl.StepTypeTransform {
		if program, ok := s.Config["expression"].(string); ok && program != "" && !strings.Contains(program, "{{") {
			if _, err := expr.Compile(program, expr.AllowUndefinedVariables()); err != nil {
				p.result.AddError(dsl.ErrInvalidExpression, s.ID,
					fmt.Sprintf("transform expression does not compile: %s", err.Error()),
					&dsl.ErrorDetails{Reference: program})
			}
		}
		if query, ok := s.Config["query"].(string); ok && query != "" && !strings.Contains(query, "{{") {
			if _, err := gojq.Parse(query); err != nil {
				p.result.AddError(dsl.ErrInvalidExpression, s.ID,
					fmt.Sprintf("transform jq query does not parse: %s", err.Error()),
					&dsl.ErrorDetails{Reference: query})
			}
		}
	}

	if ref, ok := s.Config["schema_ref"].(string); ok && ref != "" && p.c.schemas != nil {
		if !p.c.schemas.HasSchemaRef(ref) {
			p.result.AddError(dsl.ErrInvalidSchemaRef, s.ID,
				fmt.Sprintf("unknown schema reference %q", ref),
				&dsl.ErrorDetails{SchemaRef: ref})
		}
	}
}
