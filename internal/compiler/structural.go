package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/agentpilot/pilotc/pkg/dsl"
)

// workflowSchemaJSON is the JSON Schema for the tree-form workflow root.
// Embedded as a constant to avoid filesystem dependencies.
const workflowSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://agentpilot.dev/schemas/workflow.json",
  "type": "object",
  "required": ["steps"],
  "properties": {
    "name": { "type": "string" },
    "schedule": { "type": "string" },
    "steps": {
      "type": "array",
      "minItems": 1,
      "items": { "$ref": "#/$defs/step" }
    },
    "metadata": { "type": "object" }
  },
  "additionalProperties": false,
  "$defs": {
    "step": {
      "type": "object",
      "required": ["id"],
      "properties": {
        "id": { "type": "string", "minLength": 1 },
        "type": { "type": "string" },
        "plugin": { "type": "string" },
        "action": { "type": "string" },
        "input": {},
        "params": { "type": "object" },
        "config": { "type": "object" },
        "condition": { "type": "string" },
        "outputs": { "type": "object" },
        "then_steps": {
          "type": "array",
          "items": { "$ref": "#/$defs/step" }
        },
        "else_steps": {
          "type": "array",
          "items": { "$ref": "#/$defs/step" }
        },
        "scatter": { "$ref": "#/$defs/scatter" }
      },
      "additionalProperties": false
    },
    "scatter": {
      "type": "object",
      "required": ["steps"],
      "properties": {
        "input": {},
        "item_var": { "type": "string" },
        "steps": {
          "type": "array",
          "items": { "$ref": "#/$defs/step" }
        }
      },
      "additionalProperties": false
    }
  }
}`

// structuralValidator holds the pre-compiled workflow schema.
type structuralValidator struct {
	schema *jsonschema.Schema
}

func newStructuralValidator() (*structuralValidator, error) {
	c := jsonschema.NewCompiler()

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(workflowSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal workflow schema: %w", err)
	}
	if err := c.AddResource("https://agentpilot.dev/schemas/workflow.json", doc); err != nil {
		return nil, fmt.Errorf("add workflow schema resource: %w", err)
	}
	compiled, err := c.Compile("https://agentpilot.dev/schemas/workflow.json")
	if err != nil {
		return nil, fmt.Errorf("compile workflow schema: %w", err)
	}
	return &structuralValidator{schema: compiled}, nil
}

// decodeWorkflow parses and structurally validates a raw tree-form document.
// A malformed root short-circuits with a fatal result; semantic passes never
// run on it.
func (c *Compiler) decodeWorkflow(raw []byte) (*dsl.Workflow, *dsl.CompilationResult) {
	fatal := func(message string) *dsl.CompilationResult {
		result := &dsl.CompilationResult{}
		result.AddError(dsl.ErrInvalidWorkflow, "", message, nil)
		return result.Finalize()
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fatal("workflow definition is not valid JSON: " + err.Error())
	}

	if c.structural != nil {
		if err := c.structural.schema.Validate(doc); err != nil {
			result := &dsl.CompilationResult{}
			for _, violation := range collectViolations(err) {
				result.AddError(dsl.ErrInvalidWorkflow, "", violation, nil)
			}
			return nil, result.Finalize()
		}
	}

	var wf dsl.Workflow
	if err := json.Unmarshal(raw, &wf); err != nil {
		return nil, fatal("decode workflow definition: " + err.Error())
	}
	return &wf, nil
}

// collectViolations walks a ValidationError tree and collects leaf messages
// with their instance locations.
func collectViolations(err error) []string {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{err.Error()}
	}
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}
	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
