package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/agentpilot/pilotc/pkg/dsl"
)

// bracketRe matches array accesses; indices are normalized to a wildcard
// before consulting the schema registry.
var bracketRe = regexp.MustCompile(`\[[^\]]*\]`)

// checkSchemaFieldPath asks the Schema Registry whether a nested field path
// (everything from the output key onward) is a legal projection of the target
// action's output schema. Best-effort: a nil registry no-ops.
func (p *pass) checkSchemaFieldPath(s *dsl.Step, target string, rest []string, ref string) {
	if p.c.schemas == nil {
		return
	}
	pa, ok := p.plugins[target]
	if !ok {
		return // not an action-kind step with a known (plugin, action)
	}
	schemaRef := pa.plugin + "/" + pa.action
	if !p.c.schemas.HasSchemaRef(schemaRef) {
		return
	}

	path := normalizeFieldPath(rest)
	res := p.c.schemas.ValidateFieldPath(pa.plugin, pa.action, path)
	if res.Valid {
		return
	}

	msg := res.Error
	if msg == "" {
		msg = fmt.Sprintf("field path %q is not part of the output schema of %s", path, schemaRef)
	}
	p.result.AddError(dsl.ErrSchemaFieldNotFound, s.ID, msg, &dsl.ErrorDetails{
		Reference:     ref,
		TargetStep:    target,
		Plugin:        pa.plugin,
		Action:        pa.action,
		SchemaRef:     schemaRef,
		AvailableKeys: res.AvailableFields,
	})
}

// checkDeclaredOutputs compares a step's declared output types against the
// registry manifest for the same keys.
func (p *pass) checkDeclaredOutputs(s *dsl.Step) {
	if p.c.schemas == nil || s.ID == "" {
		return
	}
	pa, ok := p.plugins[s.ID]
	if !ok {
		return
	}
	schemaRef := pa.plugin + "/" + pa.action
	if !p.c.schemas.HasSchemaRef(schemaRef) {
		return
	}

	for _, key := range p.outputKeysFor(s.ID) {
		declared, isStr := s.Outputs[key].(string)
		if !isStr || declared == "" || declared == "any" {
			continue
		}
		res := p.c.schemas.ValidateFieldPath(pa.plugin, pa.action, key)
		if !res.Valid || res.FieldType == "" || res.FieldType == "any" {
			continue
		}
		if res.FieldType != declared {
			p.result.AddWarning(dsl.WarnSchemaFieldMismatch, s.ID,
				fmt.Sprintf("output %q is declared as %q but %s declares it as %q", key, declared, schemaRef, res.FieldType),
				&dsl.ErrorDetails{ExpectedKey: key, Plugin: pa.plugin, Action: pa.action, SchemaRef: schemaRef})
		}
	}
}

// normalizeFieldPath rebuilds a dot path from segments with every array
// index rewritten to the [] wildcard: ["emails[0]", "sender"] -> "emails[].sender".
func normalizeFieldPath(segments []string) string {
	normalized := make([]string, len(segments))
	for i, seg := range segments {
		normalized[i] = bracketRe.ReplaceAllString(seg, "[]")
	}
	return strings.Join(normalized, ".")
}
