package compiler

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/agentpilot/pilotc/pkg/dsl"
)

// stepShapedRe matches the id shape upstream generators emit for steps.
var stepShapedRe = regexp.MustCompile(`(?i)^step[_-]?\d+$`)

// Handlebars block helpers whose presence anywhere in a template puts every
// otherwise-unresolvable reference into the block's iteration context.
var blockOpeners = []string{"{{#each", "{{#with", "{{#if", "{{#unless"}

// walkValue recurses through a step's expression-bearing value, validating
// structured references and template placeholders. Map keys are visited in
// sorted order so repeated compiles yield identical diagnostics.
func (p *pass) walkValue(s *dsl.Step, v any) {
	switch val := v.(type) {
	case string:
		p.validateTemplate(s, val)
	case map[string]any:
		if p.validateStructuredRef(s, val) {
			return
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			p.walkValue(s, val[k])
		}
	case []any:
		for _, item := range val {
			p.walkValue(s, item)
		}
	}
}

// validateStructuredRef handles {source: "from_step", ref: "stepId.key[.nested]"}
// objects. Returns true when the map was a structured reference.
func (p *pass) validateStructuredRef(s *dsl.Step, val map[string]any) bool {
	src, ok := val["source"].(string)
	if !ok {
		return false
	}
	if src != dsl.SourceFromStep {
		return true // other sources carry literals, nothing to resolve
	}

	ref, _ := val["ref"].(string)
	if strings.TrimSpace(ref) == "" {
		p.result.AddError(dsl.ErrInvalidReference, s.ID,
			`from_step reference is missing "ref"`, nil)
		return true
	}

	p.resolveReference(s, strings.TrimSpace(ref), false)
	return true
}

// validateTemplate scans a template string for {{...}} placeholders and
// resolves each one.
func (p *pass) validateTemplate(s *dsl.Step, tpl string) {
	if !strings.Contains(tpl, "{{") {
		return
	}

	blockCtx := false
	for _, opener := range blockOpeners {
		if strings.Contains(tpl, opener) {
			blockCtx = true
			break
		}
	}

	exprs, unclosed := scanPlaceholders(tpl)
	if unclosed {
		p.result.AddError(dsl.ErrInvalidReference, s.ID,
			"template contains an unclosed {{ expression", &dsl.ErrorDetails{Reference: tpl})
	}
	for _, expr := range exprs {
		p.validateExpr(s, expr, blockCtx)
	}
}

// scanPlaceholders extracts the trimmed contents of every {{...}} token.
func scanPlaceholders(tpl string) (exprs []string, unclosed bool) {
	i := 0
	for i < len(tpl) {
		idx := strings.Index(tpl[i:], "{{")
		if idx == -1 {
			return
		}
		start := i + idx + 2
		end := strings.Index(tpl[start:], "}}")
		if end == -1 {
			unclosed = true
			return
		}
		// Trim triple-brace raw markers along with whitespace.
		expr := strings.Trim(strings.TrimSpace(tpl[start:start+end]), "{} \t")
		exprs = append(exprs, expr)
		i = start + end + 2
	}
	return
}

// validateExpr handles a single placeholder body: block helpers, closers, and
// plain references or helper calls.
func (p *pass) validateExpr(s *dsl.Step, expr string, blockCtx bool) {
	if expr == "" {
		p.result.AddError(dsl.ErrInvalidReference, s.ID,
			"empty template expression {{}}", nil)
		return
	}
	if strings.HasPrefix(expr, "/") || expr == "else" {
		return
	}
	if strings.HasPrefix(expr, "#") {
		// Block opener: validate its arguments in block context.
		fields := strings.Fields(strings.TrimPrefix(expr, "#"))
		for _, arg := range fields[1:] {
			p.validateToken(s, arg, true)
		}
		return
	}

	tokens := strings.Fields(expr)
	if len(tokens) > 1 {
		// Helper call: the first token is the helper name, not a reference.
		tokens = tokens[1:]
	}
	for _, tok := range tokens {
		p.validateToken(s, tok, blockCtx)
	}
}

func (p *pass) validateToken(s *dsl.Step, tok string, blockCtx bool) {
	tok = strings.Trim(tok, "()")
	if tok == "" || literalToken(tok) {
		return
	}
	p.resolveReference(s, tok, blockCtx)
}

// literalToken reports whether tok is a literal or keyword rather than a
// resolvable reference.
func literalToken(tok string) bool {
	switch tok {
	case "true", "false", "null", "this", "else":
		return true
	}
	if tok[0] == '"' || tok[0] == '\'' || tok[0] == '@' {
		return true
	}
	if _, err := strconv.ParseFloat(tok, 64); err == nil {
		return true
	}
	return strings.Contains(tok, "=") // hash arguments (key=value)
}

// resolveReference applies the resolution rules, in order, to one reference.
func (p *pass) resolveReference(s *dsl.Step, ref string, blockCtx bool) {
	// Rule 1: special prefixes are always valid.
	for _, prefix := range []string{"input.", "env.", "config.", "item.", "current."} {
		if strings.HasPrefix(ref, prefix) {
			return
		}
	}

	// Rule 2: standalone sentinels.
	switch ref {
	case "item", "current", "index":
		return
	}

	segments := strings.Split(ref, ".")
	head, _ := splitIndexSuffix(segments[0])
	if head == "" {
		p.result.AddError(dsl.ErrInvalidReference, s.ID,
			fmt.Sprintf("malformed reference %q", ref), &dsl.ErrorDetails{Reference: ref})
		return
	}

	// Rule 3: active scope variable. The remaining path belongs to the
	// per-item shape, not any step's declared outputs.
	if p.scope.isInScope(head) {
		return
	}

	// Rule 4: known step id.
	if _, ok := p.index[head]; ok {
		p.resolveStepRef(s, head, segments, ref)
		return
	}

	// Rule 5: step-shaped but absent from the index.
	if p.looksStepShaped(head, segments, blockCtx) {
		p.result.AddError(dsl.ErrStepNotFound, s.ID,
			fmt.Sprintf("reference %q points to unknown step %q", ref, head),
			&dsl.ErrorDetails{
				Reference:     ref,
				TargetStep:    head,
				AvailableKeys: p.knownStepIDs(),
			})
		return
	}

	// Rule 6: a block helper anywhere in the template puts the reference in
	// the current block's iteration context, which cannot be statically typed.
	if blockCtx {
		return
	}

	// Rule 7: catch-all. Bare keys uniquely matching one step's output get a
	// fix-it warning instead of an error.
	if len(segments) == 1 {
		if owner, unique := p.uniqueOutputOwner(head); unique {
			qualified := owner + "." + head
			p.result.AddWarning(dsl.WarnUnqualifiedReference, s.ID,
				fmt.Sprintf("reference %q should be qualified as %q", ref, qualified),
				&dsl.ErrorDetails{Reference: ref, TargetStep: owner, Suggestion: qualified})
			p.result.AddAutoFix(dsl.AutoFix{
				StepID:      s.ID,
				Reference:   "{{" + ref + "}}",
				Replacement: "{{" + qualified + "}}",
				Description: fmt.Sprintf("qualify output %q with its producing step %q", head, owner),
			})
			return
		}
	}
	p.result.AddError(dsl.ErrUnknownReference, s.ID,
		fmt.Sprintf("unresolved reference %q", ref), &dsl.ErrorDetails{Reference: ref})
}

// resolveStepRef validates the path of a reference whose head is an indexed
// step id.
func (p *pass) resolveStepRef(s *dsl.Step, target string, segments []string, ref string) {
	p.addDataEdge(target, s.ID)

	rest := segments[1:]
	if len(rest) == 0 {
		return // whole-output reference
	}

	key, _ := splitIndexSuffix(rest[0])
	switch key {
	case dsl.RefDataWrapper, dsl.RefOutputWrapper:
		if key == dsl.RefOutputWrapper {
			fixed := strings.Replace(ref, target+".output", target+".data", 1)
			p.result.AddWarning(dsl.WarnDeprecatedSyntax, s.ID,
				fmt.Sprintf("reference %q uses the legacy %q wrapper; use %q", ref, "output", "data"),
				&dsl.ErrorDetails{Reference: ref, Suggestion: fixed})
			p.result.AddAutoFix(dsl.AutoFix{
				StepID:      s.ID,
				Reference:   ref,
				Replacement: fixed,
				Description: "rewrite legacy output wrapper to data",
			})
		}
		// The wrapper transparently forwards to the nested field.
		rest = rest[1:]
		if len(rest) == 0 {
			return
		}
		p.validateOutputKey(s, target, rest, ref)

	case dsl.RefLastBranchOutput:
		if p.conditionals[target] {
			if len(rest) > 1 {
				p.result.AddWarning(dsl.WarnPotentialNullAccess, s.ID,
					fmt.Sprintf("reference %q accesses fields past lastBranchOutput, whose shape depends on which branch ran", ref),
					&dsl.ErrorDetails{Reference: ref, TargetStep: target})
			}
			return
		}
		p.result.AddError(dsl.ErrOutputKeyNotFound, s.ID,
			fmt.Sprintf("step %q is not a conditional step: %q is only valid on conditional steps", target, dsl.RefLastBranchOutput),
			&dsl.ErrorDetails{
				Reference:     ref,
				TargetStep:    target,
				ExpectedKey:   dsl.RefLastBranchOutput,
				AvailableKeys: p.outputKeysFor(target),
			})

	default:
		p.validateOutputKey(s, target, rest, ref)
	}
}

// validateOutputKey checks rest[0] against the target's output registry and
// hands deeper paths to the schema field validator.
func (p *pass) validateOutputKey(s *dsl.Step, target string, rest []string, ref string) {
	key, indexed := splitIndexSuffix(rest[0])

	if p.hasOutputKey(target, key) {
		if indexed || len(rest) > 1 {
			p.checkSchemaFieldPath(s, target, rest, ref)
		}
		return
	}

	// Transforms and AI steps without declared outputs have runtime-determined
	// shapes; accept with a warning instead of erroring.
	if len(p.outputKeysFor(target)) == 0 {
		if k := p.index[target].Kind(); k == dsl.StepTypeTransform || k == dsl.StepTypeAIProcessing {
			p.result.AddWarning(dsl.WarnMissingOutputDeclaration, s.ID,
				fmt.Sprintf("step %q declares no outputs; reference %q cannot be checked", target, ref),
				&dsl.ErrorDetails{Reference: ref, TargetStep: target, ExpectedKey: key})
			return
		}
	}

	p.result.AddError(dsl.ErrOutputKeyNotFound, s.ID,
		fmt.Sprintf("step %q has no output %q", target, key),
		&dsl.ErrorDetails{
			Reference:     ref,
			TargetStep:    target,
			ExpectedKey:   key,
			AvailableKeys: p.outputKeysFor(target),
		})
}

// looksStepShaped decides whether an unknown leading identifier was meant to
// be a step id. Inside a block context only the generated-id shape counts;
// outside it, a dotted path whose second segment is a wrapper or a declared
// output key of some step also qualifies.
func (p *pass) looksStepShaped(head string, segments []string, blockCtx bool) bool {
	if stepShapedRe.MatchString(head) {
		return true
	}
	if blockCtx || len(segments) < 2 {
		return false
	}
	second, _ := splitIndexSuffix(segments[1])
	switch second {
	case dsl.RefDataWrapper, dsl.RefOutputWrapper, dsl.RefLastBranchOutput:
		return true
	}
	for _, id := range p.order {
		if p.hasOutputKey(id, second) {
			return true
		}
	}
	return false
}

// uniqueOutputOwner returns the single step declaring key as an output, if
// exactly one does.
func (p *pass) uniqueOutputOwner(key string) (string, bool) {
	owner := ""
	count := 0
	for _, id := range p.order {
		if p.hasOutputKey(id, key) {
			owner = id
			count++
		}
	}
	return owner, count == 1
}

// splitIndexSuffix strips bracket access from a path segment:
// "emails[0]" -> ("emails", true).
func splitIndexSuffix(seg string) (string, bool) {
	if i := strings.IndexByte(seg, '['); i >= 0 {
		return seg[:i], true
	}
	return seg, false
}
