package dsl

// ErrorDetails carries the structured context attached to a compilation
// error or warning. All fields are optional; the authoring UI renders
// whatever is present.
type ErrorDetails struct {
	Reference     string   `json:"reference,omitempty"`
	ExpectedKey   string   `json:"expectedKey,omitempty"`
	AvailableKeys []string `json:"availableKeys,omitempty"`
	TargetStep    string   `json:"targetStep,omitempty"`
	Plugin        string   `json:"plugin,omitempty"`
	Action        string   `json:"action,omitempty"`
	Suggestion    string   `json:"suggestion,omitempty"`
	SchemaRef     string   `json:"schemaRef,omitempty"`
}

// CompilationError is a blocking diagnostic. Message text is part of the
// external contract: the authoring UI renders it verbatim.
type CompilationError struct {
	Type    string        `json:"type"`
	StepID  string        `json:"stepId,omitempty"`
	Message string        `json:"message"`
	Details *ErrorDetails `json:"details,omitempty"`
}

// CompilationWarning has the same shape as CompilationError but never blocks.
type CompilationWarning = CompilationError

// AutoFix is an optional mechanical-correction record suggesting a textual
// replacement for a flagged reference.
type AutoFix struct {
	StepID      string `json:"stepId"`
	Reference   string `json:"reference"`
	Replacement string `json:"replacement"`
	Description string `json:"description"`
}

// CompilationResult aggregates every diagnostic from a single compile call.
// Valid holds iff Errors is empty; NormalizedDSL is populated only when valid.
type CompilationResult struct {
	Valid          bool                 `json:"valid"`
	Errors         []CompilationError   `json:"errors"`
	Warnings       []CompilationWarning `json:"warnings"`
	AutoFixes      []AutoFix            `json:"autoFixes,omitempty"`
	NormalizedDSL  *NormalizedWorkflow  `json:"normalizedDsl,omitempty"`
	OutputRegistry map[string][]string  `json:"outputRegistry,omitempty"`
}

// AddError appends a blocking diagnostic. details may be nil.
func (r *CompilationResult) AddError(errType, stepID, message string, details *ErrorDetails) {
	r.Errors = append(r.Errors, CompilationError{
		Type: errType, StepID: stepID, Message: message, Details: details,
	})
}

// AddWarning appends a non-blocking diagnostic. details may be nil.
func (r *CompilationResult) AddWarning(warnType, stepID, message string, details *ErrorDetails) {
	r.Warnings = append(r.Warnings, CompilationWarning{
		Type: warnType, StepID: stepID, Message: message, Details: details,
	})
}

// AddAutoFix records a mechanical correction suggestion.
func (r *CompilationResult) AddAutoFix(fix AutoFix) {
	r.AutoFixes = append(r.AutoFixes, fix)
}

// Merge combines another result into this one.
func (r *CompilationResult) Merge(other *CompilationResult) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.AutoFixes = append(r.AutoFixes, other.AutoFixes...)
}

// Finalize recomputes Valid from the accumulated errors and returns r.
func (r *CompilationResult) Finalize() *CompilationResult {
	r.Valid = len(r.Errors) == 0
	if r.Errors == nil {
		r.Errors = []CompilationError{}
	}
	if r.Warnings == nil {
		r.Warnings = []CompilationWarning{}
	}
	return r
}

// NormalizedWorkflow is the graph view of a valid workflow: every step with
// defaults applied, plus the explicit node+edge model derived from data
// references and routing targets.
type NormalizedWorkflow struct {
	Steps []NormalizedStep `json:"steps"`
	Edges []Edge           `json:"edges,omitempty"`
}

// NormalizedStep is one node of the normalized graph.
type NormalizedStep struct {
	ID         string   `json:"id"`
	Type       StepType `json:"type"`
	Plugin     string   `json:"plugin,omitempty"`
	Action     string   `json:"action,omitempty"`
	OutputKeys []string `json:"outputKeys,omitempty"`
	ItemVar    string   `json:"itemVar,omitempty"` // loop steps only
}

// Edge kinds in the normalized graph.
const (
	EdgeData    = "data"
	EdgeRouting = "routing"
)

// Edge is one explicit dependency edge between two steps.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
}
