package dsl

import "fmt"

// Blocking error types. Presence of any makes the compilation result invalid.
const (
	ErrStepNotFound         = "STEP_NOT_FOUND"
	ErrOutputKeyNotFound    = "OUTPUT_KEY_NOT_FOUND"
	ErrInvalidReference     = "INVALID_REFERENCE"
	ErrCircularDependency   = "CIRCULAR_DEPENDENCY"
	ErrMissingRequiredInput = "MISSING_REQUIRED_INPUT"
	ErrInvalidRouting       = "INVALID_ROUTING"
	ErrTypeMismatch         = "TYPE_MISMATCH"
	ErrSchemaFieldNotFound  = "SCHEMA_FIELD_NOT_FOUND"
	ErrUnknownReference     = "UNKNOWN_REFERENCE"
	ErrInvalidSchemaRef     = "INVALID_SCHEMA_REF"
	ErrInvalidExpression    = "INVALID_EXPRESSION"
	ErrInvalidSchedule      = "INVALID_SCHEDULE"

	// Malformed root input (tree form).
	ErrInvalidWorkflow = "INVALID_WORKFLOW"

	// Flat-model equivalents.
	ErrInvalidPlan          = "INVALID_PLAN"
	ErrMissingRequiredField = "MISSING_REQUIRED_FIELD"
	ErrDependencyNotFound   = "DEPENDENCY_NOT_FOUND"
	ErrForwardDependency    = "FORWARD_DEPENDENCY"
)

// Non-blocking warning types.
const (
	WarnUnqualifiedReference     = "UNQUALIFIED_REFERENCE"
	WarnMissingOutputDeclaration = "MISSING_OUTPUT_DECLARATION"
	WarnDeprecatedSyntax         = "DEPRECATED_SYNTAX"
	WarnPotentialNullAccess      = "POTENTIAL_NULL_ACCESS"
	WarnSchemaFieldMismatch      = "SCHEMA_FIELD_MISMATCH"
	WarnUnknownStepType          = "UNKNOWN_STEP_TYPE"
	WarnDuplicateStepID          = "DUPLICATE_STEP_ID"
	WarnInvalidCondition         = "INVALID_CONDITION"
)

// PilotError is the structured error type for collaborator failures (input
// decoding, registry initialization). Data-shape problems never surface as
// errors of this type; they accumulate into the CompilationResult instead.
type PilotError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	StepID  string         `json:"step_id,omitempty"`
	Cause   error          `json:"-"`
}

func (e *PilotError) Error() string {
	if e.StepID != "" {
		return fmt.Sprintf("[%s] step %s: %s", e.Code, e.StepID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *PilotError) Unwrap() error {
	return e.Cause
}

// NewError creates a new PilotError.
func NewError(code, message string) *PilotError {
	return &PilotError{Code: code, Message: message}
}

// NewErrorf creates a new PilotError with a formatted message.
func NewErrorf(code, format string, args ...any) *PilotError {
	return &PilotError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithStep attaches a step ID to the error.
func (e *PilotError) WithStep(stepID string) *PilotError {
	e.StepID = stepID
	return e
}

// WithCause attaches an underlying cause.
func (e *PilotError) WithCause(err error) *PilotError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *PilotError) WithDetails(details map[string]any) *PilotError {
	e.Details = details
	return e
}
