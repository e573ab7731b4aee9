package dsl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPilotError_Format(t *testing.T) {
	err := NewError(ErrInvalidWorkflow, "workflow definition is nil")
	assert.Equal(t, "[INVALID_WORKFLOW] workflow definition is nil", err.Error())
}

func TestPilotError_WithStep(t *testing.T) {
	err := NewErrorf(ErrInvalidSchemaRef, "unknown schema reference %q", "slack/post").WithStep("B")
	assert.Equal(t, `[INVALID_SCHEMA_REF] step B: unknown schema reference "slack/post"`, err.Error())
}

func TestPilotError_Unwrap(t *testing.T) {
	cause := errors.New("file not found")
	err := NewError(ErrInvalidSchemaRef, "read manifest").WithCause(cause)
	assert.ErrorIs(t, err, cause)
}

func TestPilotError_WithDetails(t *testing.T) {
	err := NewError(ErrInvalidPlan, "bad plan").WithDetails(map[string]any{"index": 3})
	assert.Equal(t, 3, err.Details["index"])
}
