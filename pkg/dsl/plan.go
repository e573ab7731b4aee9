package dsl

// StepRecord is one entry in the flat dependency-list form of a workflow.
// Records are ordered; dependencies must reference ids declared strictly
// earlier in the array. Step ids are opaque labels, not positional indices.
type StepRecord struct {
	StepID       string   `json:"step_id" yaml:"step_id"`
	Type         string   `json:"type" yaml:"type"`
	Plugin       string   `json:"plugin,omitempty" yaml:"plugin,omitempty"`
	Action       string   `json:"action,omitempty" yaml:"action,omitempty"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}
