package dsl

// Workflow is the tree-form DSL produced by the authoring UI and by agents.
// Steps may nest through conditional branches and scatter bodies.
type Workflow struct {
	Name     string         `json:"name,omitempty" yaml:"name,omitempty"`
	Schedule string         `json:"schedule,omitempty" yaml:"schedule,omitempty"` // standard 5-field cron
	Steps    []Step         `json:"steps" yaml:"steps"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Step is a single node in the workflow tree.
type Step struct {
	ID        string         `json:"id" yaml:"id"`
	Type      StepType       `json:"type,omitempty" yaml:"type,omitempty"` // default: action
	Plugin    string         `json:"plugin,omitempty" yaml:"plugin,omitempty"`
	Action    string         `json:"action,omitempty" yaml:"action,omitempty"`
	Input     any            `json:"input,omitempty" yaml:"input,omitempty"`
	Params    map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
	Config    map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
	Condition string         `json:"condition,omitempty" yaml:"condition,omitempty"`

	// Outputs maps declared output keys to type names. Reserved routing keys
	// (next_step and friends) and branch-wrapper objects also live here in
	// raw definitions; the compiler filters them out of the output registry.
	Outputs map[string]any `json:"outputs,omitempty" yaml:"outputs,omitempty"`

	ThenSteps []Step   `json:"then_steps,omitempty" yaml:"then_steps,omitempty"`
	ElseSteps []Step   `json:"else_steps,omitempty" yaml:"else_steps,omitempty"`
	Scatter   *Scatter `json:"scatter,omitempty" yaml:"scatter,omitempty"`
}

// Scatter describes a scatter_gather/loop body: an input expression producing
// the iterable, an optional item variable name, and the nested step list.
type Scatter struct {
	Input   any    `json:"input,omitempty" yaml:"input,omitempty"`
	ItemVar string `json:"item_var,omitempty" yaml:"item_var,omitempty"`
	Steps   []Step `json:"steps" yaml:"steps"`
}

// StepType enumerates the kinds of steps in a workflow.
type StepType string

const (
	StepTypeAction        StepType = "action"
	StepTypeTransform     StepType = "transform"
	StepTypeConditional   StepType = "conditional"
	StepTypeScatterGather StepType = "scatter_gather"
	StepTypeLoop          StepType = "loop"
	StepTypeAIProcessing  StepType = "ai_processing"
	StepTypeControl       StepType = "control"
)

// Kind returns the step's type with the action default applied.
func (s *Step) Kind() StepType {
	if s.Type == "" {
		return StepTypeAction
	}
	return s.Type
}

// IsLoop reports whether the step is a scatter_gather/loop step.
func (s *Step) IsLoop() bool {
	k := s.Kind()
	return k == StepTypeScatterGather || k == StepTypeLoop
}

// KnownStepType reports whether t is an enumerated step type.
func KnownStepType(t StepType) bool {
	switch t {
	case StepTypeAction, StepTypeTransform, StepTypeConditional,
		StepTypeScatterGather, StepTypeLoop, StepTypeAIProcessing, StepTypeControl:
		return true
	}
	return false
}

// Reserved routing keys. These appear inside a step's raw outputs but are
// control-flow edges, not data outputs.
const (
	KeyNextStep          = "next_step"
	KeyIsLastStep        = "is_last_step" // declared in the schema, unused by runtime completion logic
	KeyIterationNextStep = "iteration_next_step"
	KeyAfterLoopNextStep = "after_loop_next_step"
)

// ReservedRoutingKey reports whether key is one of the routing keys filtered
// out of the output registry.
func ReservedRoutingKey(key string) bool {
	switch key {
	case KeyNextStep, KeyIsLastStep, KeyIterationNextStep, KeyAfterLoopNextStep:
		return true
	}
	return false
}

// Reserved references and special prefixes understood by the reference
// validator.
const (
	RefLastBranchOutput = "lastBranchOutput"
	RefDataWrapper      = "data"
	RefOutputWrapper    = "output" // legacy alias for data

	SourceFromStep = "from_step"
)
