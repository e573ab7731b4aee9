// Package registry holds the Schema Registry: plugin action manifests that
// declare the output shape of every (plugin, action) pair. It is populated
// once at startup and read-only during compilation; the compiler treats it as
// best-effort and degrades to structural checks when it is absent.
package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/agentpilot/pilotc/pkg/dsl"
)

// FieldSpec describes one field of an action's declared output shape.
// Object fields nest through Fields; array fields describe elements via Items.
type FieldSpec struct {
	Type     string                `json:"type" yaml:"type"` // string | number | boolean | object | array | any
	Optional bool                  `json:"optional,omitempty" yaml:"optional,omitempty"`
	Fields   map[string]*FieldSpec `json:"fields,omitempty" yaml:"fields,omitempty"`
	Items    *FieldSpec            `json:"items,omitempty" yaml:"items,omitempty"`
}

// ActionManifest declares the output schema of one plugin action.
type ActionManifest struct {
	Plugin string                `json:"plugin" yaml:"plugin"`
	Action string                `json:"action" yaml:"action"`
	Output map[string]*FieldSpec `json:"output" yaml:"output"` // output key -> shape
}

// Ref returns the canonical schema reference "plugin/action".
func (m *ActionManifest) Ref() string {
	return m.Plugin + "/" + m.Action
}

// FieldPathResult is the outcome of a field-path projection check.
type FieldPathResult struct {
	Valid           bool     `json:"valid"`
	Error           string   `json:"error,omitempty"`
	FieldType       string   `json:"fieldType,omitempty"`
	AvailableFields []string `json:"availableFields,omitempty"`
}

// Registry is the concrete thread-safe schema registry.
type Registry struct {
	mu        sync.RWMutex
	manifests map[string]*ActionManifest
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		manifests: make(map[string]*ActionManifest),
	}
}

// Register adds a manifest. Returns error on duplicate (plugin, action).
func (r *Registry) Register(m *ActionManifest) error {
	if m == nil {
		return dsl.NewError(dsl.ErrInvalidSchemaRef, "manifest is nil")
	}
	if m.Plugin == "" || m.Action == "" {
		return dsl.NewError(dsl.ErrInvalidSchemaRef, "manifest plugin and action are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ref := m.Ref()
	if _, exists := r.manifests[ref]; exists {
		return dsl.NewErrorf(dsl.ErrInvalidSchemaRef, "manifest %q already registered", ref)
	}

	r.manifests[ref] = m
	return nil
}

// HasSchemaRef reports whether ref ("plugin/action") is registered.
func (r *Registry) HasSchemaRef(ref string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.manifests[ref]
	return ok
}

// Refs returns all registered schema refs, sorted.
func (r *Registry) Refs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	refs := make([]string, 0, len(r.manifests))
	for ref := range r.manifests {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// ValidateFieldPath checks whether a normalized field path (dot-delimited,
// array access as "[]") is a legal projection of the action's output schema.
// Unknown (plugin, action) pairs never block: schema checking is best-effort.
func (r *Registry) ValidateFieldPath(plugin, action, path string) FieldPathResult {
	r.mu.RLock()
	m, ok := r.manifests[plugin+"/"+action]
	r.mu.RUnlock()

	if !ok {
		return FieldPathResult{Valid: true}
	}

	segments := splitPath(path)
	if len(segments) == 0 {
		return FieldPathResult{Valid: true}
	}

	// First segment selects the output key.
	head := segments[0]
	spec, found := m.Output[head.name]
	if !found {
		return FieldPathResult{
			Valid:           false,
			Error:           "field " + head.name + " not found in output of " + m.Ref(),
			AvailableFields: specKeys(m.Output),
		}
	}
	spec, res := descendArrays(spec, head, m)
	if res != nil {
		return *res
	}

	for _, seg := range segments[1:] {
		if spec == nil || spec.Type == "any" {
			return FieldPathResult{Valid: true, FieldType: "any"}
		}
		if spec.Type != "object" {
			return FieldPathResult{
				Valid: false,
				Error: "cannot access field " + seg.name + " on non-object field (type " + spec.Type + ") in " + m.Ref(),
			}
		}
		next, found := spec.Fields[seg.name]
		if !found {
			return FieldPathResult{
				Valid:           false,
				Error:           "field " + seg.name + " not found in output of " + m.Ref(),
				AvailableFields: specKeys(spec.Fields),
			}
		}
		spec, res = descendArrays(next, seg, m)
		if res != nil {
			return *res
		}
	}

	fieldType := "any"
	if spec != nil {
		fieldType = spec.Type
	}
	return FieldPathResult{Valid: true, FieldType: fieldType}
}

// descendArrays applies the segment's "[]" accesses to the spec.
func descendArrays(spec *FieldSpec, seg pathSegment, m *ActionManifest) (*FieldSpec, *FieldPathResult) {
	for i := 0; i < seg.arrays; i++ {
		if spec == nil || spec.Type == "any" {
			return &FieldSpec{Type: "any"}, nil
		}
		if spec.Type != "array" {
			return nil, &FieldPathResult{
				Valid: false,
				Error: "cannot index non-array field " + seg.name + " (type " + spec.Type + ") in " + m.Ref(),
			}
		}
		if spec.Items == nil {
			return &FieldSpec{Type: "any"}, nil
		}
		spec = spec.Items
	}
	return spec, nil
}

type pathSegment struct {
	name   string
	arrays int // number of "[]" accesses on this segment
}

// splitPath parses "emails[].sender" into segments with array markers.
func splitPath(path string) []pathSegment {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	segments := make([]pathSegment, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		name := p
		arrays := 0
		for strings.HasSuffix(name, "[]") {
			name = strings.TrimSuffix(name, "[]")
			arrays++
		}
		segments = append(segments, pathSegment{name: name, arrays: arrays})
	}
	return segments
}

// specKeys returns sorted field names from a spec map.
func specKeys(m map[string]*FieldSpec) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
