package registry

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/agentpilot/pilotc/pkg/dsl"
)

// manifestFile is the on-disk shape: a document carrying a list of manifests.
type manifestFile struct {
	Manifests []*ActionManifest `json:"manifests" yaml:"manifests"`
}

// LoadManifests parses a YAML (or JSON) manifest document and registers every
// manifest it contains. Returns the number registered.
func (r *Registry) LoadManifests(data []byte) (int, error) {
	var file manifestFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, dsl.NewError(dsl.ErrInvalidSchemaRef, "parse manifests: "+err.Error()).WithCause(err)
	}

	registered := 0
	for _, m := range file.Manifests {
		if err := r.Register(m); err != nil {
			return registered, err
		}
		registered++
	}
	return registered, nil
}

// LoadManifestFile reads and registers manifests from a file path.
func (r *Registry) LoadManifestFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, dsl.NewErrorf(dsl.ErrInvalidSchemaRef, "read manifest file %q: %s", path, err.Error()).WithCause(err)
	}
	return r.LoadManifests(data)
}
