package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/specweave/specweave/internal/spec"
)

// fileTemplate is the YAML shape of one registry entry.
type fileTemplate struct {
	ID      string            `yaml:"id"`
	Kind    string            `yaml:"kind"`
	Pattern string            `yaml:"pattern"`
	Params  map[string]string `yaml:"params"`
	Expect  string            `yaml:"expect"`
	Compare string            `yaml:"compare"`
}

// registryFile is the YAML document root.
type registryFile struct {
	Templates []fileTemplate `yaml:"templates"`
}

// Load parses registry YAML and compiles it. Placeholder types default
// to string when the params map omits them; positional extraction order
// always follows the pattern, never the map.
func Load(data []byte) (*Registry, error) {
	var rf registryFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing registry: %w", err)
	}
	if len(rf.Templates) == 0 {
		return nil, fmt.Errorf("registry declares no templates")
	}

	templates := make([]Template, 0, len(rf.Templates))
	for i, ft := range rf.Templates {
		if ft.ID == "" {
			return nil, fmt.Errorf("registry template %d: missing id", i)
		}
		t := Template{
			ID:      ft.ID,
			Kind:    spec.Kind(ft.Kind),
			Pattern: ft.Pattern,
			Expect:  ft.Expect,
			Compare: ft.Compare,
		}
		for name, typ := range ft.Params {
			t.Placeholders = append(t.Placeholders, Placeholder{Name: name, Type: spec.ParamType(typ)})
		}
		templates = append(templates, t)
	}

	return New(templates)
}

// LoadFileImpl reads and compiles a registry file from disk.
// This is an Impl function exempt from coverage requirements.
func LoadFileImpl(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry: %w", err)
	}
	return Load(data)
}
