package plugin

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/calcwizard/internal/errors"
)

// Manifest is the declarative form of a plugin, served as manifest.json by
// a plugin server or stored as plugin.yaml on disk. Each unit is optional.
type Manifest struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Outline     string `json:"outline" yaml:"outline"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Setting       *Unit `json:"setting,omitempty" yaml:"setting,omitempty"`
	Result        *Unit `json:"result,omitempty" yaml:"result,omitempty"`
	CodeResources *Unit `json:"code_resources,omitempty" yaml:"code_resources,omitempty"`
}

// Unit is one tab a plugin contributes.
type Unit struct {
	Note   string  `json:"note,omitempty" yaml:"note,omitempty"`
	Fields []Field `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Field is one entry of a unit.
type Field struct {
	Key     string `json:"key" yaml:"key"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty"`
	Default any    `json:"default,omitempty" yaml:"default,omitempty"`
	Options []any  `json:"options,omitempty" yaml:"options,omitempty"`
	Help    string `json:"help,omitempty" yaml:"help,omitempty"`
}

// DisplayLabel returns the label, falling back to the key.
func (f Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Key
}

var pluginIDRe = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// ParseManifest decodes a YAML or JSON manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMalformedManifest, err)
	}
	return &m, nil
}

// Validate checks the manifest. When expectedID is non-empty the manifest
// must declare that id.
func (m *Manifest) Validate(expectedID string) error {
	if m.ID == "" {
		return fmt.Errorf("%w: id is required", errors.ErrMalformedManifest)
	}
	if !pluginIDRe.MatchString(m.ID) {
		return fmt.Errorf("%w: id %q must be lowercase alphanumeric with hyphens or underscores", errors.ErrMalformedManifest, m.ID)
	}
	if expectedID != "" && m.ID != expectedID {
		return fmt.Errorf("%w: id %q does not match requested plugin %q", errors.ErrMalformedManifest, m.ID, expectedID)
	}
	if m.Title == "" {
		return fmt.Errorf("%w: plugin %q: title is required", errors.ErrMalformedManifest, m.ID)
	}
	units := []struct {
		name string
		unit *Unit
	}{
		{"setting", m.Setting},
		{"result", m.Result},
		{"code_resources", m.CodeResources},
	}
	for _, u := range units {
		if u.unit == nil {
			continue
		}
		seen := make(map[string]bool, len(u.unit.Fields))
		for _, f := range u.unit.Fields {
			if f.Key == "" {
				return fmt.Errorf("%w: plugin %q: %s field without key", errors.ErrMalformedManifest, m.ID, u.name)
			}
			if seen[f.Key] {
				return fmt.Errorf("%w: plugin %q: %s field %q declared twice", errors.ErrMalformedManifest, m.ID, u.name, f.Key)
			}
			seen[f.Key] = true
		}
	}
	return nil
}

// Descriptor converts the manifest into a Descriptor whose capabilities
// render the manifest's units.
func (m *Manifest) Descriptor() *Descriptor {
	d := &Descriptor{
		ID:      m.ID,
		Title:   m.Title,
		Outline: m.Outline,
	}
	if m.Setting != nil {
		d.Settings = &unitContent{kind: unitSettings, title: m.Title, unit: *m.Setting}
	}
	if m.CodeResources != nil {
		d.Resources = &unitContent{kind: unitResources, title: m.Title, unit: *m.CodeResources}
	}
	if m.Result != nil {
		d.Results = &unitContent{kind: unitResults, title: m.Title, unit: *m.Result}
	}
	return d
}

// Defaults returns the default value of every field in u.
func (u Unit) Defaults() map[string]any {
	out := make(map[string]any, len(u.Fields))
	for _, f := range u.Fields {
		if f.Default != nil {
			out[f.Key] = f.Default
		}
	}
	return out
}
