package pattern

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var builtinTemplates []byte

// Template describes a built-in pattern. Repeats, when present, replaces
// the count written in Pattern; 0 loops.
type Template struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	Repeats *int   `yaml:"repeats,omitempty"`
}

type templateFile struct {
	Patterns []Template `yaml:"patterns"`
}

// DefaultTemplates returns the built-in patterns compiled into the binary.
func DefaultTemplates() []Template {
	ts, err := ReadTemplates(bytes.NewReader(builtinTemplates))
	if err != nil {
		panic(fmt.Sprintf("pattern: embedded templates: %v", err))
	}
	return ts
}

// LoadTemplatesFile reads extra built-in patterns from a YAML file with a
// top-level "patterns" list.
func LoadTemplatesFile(path string) ([]Template, error) {
	f, err := os.Open(path) //nolint:gosec // Path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("opening templates file: %w", err)
	}
	defer f.Close()
	return ReadTemplates(f)
}

// ReadTemplates decodes a template document.
func ReadTemplates(r io.Reader) ([]Template, error) {
	var doc templateFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	for i, t := range doc.Patterns {
		if t.Name == "" {
			return nil, fmt.Errorf("%w: template %d has no name", ErrInvalidPattern, i)
		}
		if t.Repeats != nil && *t.Repeats < 0 {
			return nil, fmt.Errorf("%w: template %q has negative repeats", ErrInvalidPattern, t.Name)
		}
	}
	return doc.Patterns, nil
}

// build turns a template into a locked system pattern. A missing id is
// generated from the name.
func (t Template) build() *Pattern {
	repeats, steps := ParseSteps(t.Pattern)
	if t.Repeats != nil {
		repeats = *t.Repeats
	}
	id := t.ID
	if id == "" {
		id = GenerateID(t.Name)
	}
	return &Pattern{
		ID:      id,
		Name:    t.Name,
		Repeats: repeats,
		Steps:   steps,
		System:  true,
		Locked:  true,
	}
}

