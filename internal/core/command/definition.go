// Package command projects raw JSON command payloads into typed, validated
// commands for a known entity type.
//
// An entity type is described by a Definition: its resource name, the
// administrative area it belongs to, and the fields a payload may carry.
// Field kinds drive both deserialization and the type-aware equality used by
// change detection.
package command

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/mkc/internal/apperr"
)

// Kind is the value type of a field.
type Kind string

const (
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
	KindDate   Kind = "date"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindString, KindNumber, KindBool, KindDate:
		return true
	}
	return false
}

// Field describes one payload parameter.
type Field struct {
	Name      string `yaml:"name"`
	Kind      Kind   `yaml:"kind"`
	Required  bool   `yaml:"required,omitempty"`   // must be present on create and never blank
	Positive  bool   `yaml:"positive,omitempty"`   // numbers only: must be an integer greater than zero
	MaxLength int    `yaml:"max_length,omitempty"` // strings only, 0 means unbounded
}

// Definition describes an entity type that commands can target.
type Definition struct {
	Resource string  `yaml:"resource"`
	Area     string  `yaml:"area"`
	Fields   []Field `yaml:"fields"`
}

// Field returns the field with the given name.
func (d Definition) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Validate checks that the definition is well formed.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.Resource) == "" {
		return fmt.Errorf("entity definition without resource name")
	}
	seen := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		if f.Name == "" {
			return fmt.Errorf("entity %s has a field without a name", d.Resource)
		}
		if seen[f.Name] {
			return fmt.Errorf("entity %s declares field %s twice", d.Resource, f.Name)
		}
		seen[f.Name] = true
		if !f.Kind.Valid() {
			return fmt.Errorf("entity %s field %s has unknown kind %q", d.Resource, f.Name, f.Kind)
		}
		if f.Positive && f.Kind != KindNumber {
			return fmt.Errorf("entity %s field %s: positive only applies to numbers", d.Resource, f.Name)
		}
		if f.MaxLength > 0 && f.Kind != KindString {
			return fmt.Errorf("entity %s field %s: max_length only applies to strings", d.Resource, f.Name)
		}
	}
	return nil
}

// Registry holds the definitions of every entity type commands may target.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry validates and indexes the given definitions.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		key := normalizeResource(d.Resource)
		if _, dup := r.defs[key]; dup {
			return nil, fmt.Errorf("entity %s defined twice", d.Resource)
		}
		d.Resource = key
		r.defs[key] = d
	}
	return r, nil
}

// Lookup returns the definition for resource.
func (r *Registry) Lookup(resource string) (Definition, error) {
	d, ok := r.defs[normalizeResource(resource)]
	if !ok {
		return Definition{}, apperr.New(apperr.CodeUnsupported, "unknown resource %q", resource)
	}
	return d, nil
}

// Definitions returns all definitions sorted by resource name.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Resource < out[j].Resource })
	return out
}

func normalizeResource(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
