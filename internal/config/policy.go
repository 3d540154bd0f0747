package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/mkc/internal/core/command"
	"github.com/example/mkc/internal/core/permission"
)

//go:embed default_policy.yaml
var defaultPolicy []byte

// Policy is the YAML policy file: the entity types commands may target, the
// super-user permission of each administrative area, permission rule
// overrides and the maker permission codes that need a checker.
type Policy struct {
	AreaSuperUsers map[string]string     `yaml:"area_super_users"`
	Entities       []command.Definition  `yaml:"entities"`
	Overrides      []permission.Override `yaml:"overrides"`
	MakerChecker   []string              `yaml:"maker_checker"`
}

// DefaultPolicy returns the built-in policy.
func DefaultPolicy() (*Policy, error) {
	return ParsePolicy(defaultPolicy)
}

// LoadPolicy reads the policy file at path, or the built-in policy when
// path is empty.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return DefaultPolicy()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	p, err := ParsePolicy(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ParsePolicy decodes a policy document. Unknown keys are rejected.
func ParsePolicy(data []byte) (*Policy, error) {
	var p Policy
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to parse policy: %w", err)
	}
	if len(p.Entities) == 0 {
		return nil, fmt.Errorf("policy defines no entities")
	}
	if p.AreaSuperUsers == nil {
		p.AreaSuperUsers = permission.DefaultAreaSuperUsers
	}
	for i, code := range p.MakerChecker {
		p.MakerChecker[i] = strings.ToUpper(strings.TrimSpace(code))
	}
	return &p, nil
}

// Registry builds the entity registry of the policy.
func (p *Policy) Registry() (*command.Registry, error) {
	return command.NewRegistry(p.Entities...)
}

// Table builds the permission table for registry with the policy's
// overrides applied.
func (p *Policy) Table(registry *command.Registry) (*permission.Table, error) {
	t := permission.DefaultTable(registry, p.AreaSuperUsers)
	for _, o := range p.Overrides {
		if _, err := registry.Lookup(o.Entity); err != nil {
			return nil, fmt.Errorf("override: %w", err)
		}
		if err := t.Apply(o); err != nil {
			return nil, err
		}
	}
	return t, nil
}
