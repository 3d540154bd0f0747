package permission

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/example/mkc/internal/apperr"
	"github.com/example/mkc/internal/core/command"
	"github.com/example/mkc/internal/core/commandsource"
)

// Path is the execution path a command is running on.
type Path int

const (
	PathMaker Path = iota + 1
	PathChecker
)

func (p Path) String() string {
	switch p {
	case PathMaker:
		return "maker"
	case PathChecker:
		return "checker"
	}
	return fmt.Sprintf("Path(%d)", int(p))
}

// ParsePath parses "maker" or "checker".
func ParsePath(s string) (Path, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "maker":
		return PathMaker, nil
	case "checker":
		return PathChecker, nil
	}
	return 0, fmt.Errorf("unknown path %q", s)
}

// Default super-user grants per administrative area.
var DefaultAreaSuperUsers = map[string]string{
	"portfolio":    "PORTFOLIO_MANAGEMENT_SUPER_USER",
	"organisation": "ORGANISATION_ADMINISTRATION_SUPER_USER",
}

// Rule is the permission requirement of one (entity, action, path).
// Required names the function for error reporting; holding any of Allowed
// satisfies the rule.
type Rule struct {
	Required string   `yaml:"required"`
	Allowed  []string `yaml:"allowed"`
}

// Key addresses one rule in a Table.
type Key struct {
	Entity string
	Action commandsource.Action
	Path   Path
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Entity, k.Action, k.Path)
}

// Override replaces one rule of a table, as read from the policy file.
type Override struct {
	Entity   string   `yaml:"entity"`
	Action   string   `yaml:"action"`
	Path     string   `yaml:"path"`
	Required string   `yaml:"required"`
	Allowed  []string `yaml:"allowed"`
}

// Table maps (entity, action, path) to the rule that guards it.
type Table struct {
	rules map[Key]Rule
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{rules: make(map[Key]Rule)}
}

// DefaultTable generates the rules of every registered entity. For an entity
// client in the portfolio area, creating on the maker path requires
// CREATE_CLIENT and on the checker path CREATE_CLIENT_CHECKER; both accept
// ALL_FUNCTIONS, PORTFOLIO_MANAGEMENT_SUPER_USER or the code itself.
func DefaultTable(registry *command.Registry, areaSuperUsers map[string]string) *Table {
	t := NewTable()
	for _, def := range registry.Definitions() {
		allowed := []string{AllFunctions}
		if su, ok := areaSuperUsers[def.Area]; ok && su != "" {
			allowed = append(allowed, su)
		}
		for _, action := range commandsource.Actions {
			for _, path := range []Path{PathMaker, PathChecker} {
				code := Code(action, def.Resource, path)
				t.Set(Key{Entity: def.Resource, Action: action, Path: path}, Rule{
					Required: code,
					Allowed:  append(append([]string(nil), allowed...), code),
				})
			}
		}
	}
	return t
}

// Set stores the rule for k.
func (t *Table) Set(k Key, r Rule) {
	k.Entity = strings.ToLower(strings.TrimSpace(k.Entity))
	t.rules[k] = r
}

// Rule returns the rule for (entity, action, path).
func (t *Table) Rule(entity string, action commandsource.Action, path Path) (Rule, error) {
	k := Key{Entity: strings.ToLower(strings.TrimSpace(entity)), Action: action, Path: path}
	r, ok := t.rules[k]
	if !ok {
		return Rule{}, apperr.New(apperr.CodeUnsupported, "no permission rule for %s", k)
	}
	return r, nil
}

// Apply replaces the rule addressed by o.
func (t *Table) Apply(o Override) error {
	action, err := commandsource.ParseAction(o.Action)
	if err != nil {
		return fmt.Errorf("override for %s: %w", o.Entity, err)
	}
	path, err := ParsePath(o.Path)
	if err != nil {
		return fmt.Errorf("override for %s: %w", o.Entity, err)
	}
	if strings.TrimSpace(o.Entity) == "" {
		return fmt.Errorf("override without entity")
	}
	if len(o.Allowed) == 0 {
		return fmt.Errorf("override for %s %s %s allows nobody", o.Entity, action, path)
	}
	required := o.Required
	if required == "" {
		required = Code(action, o.Entity, path)
	}
	t.Set(Key{Entity: o.Entity, Action: action, Path: path}, Rule{Required: required, Allowed: o.Allowed})
	return nil
}

// Keys returns every key in the table in a stable order.
func (t *Table) Keys() []Key {
	keys := make([]Key, 0, len(t.rules))
	for k := range t.rules {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Entity != keys[j].Entity {
			return keys[i].Entity < keys[j].Entity
		}
		if keys[i].Action != keys[j].Action {
			return keys[i].Action < keys[j].Action
		}
		return keys[i].Path < keys[j].Path
	})
	return keys
}

// EntityCode returns the permission code fragment of a resource:
// the singular name upper-cased with underscores removed.
// savings_products becomes SAVINGSPRODUCT.
func EntityCode(resource string) string {
	singular := inflection.Singular(strings.ToLower(strings.TrimSpace(resource)))
	return strings.ToUpper(strings.ReplaceAll(singular, "_", ""))
}

// Code returns the permission code of an action on a resource for a path,
// e.g. DELETE_CLIENT or DELETE_CLIENT_CHECKER.
func Code(action commandsource.Action, resource string, path Path) string {
	code := action.String() + "_" + EntityCode(resource)
	if path == PathChecker {
		code += "_CHECKER"
	}
	return code
}
