package commandsource

import (
	"fmt"
	"strings"

	"github.com/example/mkc/internal/apperr"
)

// Action is the kind of state change a command requests. The set is closed:
// every switch over Action must handle all three kinds and treat anything
// else as an error.
type Action int

const (
	ActionCreate Action = iota + 1
	ActionUpdate
	ActionDelete
)

// Actions lists every valid action in declaration order.
var Actions = []Action{ActionCreate, ActionUpdate, ActionDelete}

// String returns the canonical upper-case name (CREATE, UPDATE, DELETE).
func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "CREATE"
	case ActionUpdate:
		return "UPDATE"
	case ActionDelete:
		return "DELETE"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Valid reports whether a is one of the declared actions.
func (a Action) Valid() bool {
	return a == ActionCreate || a == ActionUpdate || a == ActionDelete
}

// ParseAction parses an action name, case-insensitively.
func ParseAction(s string) (Action, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CREATE":
		return ActionCreate, nil
	case "UPDATE":
		return ActionUpdate, nil
	case "DELETE":
		return ActionDelete, nil
	default:
		return 0, apperr.New(apperr.CodeUnsupported, "unsupported action %q (want create, update or delete)", s)
	}
}
