package primary

import "context"

// PolicyService defines the primary port for maker-checker policy and the
// permission table.
type PolicyService interface {
	// ListPolicies lists the maker permission code of every entity and action
	// with its maker-checker flag.
	ListPolicies(ctx context.Context) ([]*Policy, error)

	// SetMakerChecker enables or disables checker approval for a maker code.
	SetMakerChecker(ctx context.Context, code string, enabled bool) error

	// ListRules lists the permission table.
	ListRules(ctx context.Context) ([]*PermissionRule, error)
}

// Policy is the maker-checker flag of one maker permission code.
type Policy struct {
	Code            string
	Resource        string
	Action          string
	RequiresChecker bool
}

// PermissionRule is one row of the permission table.
type PermissionRule struct {
	Resource string
	Action   string
	Path     string
	Required string
	Allowed  []string
}
