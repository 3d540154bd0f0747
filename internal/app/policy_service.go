package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/mkc/internal/apperr"
	"github.com/example/mkc/internal/core/command"
	"github.com/example/mkc/internal/core/commandsource"
	"github.com/example/mkc/internal/core/permission"
	"github.com/example/mkc/internal/ports/primary"
	"github.com/example/mkc/internal/ports/secondary"
)

// PolicyServiceImpl implements the PolicyService interface.
type PolicyServiceImpl struct {
	registry    *command.Registry
	permissions *permission.Table
	policyRepo  secondary.PolicyRepository
}

var _ primary.PolicyService = (*PolicyServiceImpl)(nil)

// NewPolicyService creates a new PolicyService with injected dependencies.
func NewPolicyService(registry *command.Registry, permissions *permission.Table, policyRepo secondary.PolicyRepository) *PolicyServiceImpl {
	return &PolicyServiceImpl{
		registry:    registry,
		permissions: permissions,
		policyRepo:  policyRepo,
	}
}

// ListPolicies lists the maker code of every registered entity and action.
func (s *PolicyServiceImpl) ListPolicies(ctx context.Context) ([]*primary.Policy, error) {
	records, err := s.policyRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	enabled := make(map[string]bool, len(records))
	for _, r := range records {
		enabled[r.Code] = r.Enabled
	}

	var policies []*primary.Policy
	for _, def := range s.registry.Definitions() {
		for _, action := range commandsource.Actions {
			code := permission.Code(action, def.Resource, permission.PathMaker)
			policies = append(policies, &primary.Policy{
				Code:            code,
				Resource:        def.Resource,
				Action:          action.String(),
				RequiresChecker: enabled[code],
			})
		}
	}
	return policies, nil
}

// SetMakerChecker enables or disables checker approval for a maker code.
func (s *PolicyServiceImpl) SetMakerChecker(ctx context.Context, code string, enabled bool) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !s.knownCode(code) {
		return apperr.New(apperr.CodeNotFound, "no entity action has permission code %s", code)
	}
	return s.policyRepo.SetMakerChecker(ctx, code, enabled)
}

// ListRules lists the permission table.
func (s *PolicyServiceImpl) ListRules(ctx context.Context) ([]*primary.PermissionRule, error) {
	keys := s.permissions.Keys()
	rules := make([]*primary.PermissionRule, 0, len(keys))
	for _, k := range keys {
		r, err := s.permissions.Rule(k.Entity, k.Action, k.Path)
		if err != nil {
			return nil, err
		}
		rules = append(rules, &primary.PermissionRule{
			Resource: k.Entity,
			Action:   k.Action.String(),
			Path:     k.Path.String(),
			Required: r.Required,
			Allowed:  append([]string(nil), r.Allowed...),
		})
	}
	return rules, nil
}

func (s *PolicyServiceImpl) knownCode(code string) bool {
	for _, def := range s.registry.Definitions() {
		for _, action := range commandsource.Actions {
			if permission.Code(action, def.Resource, permission.PathMaker) == code {
				return true
			}
		}
	}
	return false
}
