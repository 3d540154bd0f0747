package app

import (
	"context"
	"errors"
	"testing"

	"github.com/example/mkc/internal/apperr"
	"github.com/example/mkc/internal/core/permission"
)

func newTestPolicyService() (*PolicyServiceImpl, *mockPolicyRepository) {
	reg := testRegistry()
	repo := newMockPolicyRepository("DELETE_COMPANY")
	return NewPolicyService(reg, permission.DefaultTable(reg, permission.DefaultAreaSuperUsers), repo), repo
}

func TestPolicyServiceListPolicies(t *testing.T) {
	svc, _ := newTestPolicyService()

	policies, err := svc.ListPolicies(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(policies) != 3 {
		t.Fatalf("len = %d, want 3", len(policies))
	}
	want := map[string]bool{"CREATE_COMPANY": false, "UPDATE_COMPANY": false, "DELETE_COMPANY": true}
	for _, p := range policies {
		enabled, ok := want[p.Code]
		if !ok {
			t.Errorf("unexpected code %s", p.Code)
			continue
		}
		if p.RequiresChecker != enabled {
			t.Errorf("%s RequiresChecker = %v, want %v", p.Code, p.RequiresChecker, enabled)
		}
		if p.Resource != "company" {
			t.Errorf("%s Resource = %s", p.Code, p.Resource)
		}
	}
}

func TestPolicyServiceSetMakerChecker(t *testing.T) {
	svc, repo := newTestPolicyService()
	ctx := context.Background()

	if err := svc.SetMakerChecker(ctx, " create_company ", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !repo.enabled["CREATE_COMPANY"] {
		t.Error("CREATE_COMPANY should be enabled")
	}

	if err := svc.SetMakerChecker(ctx, "DELETE_COMPANY", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.enabled["DELETE_COMPANY"] {
		t.Error("DELETE_COMPANY should be disabled")
	}

	tests := []string{"CREATE_COMPANY_CHECKER", "CREATE_LOAN", ""}
	for _, code := range tests {
		if err := svc.SetMakerChecker(ctx, code, true); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("SetMakerChecker(%q) err = %v, want not_found", code, err)
		}
	}
}

func TestPolicyServiceListRules(t *testing.T) {
	svc, _ := newTestPolicyService()

	rules, err := svc.ListRules(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 6 {
		t.Fatalf("len = %d, want 6", len(rules))
	}
	first := rules[0]
	if first.Action != "CREATE" || first.Path != "maker" || first.Required != "CREATE_COMPANY" {
		t.Errorf("first rule = %+v", first)
	}
	last := rules[5]
	if last.Action != "DELETE" || last.Path != "checker" || last.Required != "DELETE_COMPANY_CHECKER" {
		t.Errorf("last rule = %+v", last)
	}
}
