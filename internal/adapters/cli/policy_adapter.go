package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/example/mkc/internal/ports/primary"
)

// PolicyAdapter translates CLI operations to PolicyService calls.
type PolicyAdapter struct {
	service primary.PolicyService
	out     io.Writer
}

// NewPolicyAdapter creates a new PolicyAdapter with the given service.
func NewPolicyAdapter(service primary.PolicyService, out io.Writer) *PolicyAdapter {
	return &PolicyAdapter{
		service: service,
		out:     out,
	}
}

// List lists the maker-checker flag of every maker permission code.
func (a *PolicyAdapter) List(ctx context.Context) error {
	policies, err := a.service.ListPolicies(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tRESOURCE\tACTION\tCHECKER")
	fmt.Fprintln(w, "----\t--------\t------\t-------")
	for _, p := range policies {
		checker := "no"
		if p.RequiresChecker {
			checker = color.New(color.FgYellow).Sprint("required")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Code, p.Resource, p.Action, checker)
	}
	return w.Flush()
}

// SetMakerChecker enables or disables checker approval for code.
func (a *PolicyAdapter) SetMakerChecker(ctx context.Context, code string, enabled bool) error {
	if err := a.service.SetMakerChecker(ctx, code, enabled); err != nil {
		return err
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Fprintf(a.out, "%s Maker-checker %s for %s\n", okMark, state, strings.ToUpper(code))
	return nil
}

// Rules lists the permission table.
func (a *PolicyAdapter) Rules(ctx context.Context, resource string) error {
	rules, err := a.service.ListRules(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RESOURCE\tACTION\tPATH\tREQUIRED\tALLOWED")
	for _, r := range rules {
		if resource != "" && r.Resource != strings.ToLower(resource) {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Resource, r.Action, r.Path, r.Required, strings.Join(r.Allowed, ","))
	}
	return w.Flush()
}
