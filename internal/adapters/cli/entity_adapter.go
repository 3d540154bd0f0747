package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/tidwall/pretty"

	"github.com/example/mkc/internal/ports/primary"
)

// EntityAdapter translates CLI operations to EntityService calls.
type EntityAdapter struct {
	service primary.EntityService
	out     io.Writer
}

// NewEntityAdapter creates a new EntityAdapter with the given service.
func NewEntityAdapter(service primary.EntityService, out io.Writer) *EntityAdapter {
	return &EntityAdapter{
		service: service,
		out:     out,
	}
}

// Show prints the committed document of an entity.
func (a *EntityAdapter) Show(ctx context.Context, resource string, id int64) error {
	e, err := a.service.GetEntity(ctx, resource, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s #%d\n", e.Resource, e.ID)
	a.out.Write(pretty.Pretty([]byte(e.JSON)))
	return nil
}

// History prints the committed writes of an entity, oldest first.
func (a *EntityAdapter) History(ctx context.Context, resource string, id int64) error {
	entries, err := a.service.GetHistory(ctx, resource, id)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(a.out, "No history for %s #%d\n", resource, id)
		return nil
	}

	for _, h := range entries {
		fmt.Fprintf(a.out, "%s  %-6s by %s  (key %s)\n", h.CreatedAt, h.Operation, orDash(h.Operator), orDash(h.SubmissionKey))
		if h.Before != "" {
			fmt.Fprintf(a.out, "  before: %s\n", pretty.Ugly([]byte(h.Before)))
		}
		if h.After != "" {
			fmt.Fprintf(a.out, "  after:  %s\n", pretty.Ugly([]byte(h.After)))
		}
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
