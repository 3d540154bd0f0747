package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/example/mkc/internal/ports/primary"
	"github.com/example/mkc/internal/wire"
)

// CommandCmd returns the command command
func CommandCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "command",
		Short: "Submit and approve commands",
		Long: `Submit create, update and delete commands against entities (maker), and
approve commands that await a checker.`,
	}

	cmd.AddCommand(commandSubmitCmd())
	cmd.AddCommand(commandApproveCmd())
	cmd.AddCommand(commandShowCmd())
	cmd.AddCommand(commandListCmd())

	return cmd
}

func commandSubmitCmd() *cobra.Command {
	var (
		inline string
		file   string
		key    string
	)

	cmd := &cobra.Command{
		Use:   "submit <resource> <create|update|delete> [entity-id]",
		Short: "Submit a command as maker",
		Long: `Submit a command as maker. Updates and deletes name the entity id.

When maker-checker is enabled for the command's permission code the write is
not applied; the command stays pending until a checker approves it.

Examples:
  mkc command submit client create --json '{"firstname":"Ada","lastname":"Lovelace","officeId":1}'
  mkc command submit client update 12 --file changes.jsonc
  mkc command submit client delete 12 --json '{}'`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := primary.SubmitCommandRequest{
				Resource:      args[0],
				Action:        args[1],
				SubmissionKey: key,
			}
			if len(args) == 3 {
				id, err := parseID(args[2])
				if err != nil {
					return err
				}
				req.ResourceID = &id
			}

			if inline == "" && file == "" {
				inline = "{}"
			}
			payload, err := readPayload(inline, file, os.Stdin)
			if err != nil {
				return err
			}
			req.JSON = payload

			_, err = wire.CommandAdapter().Submit(NewContext(), req)
			return err
		},
	}

	cmd.Flags().StringVar(&inline, "json", "", "Command payload as JSON")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the payload from a JSON file (comments allowed, - for stdin)")
	cmd.Flags().StringVar(&key, "key", "", "Submission key; resubmitting the same key is rejected (default: random UUID)")
	return cmd
}

func commandApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <command-id>",
		Short: "Approve a pending command as checker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return wire.CommandAdapter().Approve(NewContext(), id)
		},
	}
}

func commandShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <command-id>",
		Short: "Show command details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			_, err = wire.CommandAdapter().Show(NewContext(), id)
			return err
		},
	}
}

func commandListCmd() *cobra.Command {
	var (
		resource string
		pending  bool
		checked  bool
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List commands, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pending && checked {
				return fmt.Errorf("use either --pending or --checked")
			}
			filters := primary.CommandFilters{Resource: resource, Limit: limit}
			switch {
			case pending:
				filters.Checked = new(bool)
			case checked:
				v := true
				filters.Checked = &v
			}
			return wire.CommandAdapter().List(NewContext(), filters)
		},
	}

	cmd.Flags().StringVarP(&resource, "resource", "r", "", "Only commands on this resource")
	cmd.Flags().BoolVar(&pending, "pending", false, "Only commands awaiting a checker")
	cmd.Flags().BoolVar(&checked, "checked", false, "Only applied commands")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of commands")
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
