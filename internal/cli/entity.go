package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/mkc/internal/wire"
)

// EntityCmd returns the entity command
func EntityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entity",
		Short: "Read committed entities",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <resource> <id>",
		Short: "Show the committed document of an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			return wire.EntityAdapter().Show(NewContext(), args[0], id)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "history <resource> <id>",
		Short: "Show the committed writes of an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			return wire.EntityAdapter().History(NewContext(), args[0], id)
		},
	})

	return cmd
}

