package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/mkc/internal/wire"
)

// PolicyCmd returns the policy command
func PolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect permissions and maker-checker settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List maker permission codes and whether they need a checker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.PolicyAdapter().List(NewContext())
		},
	})
	cmd.AddCommand(policyToggleCmd("enable", "Require checker approval for a maker permission code", true))
	cmd.AddCommand(policyToggleCmd("disable", "Stop requiring checker approval for a maker permission code", false))
	cmd.AddCommand(policyRulesCmd())

	return cmd
}

func policyToggleCmd(use, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:     use + " <code>",
		Short:   short,
		Example: "  mkc policy " + use + " DELETE_CLIENT",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.PolicyAdapter().SetMakerChecker(NewContext(), args[0], enabled)
		},
	}
}

func policyRulesCmd() *cobra.Command {
	var resource string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the permission table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.PolicyAdapter().Rules(NewContext(), resource)
		},
	}

	cmd.Flags().StringVarP(&resource, "resource", "r", "", "Only rules of this resource")
	return cmd
}
