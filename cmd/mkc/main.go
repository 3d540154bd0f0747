package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/mkc/internal/cli"
	"github.com/example/mkc/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "mkc",
		Short:   "mkc - maker-checker command processing",
		Version: version.String(),
		Long: `mkc records every create, update and delete of an entity as a command.
Commands submitted by a maker are applied at once, or held for a checker when
maker-checker is enabled for their permission code.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return
			}
			cli.DetectAndStoreActor()
		},
	}

	// Add subcommands
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.VersionCmd())

	// Identity
	rootCmd.AddCommand(cli.UserCmd())
	rootCmd.AddCommand(cli.LoginCmd())
	rootCmd.AddCommand(cli.LogoutCmd())
	rootCmd.AddCommand(cli.WhoamiCmd())

	// Commands and entities
	rootCmd.AddCommand(cli.CommandCmd())
	rootCmd.AddCommand(cli.EntityCmd())
	rootCmd.AddCommand(cli.PolicyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
