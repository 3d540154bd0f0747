package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/mkc/internal/config"
	"github.com/example/mkc/internal/wire"
)

// UserCmd returns the user command
func UserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users and their permissions",
	}

	cmd.AddCommand(userAddCmd())
	cmd.AddCommand(userGrantCmd())
	cmd.AddCommand(userRevokeCmd())
	cmd.AddCommand(userListCmd())

	return cmd
}

func userAddCmd() *cobra.Command {
	var (
		name  string
		grant []string
	)

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Add a user",
		Example: `  mkc user add jane --name "Jane Doe" --grant CREATE_CLIENT,UPDATE_CLIENT
  mkc user add boss --grant ALL_FUNCTIONS`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.UserAdapter().Add(NewContext(), args[0], name, grant)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringSliceVar(&grant, "grant", nil, "Permissions to grant")
	return cmd
}

func userGrantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grant <username> <permission>...",
		Short: "Grant permissions to a user",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.UserAdapter().Grant(NewContext(), args[0], args[1:])
		},
	}
}

func userRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <username> <permission>...",
		Short: "Revoke permissions from a user",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.UserAdapter().Revoke(NewContext(), args[0], args[1:])
		},
	}
}

func userListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.UserAdapter().List(NewContext())
		},
	}
}

// LoginCmd returns the login command
func LoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <username>",
		Short: "Start a session as a user",
		Long: `Start a session as a user. The session token is stored in
$MKC_HOME/config.json and identifies the maker or checker of later commands.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := wire.UserAdapter().Login(NewContext(), args[0])
			if err != nil {
				return err
			}
			return config.SaveConfig(wire.Env().Home, &config.Config{
				Username:  resp.User.Username,
				Token:     resp.Token,
				ExpiresAt: resp.ExpiresAt,
			})
		},
	}
}

// LogoutCmd returns the logout command
func LogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ClearSession(wire.Env().Home); err != nil {
				return err
			}
			fmt.Println("✓ Logged out")
			return nil
		},
	}
}

// WhoamiCmd returns the whoami command
func WhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user and their permissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := config.LoadConfig(wire.Env().Home)
			if err != nil {
				return err
			}
			return wire.UserAdapter().Whoami(NewContext(), session.Token)
		},
	}
}
