package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/mkc/internal/db"
	"github.com/example/mkc/internal/wire"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the mkc database",
		Long: `Initialize the mkc database at $MKC_DB_PATH (default ~/.mkc/mkc.db) with
the required schema, and enable checker approval for the maker permission
codes listed under maker_checker in the policy file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := wire.Env()
			fmt.Printf("Initializing mkc database at %s\n", env.DBPath)

			// Schema is applied when the connection opens
			database := wire.Database()
			fmt.Println("✓ Database initialized successfully")

			ctx := NewContext()
			for _, code := range wire.Policy().MakerChecker {
				if err := wire.PolicyService().SetMakerChecker(ctx, code, true); err != nil {
					return fmt.Errorf("failed to enable maker-checker for %s: %w", code, err)
				}
				fmt.Printf("✓ Maker-checker enabled for %s\n", code)
			}

			if seed {
				if err := db.SeedFixtures(database); err != nil {
					return fmt.Errorf("failed to seed fixtures: %w", err)
				}
				fmt.Println("✓ Seeded users admin, maker and checker")
			}

			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  mkc user add jane --grant CREATE_CLIENT")
			fmt.Println("  mkc login jane")
			fmt.Println(`  mkc command submit client create --json '{"firstname":"Ada","lastname":"Lovelace","officeId":1}'`)

			return nil
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "Create development users admin, maker and checker")
	return cmd
}
