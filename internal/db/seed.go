package db

import (
	"database/sql"
	"fmt"
)

// SeedFixtures populates the database with development users: an
// administrator holding ALL_FUNCTIONS, a portfolio maker and a portfolio
// checker. Existing users are left untouched.
func SeedFixtures(database *sql.DB) error {
	users := []struct {
		username, name string
		permissions    []string
	}{
		{"admin", "Administrator", []string{"ALL_FUNCTIONS"}},
		{"maker", "Portfolio Maker", []string{"CREATE_CLIENT", "UPDATE_CLIENT", "DELETE_CLIENT", "CREATE_CLIENTIDENTIFIER"}},
		{"checker", "Portfolio Checker", []string{"CREATE_CLIENT_CHECKER", "UPDATE_CLIENT_CHECKER", "DELETE_CLIENT_CHECKER"}},
	}
	for _, u := range users {
		if _, err := database.Exec(
			"INSERT OR IGNORE INTO app_users (username, display_name) VALUES (?, ?)",
			u.username, u.name,
		); err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		for _, p := range u.permissions {
			if _, err := database.Exec(
				`INSERT OR IGNORE INTO user_permissions (user_id, permission)
				 SELECT id, ? FROM app_users WHERE username = ?`,
				p, u.username,
			); err != nil {
				return fmt.Errorf("seed permissions: %w", err)
			}
		}
	}

	// Client deletes need a checker by default.
	if _, err := database.Exec(
		"INSERT OR IGNORE INTO maker_checker_settings (code, enabled) VALUES ('DELETE_CLIENT', 1)",
	); err != nil {
		return fmt.Errorf("seed maker-checker settings: %w", err)
	}
	return nil
}
