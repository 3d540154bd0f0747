package db

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the version recorded for databases created from SchemaSQL.
const SchemaVersion = 1

// SchemaSQL is the complete schema for mkc databases.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. Repository
// tests load it through GetSchemaSQL() instead of declaring their own tables,
// so a column referenced by repository code but missing here fails with
// "no such column".
//
// Entity documents live in one table per resource, created on demand by the
// document store; they are not part of this schema.
const SchemaSQL = `
-- Application users
CREATE TABLE IF NOT EXISTS app_users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	display_name TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS user_permissions (
	user_id INTEGER NOT NULL,
	permission TEXT NOT NULL,
	granted_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (user_id, permission),
	FOREIGN KEY (user_id) REFERENCES app_users(id) ON DELETE CASCADE
);

-- Command sources (maker-checker audit records)
CREATE TABLE IF NOT EXISTS command_sources (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	resource_name TEXT NOT NULL,
	resource_id INTEGER,
	action TEXT NOT NULL CHECK(action IN ('CREATE', 'UPDATE', 'DELETE')),
	command_json TEXT NOT NULL,
	checked INTEGER NOT NULL DEFAULT 0,
	checked_by INTEGER,
	checked_on TEXT,
	made_by INTEGER NOT NULL,
	made_on TEXT NOT NULL,
	submission_key TEXT NOT NULL UNIQUE,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	CHECK (checked = 0 OR (checked_by IS NOT NULL AND checked_on IS NOT NULL)),
	FOREIGN KEY (made_by) REFERENCES app_users(id),
	FOREIGN KEY (checked_by) REFERENCES app_users(id)
);

CREATE INDEX IF NOT EXISTS idx_command_sources_resource ON command_sources(resource_name, resource_id);
CREATE INDEX IF NOT EXISTS idx_command_sources_checked ON command_sources(checked);

-- Maker-checker settings keyed by maker permission code
CREATE TABLE IF NOT EXISTS maker_checker_settings (
	code TEXT PRIMARY KEY,
	enabled INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Committed writes of entity documents
CREATE TABLE IF NOT EXISTS entity_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	resource TEXT NOT NULL,
	resource_id INTEGER NOT NULL,
	operation TEXT NOT NULL CHECK(operation IN ('create', 'update', 'delete')),
	before_json TEXT,
	after_json TEXT,
	operator TEXT,
	submission_key TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_entity_history_resource ON entity_history(resource, resource_id);

CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY,
	applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// InitSchema creates the schema on conn if it is missing.
func InitSchema(conn *sql.DB) error {
	if _, err := conn.Exec(SchemaSQL); err != nil {
		return err
	}

	var version int
	err := conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return err
	}
	switch {
	case version == 0:
		_, err = conn.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion)
		return err
	case version > SchemaVersion:
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, SchemaVersion)
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
