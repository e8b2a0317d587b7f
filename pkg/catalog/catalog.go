// Package catalog records documents, references, and fetch outcomes in a
// SQLite database so past runs can be inspected without re-reading logs.
package catalog

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const DefaultDBName = "imagesync.db"

type Catalog struct {
	*sql.DB
	path string
}

// openDB opens a SQLite database at the given path
func openDB(dbPath string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = sqlDB.Close() // Close error less important than PRAGMA error
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return sqlDB, nil
}

// Open opens or creates the catalog database at path
func Open(path string) (*Catalog, error) {
	sqlDB, err := openDB(path)
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		DB:   sqlDB,
		path: path,
	}

	// Auto-initialize schema if it doesn't exist
	if err := c.ensureSchemaExists(); err != nil {
		_ = c.Close() // Close error less important than schema error
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return c, nil
}

// ensureSchemaExists checks if the schema exists and initializes it if not
func (c *Catalog) ensureSchemaExists() error {
	// Check if the documents table exists (simple schema check)
	var tableName string
	err := c.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='documents'").Scan(&tableName)

	if err == sql.ErrNoRows {
		// Schema doesn't exist, initialize it
		return c.InitSchema()
	}

	if err != nil {
		return fmt.Errorf("failed to check schema: %w", err)
	}

	return nil
}

// Path returns the database file path
func (c *Catalog) Path() string {
	return c.path
}

// InitSchema initializes the database schema
func (c *Catalog) InitSchema() error {
	_, err := c.Exec(schema)
	return err
}
