// Package database sets up/opens the program database.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"vcptools/internal/utils/logging"

	_ "github.com/mattn/go-sqlite3"
)

const dbDriver = "sqlite3"

// Database wraps the opened sql.DB.
type Database struct {
	DB *sql.DB
}

// InitDB opens (or creates) the history database and ensures its
// tables exist.
func InitDB(path string) (*Database, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory for %q: %w", path, err)
	}

	d := new(Database)
	var err error
	d.DB, err = sql.Open(dbDriver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at path %q: %w", path, err)
	}

	if _, err = d.DB.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := d.initTables(); err != nil {
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}
	return d, nil
}

// Close closes the underlying handle.
func (d *Database) Close() {
	if err := d.DB.Close(); err != nil {
		logging.E("Failed to close database: %v", err)
	}
}

func (d *Database) initTables() error {
	tx, err := d.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.E("Transaction rollback failed: %v", rbErr)
			}
		}
	}()

	if err = initJobHistoryTable(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit table setup: %w", err)
	}
	return nil
}
