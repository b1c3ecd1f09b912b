package database

import (
	"database/sql"
	"fmt"

	"vcptools/internal/domain/consts"
)

func initJobHistoryTable(tx *sql.Tx) error {
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		%s TEXT NOT NULL UNIQUE,
		%s TEXT NOT NULL,
		%s TEXT,
		%s TEXT,
		%s TEXT NOT NULL,
		%s INTEGER DEFAULT 0,
		%s INTEGER DEFAULT 0,
		%s TEXT,
		%s TIMESTAMP NOT NULL
	)`,
		consts.DBJobHistory,
		consts.QJobID,
		consts.QPlugin,
		consts.QWorkID,
		consts.QWorkTitle,
		consts.QStatus,
		consts.QSucceeded,
		consts.QFailed,
		consts.QReason,
		consts.QFinishedAt,
	)

	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("failed to create %s table: %w", consts.DBJobHistory, err)
	}
	return nil
}
