package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "run metadata tables",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS etl_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    messages_path TEXT NOT NULL,
    categories_path TEXT NOT NULL,
    table_name TEXT NOT NULL,
    row_count INTEGER DEFAULT 0,
    category_count INTEGER DEFAULT 0,
    duplicates_dropped INTEGER DEFAULT 0,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS training_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    model_path TEXT NOT NULL,
    label_count INTEGER DEFAULT 0,
    train_count INTEGER DEFAULT 0,
    test_count INTEGER DEFAULT 0,
    macro_f1 REAL DEFAULT 0,
    report_markdown TEXT NOT NULL,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_etl_runs_created ON etl_runs(created_at);
CREATE INDEX IF NOT EXISTS idx_training_runs_created ON training_runs(created_at);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
