package database

import "database/sql"

// InsertETLRun records a completed ETL invocation.
func (db *DB) InsertETLRun(run ETLRun) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO etl_runs (messages_path, categories_path, table_name, row_count, category_count, duplicates_dropped)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.MessagesPath, run.CategoriesPath, run.TableName,
		run.RowCount, run.CategoryCount, run.DuplicatesDropped,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// InsertTrainingRun records a completed training run and its report.
func (db *DB) InsertTrainingRun(run TrainingRun) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO training_runs (model_path, label_count, train_count, test_count, macro_f1, report_markdown)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ModelPath, run.LabelCount, run.TrainCount, run.TestCount,
		run.MacroF1, run.ReportMarkdown,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetLatestTrainingRun returns the most recent training run, or nil if no
// training has happened yet.
func (db *DB) GetLatestTrainingRun() (*TrainingRun, error) {
	row := db.conn.QueryRow(
		`SELECT id, model_path, label_count, train_count, test_count, macro_f1, report_markdown, created_at
		FROM training_runs ORDER BY id DESC LIMIT 1`,
	)
	var run TrainingRun
	err := row.Scan(&run.ID, &run.ModelPath, &run.LabelCount, &run.TrainCount,
		&run.TestCount, &run.MacroF1, &run.ReportMarkdown, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetStats returns aggregate statistics for the status command.
func (db *DB) GetStats(table string) (*Stats, error) {
	stats := &Stats{}

	var err error
	stats.Messages, err = db.CountMessages(table)
	if err != nil {
		return nil, err
	}

	if categories, err := db.MessageTableCategories(table); err == nil {
		stats.Categories = len(categories)
	}

	if err := db.conn.QueryRow("SELECT COUNT(*) FROM etl_runs").Scan(&stats.ETLRuns); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM training_runs").Scan(&stats.TrainingRuns); err != nil {
		return nil, err
	}

	var last sql.NullString
	db.conn.QueryRow("SELECT MAX(created_at) FROM etl_runs").Scan(&last)
	stats.LastETL = last.String
	last = sql.NullString{}
	db.conn.QueryRow("SELECT MAX(created_at) FROM training_runs").Scan(&last)
	stats.LastTraining = last.String

	return stats, nil
}
