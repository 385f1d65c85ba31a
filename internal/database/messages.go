package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// fixedColumns are the non-category columns of the cleaned message table,
// in schema order. Everything after them is a binary category column.
var fixedColumns = []string{"id", "message", "original", "genre"}

// ReplaceMessageTable writes a cleaned dataset into the named table,
// replacing any previous contents. The drop, create, and inserts run in a
// single transaction so readers never observe a partial table.
func (db *DB) ReplaceMessageTable(table string, ds *Dataset) error {
	if !ValidIdent(table) {
		return fmt.Errorf("invalid table name: %q", table)
	}
	for _, c := range ds.Categories {
		if !ValidIdent(c) {
			return fmt.Errorf("invalid category column name: %q", c)
		}
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin replace of %s: %w", table, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DROP TABLE IF EXISTS " + quoteIdent(table)); err != nil {
		return fmt.Errorf("dropping %s: %w", table, err)
	}

	var ddl strings.Builder
	ddl.WriteString("CREATE TABLE " + quoteIdent(table) + " (\n")
	ddl.WriteString("    id INTEGER PRIMARY KEY,\n")
	ddl.WriteString("    message TEXT NOT NULL,\n")
	ddl.WriteString("    original TEXT,\n")
	ddl.WriteString("    genre TEXT NOT NULL")
	for _, c := range ds.Categories {
		ddl.WriteString(",\n    " + quoteIdent(c) + " INTEGER NOT NULL DEFAULT 0")
	}
	ddl.WriteString("\n)")
	if _, err := tx.Exec(ddl.String()); err != nil {
		return fmt.Errorf("creating %s: %w", table, err)
	}

	cols := make([]string, 0, len(fixedColumns)+len(ds.Categories))
	for _, c := range fixedColumns {
		cols = append(cols, quoteIdent(c))
	}
	for _, c := range ds.Categories {
		cols = append(cols, quoteIdent(c))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt, err := tx.Prepare(fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(cols, ", "), placeholders,
	))
	if err != nil {
		return fmt.Errorf("preparing insert for %s: %w", table, err)
	}
	defer stmt.Close()

	for _, rec := range ds.Records {
		args := make([]any, 0, len(cols))
		args = append(args, rec.ID, rec.Message, rec.Original, rec.Genre)
		for _, v := range rec.Labels {
			args = append(args, v)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("inserting message %d: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing replace of %s: %w", table, err)
	}
	return nil
}

// MessageTableCategories returns the category column names of the cleaned
// table in schema order, derived from the table itself.
func (db *DB) MessageTableCategories(table string) ([]string, error) {
	if !ValidIdent(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}
	rows, err := db.conn.Query("PRAGMA table_info(" + quoteIdent(table) + ")")
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	defer rows.Close()

	var all []string
	for rows.Next() {
		var (
			cid, notnull, pk int
			name, ctype      string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scanning column info: %w", err)
		}
		all = append(all, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(all) < len(fixedColumns) {
		return nil, fmt.Errorf("table %s not found or missing message columns", table)
	}
	return all[len(fixedColumns):], nil
}

// ReadMessageTable loads the full cleaned table back into memory, with
// category columns in schema order.
func (db *DB) ReadMessageTable(table string) (*Dataset, error) {
	categories, err := db.MessageTableCategories(table)
	if err != nil {
		return nil, err
	}

	cols := make([]string, 0, len(fixedColumns)+len(categories))
	for _, c := range fixedColumns {
		cols = append(cols, quoteIdent(c))
	}
	for _, c := range categories {
		cols = append(cols, quoteIdent(c))
	}
	rows, err := db.conn.Query(fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY id",
		strings.Join(cols, ", "), quoteIdent(table),
	))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", table, err)
	}
	defer rows.Close()

	ds := &Dataset{Categories: categories}
	for rows.Next() {
		rec := Record{Labels: make([]int, len(categories))}
		dest := make([]any, 0, len(cols))
		dest = append(dest, &rec.ID, &rec.Message, &rec.Original, &rec.Genre)
		for i := range rec.Labels {
			dest = append(dest, &rec.Labels[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		ds.Records = append(ds.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ds, nil
}

// CountMessages returns the number of rows in the cleaned table, or 0 if
// the table does not exist yet.
func (db *DB) CountMessages(table string) (int, error) {
	if !ValidIdent(table) {
		return 0, fmt.Errorf("invalid table name: %q", table)
	}
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM " + quoteIdent(table)).Scan(&count)
	if err != nil {
		if isMissingTable(err) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

// GenreCounts returns message counts grouped by source genre, descending.
func (db *DB) GenreCounts(table string) ([]GenreCount, error) {
	if !ValidIdent(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}
	rows, err := db.conn.Query(
		"SELECT genre, COUNT(*) FROM " + quoteIdent(table) +
			" GROUP BY genre ORDER BY COUNT(*) DESC",
	)
	if err != nil {
		if isMissingTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("counting genres: %w", err)
	}
	defer rows.Close()

	var counts []GenreCount
	for rows.Next() {
		var gc GenreCount
		if err := rows.Scan(&gc.Genre, &gc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, gc)
	}
	return counts, rows.Err()
}

// CategoryCounts returns the number of positive examples per category, in
// schema order.
func (db *DB) CategoryCounts(table string) ([]CategoryCount, error) {
	categories, err := db.MessageTableCategories(table)
	if err != nil {
		return nil, err
	}

	counts := make([]CategoryCount, 0, len(categories))
	for _, c := range categories {
		var n int
		err := db.conn.QueryRow(
			"SELECT COALESCE(SUM(" + quoteIdent(c) + "), 0) FROM " + quoteIdent(table),
		).Scan(&n)
		if err != nil {
			return nil, fmt.Errorf("counting category %s: %w", c, err)
		}
		counts = append(counts, CategoryCount{Category: c, Count: n})
	}
	return counts, nil
}

func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
