package etl

import (
	"fmt"

	"github.com/crisislab/responder/internal/database"
)

// StoreWriter persists cleaned datasets into the relational store. It owns
// the cleaned table's lifecycle: each write replaces the table wholesale.
type StoreWriter struct {
	db    *database.DB
	table string
}

// NewStoreWriter creates a store writer targeting the named table.
func NewStoreWriter(db *database.DB, table string) *StoreWriter {
	return &StoreWriter{db: db, table: table}
}

// Write replaces the cleaned table with the dataset. The replace is atomic
// from a reader's perspective and idempotent: writing the same dataset
// twice leaves identical contents.
func (w *StoreWriter) Write(ds *database.Dataset) error {
	if err := w.db.ReplaceMessageTable(w.table, ds); err != nil {
		return &StorageError{
			Dest: fmt.Sprintf("%s (table %s)", w.db.Path(), w.table),
			Err:  err,
		}
	}
	return nil
}
