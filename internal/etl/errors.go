package etl

import "fmt"

// InputFormatError describes malformed input data: a bad CSV, a category
// token that is not 0/1, or category schema drift between rows.
type InputFormatError struct {
	Path string
	Row  int // 1-based data row, 0 when not row-specific
	Msg  string
}

func (e *InputFormatError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s: row %d: %s", e.Path, e.Row, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// StorageError describes a destination that could not be written.
type StorageError struct {
	Dest string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Dest, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
