package classify

import (
	"fmt"
	"strings"
)

// SchemaMismatchError reports a label schema that differs in size or order
// from the one a model was trained with.
type SchemaMismatchError struct {
	Want []string
	Got  []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("label schema mismatch: model was trained with [%s], got [%s]",
		strings.Join(e.Want, ", "), strings.Join(e.Got, ", "))
}
