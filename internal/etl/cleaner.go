package etl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/crisislab/responder/internal/database"
)

// Options controls cleaning behavior.
type Options struct {
	// ClampValues maps category values greater than 1 down to 1 instead of
	// rejecting the row.
	ClampValues bool
	// DropEmptyCategories removes category columns with no positive examples.
	DropEmptyCategories bool
}

// CleanResult is the output of a cleaning run.
type CleanResult struct {
	Dataset           *database.Dataset
	DuplicatesDropped int
	DroppedCategories []string
}

// Clean inner-joins messages with categories on id, expands the packed
// category string into binary label columns, and drops exact-duplicate
// records keeping the first occurrence. It is a pure transform.
func Clean(messages []RawMessage, categories []RawCategory, opts Options) (*CleanResult, error) {
	packed := make(map[int64]string, len(categories))
	for _, c := range categories {
		if _, dup := packed[c.ID]; dup {
			return nil, &InputFormatError{
				Path: "categories",
				Msg:  fmt.Sprintf("duplicate category record for id %d", c.ID),
			}
		}
		packed[c.ID] = c.Packed
	}

	var schema []string
	ds := &database.Dataset{}
	seen := make(map[string]struct{})
	duplicates := 0

	for _, msg := range messages {
		p, ok := packed[msg.ID]
		if !ok {
			// Inner join: messages without a category record are dropped.
			continue
		}

		names, values, err := splitPacked(p, opts.ClampValues)
		if err != nil {
			return nil, &InputFormatError{
				Path: "categories",
				Msg:  fmt.Sprintf("id %d: %v", msg.ID, err),
			}
		}

		if schema == nil {
			for _, name := range names {
				if !database.ValidIdent(name) {
					return nil, &InputFormatError{
						Path: "categories",
						Msg:  fmt.Sprintf("category name %q is not a valid column name", name),
					}
				}
			}
			schema = names
			ds.Categories = schema
		} else if !sameSchema(schema, names) {
			return nil, &InputFormatError{
				Path: "categories",
				Msg:  fmt.Sprintf("id %d: category names differ from first record", msg.ID),
			}
		}

		rec := database.Record{
			ID:       msg.ID,
			Message:  msg.Message,
			Original: msg.Original,
			Genre:    msg.Genre,
			Labels:   values,
		}

		key := recordKey(rec)
		if _, dup := seen[key]; dup {
			duplicates++
			continue
		}
		seen[key] = struct{}{}
		ds.Records = append(ds.Records, rec)
	}

	result := &CleanResult{Dataset: ds, DuplicatesDropped: duplicates}
	if opts.DropEmptyCategories {
		result.DroppedCategories = dropEmptyCategories(ds)
	}
	return result, nil
}

// splitPacked parses a ";"-separated list of "name-value" tokens into
// parallel name and value slices.
func splitPacked(packed string, clamp bool) (names []string, values []int, err error) {
	if strings.TrimSpace(packed) == "" {
		return nil, nil, fmt.Errorf("empty category string")
	}
	for _, token := range strings.Split(packed, ";") {
		token = strings.TrimSpace(token)
		// Category names may themselves contain dashes, so the value is
		// whatever follows the last one.
		sep := strings.LastIndex(token, "-")
		if sep <= 0 || sep == len(token)-1 {
			return nil, nil, fmt.Errorf("malformed category token %q", token)
		}
		name := normalizeCategoryName(token[:sep])
		value, convErr := strconv.Atoi(token[sep+1:])
		if convErr != nil {
			return nil, nil, fmt.Errorf("non-numeric value in category token %q", token)
		}
		switch {
		case value == 0 || value == 1:
		case value > 1 && clamp:
			value = 1
		default:
			return nil, nil, fmt.Errorf("category value out of range in token %q", token)
		}
		names = append(names, name)
		values = append(values, value)
	}
	return names, values, nil
}

// normalizeCategoryName lowercases a category name and maps separator
// characters to underscores so it can double as a column name.
func normalizeCategoryName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
}

func sameSchema(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// recordKey builds a full-row equality key for duplicate detection.
func recordKey(rec database.Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d\x00%s\x00", rec.ID, rec.Message)
	if rec.Original != nil {
		sb.WriteString(*rec.Original)
	}
	sb.WriteString("\x00" + rec.Genre)
	for _, v := range rec.Labels {
		fmt.Fprintf(&sb, "\x00%d", v)
	}
	return sb.String()
}

// dropEmptyCategories removes category columns with no positive examples
// and returns the dropped names.
func dropEmptyCategories(ds *database.Dataset) []string {
	keep := make([]bool, len(ds.Categories))
	for _, rec := range ds.Records {
		for i, v := range rec.Labels {
			if v == 1 {
				keep[i] = true
			}
		}
	}

	var dropped []string
	anyDropped := false
	for i, k := range keep {
		if !k {
			dropped = append(dropped, ds.Categories[i])
			anyDropped = true
		}
	}
	if !anyDropped {
		return nil
	}

	var categories []string
	for i, k := range keep {
		if k {
			categories = append(categories, ds.Categories[i])
		}
	}
	for r := range ds.Records {
		labels := make([]int, 0, len(categories))
		for i, k := range keep {
			if k {
				labels = append(labels, ds.Records[r].Labels[i])
			}
		}
		ds.Records[r].Labels = labels
	}
	ds.Categories = categories
	return dropped
}
