package etl

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// RawMessage is one row of the messages CSV before cleaning.
type RawMessage struct {
	ID       int64
	Message  string
	Original *string
	Genre    string
}

// RawCategory is one row of the categories CSV: a message id and the packed
// "name-value;name-value;..." category string.
type RawCategory struct {
	ID     int64
	Packed string
}

// LoadMessages reads the messages CSV. The header must contain id, message,
// original, and genre columns; extra columns are ignored.
func LoadMessages(path string) ([]RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening messages file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, &InputFormatError{Path: path, Msg: "missing CSV header"}
	}
	idx, err := columnIndex(path, header, "id", "message", "original", "genre")
	if err != nil {
		return nil, err
	}

	var messages []RawMessage
	row := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, &InputFormatError{Path: path, Row: row, Msg: err.Error()}
		}

		id, err := strconv.ParseInt(field(record, idx["id"]), 10, 64)
		if err != nil {
			return nil, &InputFormatError{Path: path, Row: row, Msg: fmt.Sprintf("non-integer id %q", field(record, idx["id"]))}
		}

		msg := RawMessage{
			ID:      id,
			Message: field(record, idx["message"]),
			Genre:   field(record, idx["genre"]),
		}
		if orig := field(record, idx["original"]); orig != "" {
			msg.Original = &orig
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// LoadCategories reads the categories CSV. The header must contain id and
// categories columns.
func LoadCategories(path string) ([]RawCategory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening categories file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, &InputFormatError{Path: path, Msg: "missing CSV header"}
	}
	idx, err := columnIndex(path, header, "id", "categories")
	if err != nil {
		return nil, err
	}

	var categories []RawCategory
	row := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, &InputFormatError{Path: path, Row: row, Msg: err.Error()}
		}

		id, err := strconv.ParseInt(field(record, idx["id"]), 10, 64)
		if err != nil {
			return nil, &InputFormatError{Path: path, Row: row, Msg: fmt.Sprintf("non-integer id %q", field(record, idx["id"]))}
		}
		categories = append(categories, RawCategory{ID: id, Packed: field(record, idx["categories"])})
	}
	return categories, nil
}

// columnIndex maps required column names to their positions in the header.
func columnIndex(path string, header []string, required ...string) (map[string]int, error) {
	idx := make(map[string]int, len(required))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, &InputFormatError{Path: path, Msg: fmt.Sprintf("missing required column %q", name)}
		}
	}
	return idx, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
