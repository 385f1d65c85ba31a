package etl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadMessages(t *testing.T) {
	path := writeFile(t, "messages.csv",
		"id,message,original,genre\n"+
			"1,need water,Nou bezwen dlo,direct\n"+
			"2,storm coming,,news\n")

	messages, err := LoadMessages(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].ID != 1 || messages[0].Message != "need water" || messages[0].Genre != "direct" {
		t.Errorf("unexpected first message: %+v", messages[0])
	}
	if messages[0].Original == nil || *messages[0].Original != "Nou bezwen dlo" {
		t.Errorf("expected original text preserved, got %v", messages[0].Original)
	}
	if messages[1].Original != nil {
		t.Errorf("expected nil original for empty field, got %q", *messages[1].Original)
	}
}

func TestLoadMessagesColumnOrderIndependent(t *testing.T) {
	path := writeFile(t, "messages.csv",
		"genre,id,message,original\n"+
			"direct,7,help us,\n")

	messages, err := LoadMessages(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if messages[0].ID != 7 || messages[0].Message != "help us" || messages[0].Genre != "direct" {
		t.Errorf("columns not resolved by header name: %+v", messages[0])
	}
}

func TestLoadMessagesMissingColumn(t *testing.T) {
	path := writeFile(t, "messages.csv", "id,text\n1,hello\n")

	_, err := LoadMessages(path)
	var ife *InputFormatError
	if !errors.As(err, &ife) {
		t.Fatalf("expected InputFormatError, got %v", err)
	}
}

func TestLoadMessagesNonIntegerID(t *testing.T) {
	path := writeFile(t, "messages.csv",
		"id,message,original,genre\nabc,need water,,direct\n")

	_, err := LoadMessages(path)
	var ife *InputFormatError
	if !errors.As(err, &ife) {
		t.Fatalf("expected InputFormatError, got %v", err)
	}
}

func TestLoadCategories(t *testing.T) {
	path := writeFile(t, "categories.csv",
		"id,categories\n1,water-1;food-0\n")

	categories, err := LoadCategories(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(categories) != 1 {
		t.Fatalf("expected 1 category row, got %d", len(categories))
	}
	if categories[0].ID != 1 || categories[0].Packed != "water-1;food-0" {
		t.Errorf("unexpected category row: %+v", categories[0])
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := LoadMessages(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("expected error for missing messages file")
	}
	if _, err := LoadCategories(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("expected error for missing categories file")
	}
}
