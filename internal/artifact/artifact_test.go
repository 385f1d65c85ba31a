package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/crisislab/responder/internal/classify"
	"github.com/crisislab/responder/internal/textproc"
)

// trainedBundle fits a tiny two-label model good enough to exercise the
// full save/load/classify path.
func trainedBundle(t *testing.T) *Bundle {
	t.Helper()

	docs := []string{
		"we need water to drink",
		"send drinking water please",
		"people are thirsty send water",
		"we are hungry send food",
		"children need food to eat",
		"no food left people starving",
	}
	labels := [][]int{
		{1, 0}, {1, 0}, {1, 0},
		{0, 1}, {0, 1}, {0, 1},
	}

	vec := textproc.NewVectorizer(1)
	vec.Fit(docs)
	model := classify.FitMultiLabel(vec.TransformAll(docs), labels, []string{"water", "food"},
		classify.Hyperparams{Epochs: 40, LearningRate: 0.5, Seed: 123})
	return &Bundle{Vectorizer: vec, Model: model}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.bin")
	bundle := trainedBundle(t)

	if err := Save(path, bundle); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if !reflect.DeepEqual(loaded.Schema(), []string{"water", "food"}) {
		t.Errorf("schema = %v", loaded.Schema())
	}

	msg := "thirsty people need water"
	before := bundle.Classify(msg)
	after := loaded.Classify(msg)
	if !reflect.DeepEqual(before, after) {
		t.Errorf("predictions changed across save/load: %v vs %v", before, after)
	}
	if !before[0].Positive {
		t.Errorf("expected water positive for %q, got %v", msg, before)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	bundle := trainedBundle(t)
	msg := "send food we are starving"

	first := bundle.Classify(msg)
	for i := 0; i < 5; i++ {
		if got := bundle.Classify(msg); !reflect.DeepEqual(got, first) {
			t.Fatalf("prediction changed between calls: %v vs %v", first, got)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.bin"))
	var aerr *Error
	if !errors.As(err, &aerr) {
		t.Fatalf("expected artifact error, got %v", err)
	}
}

func TestLoadTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.bin")
	if err := Save(path, trainedBundle(t)); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// Simulate a crash mid-write: cut the file roughly in half.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data[:len(data)/2], 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = Load(path)
	var aerr *Error
	if !errors.As(err, &aerr) {
		t.Fatalf("expected artifact error for truncated file, got %v", err)
	}
}

func TestLoadWrongMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.bin")
	if err := os.WriteFile(path, []byte("definitely not a model file, but long enough"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	var aerr *Error
	if !errors.As(err, &aerr) {
		t.Fatalf("expected artifact error for wrong magic, got %v", err)
	}
}

func TestSaveRejectsIncompleteBundle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.bin")

	err := Save(path, &Bundle{Vectorizer: textproc.NewVectorizer(1)})
	var aerr *Error
	if !errors.As(err, &aerr) {
		t.Fatalf("expected artifact error for unfitted bundle, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("rejected save should not leave a file behind")
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.bin")
	if err := Save(path, trainedBundle(t)); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "model.bin" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only model.bin, found %v", names)
	}
}
