// Package artifact persists and restores the trained model bundle: the
// fitted TF-IDF vectorizer, the per-label classifiers, and the label
// schema. Bundles are written atomically and loaded strictly; a truncated
// or tampered file never yields a partially usable model.
package artifact

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/crisislab/responder/internal/classify"
	"github.com/crisislab/responder/internal/textproc"
)

// magic identifies a responder model file; the trailing byte is the format
// version.
var magic = []byte("responder-model\x00\x01")

// Bundle is the immutable trained artifact: everything needed to classify
// a message.
type Bundle struct {
	Vectorizer *textproc.Vectorizer
	Model      *classify.MultiLabel
}

// LabelResult pairs a category name with its predicted value.
type LabelResult struct {
	Category string `json:"category"`
	Positive bool   `json:"positive"`
}

// Classify runs the full text pipeline on one message and returns one
// result per category in schema order.
func (b *Bundle) Classify(message string) []LabelResult {
	vec := b.Vectorizer.Transform(message)
	predicted := b.Model.Predict(vec)

	results := make([]LabelResult, len(predicted))
	for i, v := range predicted {
		results[i] = LabelResult{Category: b.Model.Schema[i], Positive: v == 1}
	}
	return results
}

// Schema returns the label schema the bundle was trained with.
func (b *Bundle) Schema() []string {
	return b.Model.Schema
}

// Error reports a bundle that is missing, corrupt, or structurally
// incomplete.
type Error struct {
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model artifact %s: %s: %v", e.Path, e.Msg, e.Err)
	}
	return fmt.Sprintf("model artifact %s: %s", e.Path, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Save writes the bundle to path using the temp-file-then-rename pattern,
// so a crash mid-write never leaves a corrupt artifact visible to readers.
func Save(path string, b *Bundle) error {
	if err := validate(path, b); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating model directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp artifact: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(magic); err != nil {
		return fmt.Errorf("writing artifact header: %w", err)
	}
	if err := gob.NewEncoder(tmp).Encode(b); err != nil {
		return fmt.Errorf("encoding artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing artifact: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publishing artifact: %w", err)
	}
	return nil
}

// Load reads and validates a bundle. Every failure mode is an *Error.
func Load(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Path: path, Msg: "cannot open", Err: err}
	}
	defer f.Close()

	header := make([]byte, len(magic))
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, &Error{Path: path, Msg: "truncated header", Err: err}
	}
	if !bytes.Equal(header, magic) {
		return nil, &Error{Path: path, Msg: "not a responder model file or unsupported version"}
	}

	var b Bundle
	if err := gob.NewDecoder(f).Decode(&b); err != nil {
		return nil, &Error{Path: path, Msg: "corrupt model data", Err: err}
	}

	if err := validate(path, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// validate rejects structurally incomplete bundles on both save and load.
func validate(path string, b *Bundle) error {
	switch {
	case b.Vectorizer == nil || !b.Vectorizer.Fitted():
		return &Error{Path: path, Msg: "missing fitted vectorizer state"}
	case b.Model == nil || len(b.Model.Schema) == 0:
		return &Error{Path: path, Msg: "missing label schema"}
	case len(b.Model.Models) != len(b.Model.Schema):
		return &Error{Path: path, Msg: "classifier count does not match label schema"}
	}
	return nil
}
