package classify

import (
	"github.com/crisislab/responder/internal/textproc"
)

// MultiLabel fits one independent binary classifier per category label.
// Labels are treated as conditionally independent given the features; this
// is a deliberate simplification, not a joint model.
type MultiLabel struct {
	Schema []string
	Models []*Logistic
}

// FitMultiLabel trains a classifier per label. labels holds one row per
// training vector, each aligned to schema order.
func FitMultiLabel(xs []textproc.Vector, labels [][]int, schema []string, params Hyperparams) *MultiLabel {
	m := &MultiLabel{
		Schema: append([]string(nil), schema...),
		Models: make([]*Logistic, len(schema)),
	}

	ys := make([]int, len(xs))
	for col := range schema {
		for row := range xs {
			ys[row] = labels[row][col]
		}
		// Offset the seed per label so the per-label epoch shuffles differ
		// while staying deterministic.
		p := params
		p.Seed = params.Seed + int64(col)
		clf := NewLogistic(p)
		clf.Fit(xs, ys)
		m.Models[col] = clf
	}
	return m
}

// Predict returns a binary vector aligned to the label schema.
func (m *MultiLabel) Predict(x textproc.Vector) []int {
	out := make([]int, len(m.Models))
	for i, clf := range m.Models {
		out[i] = clf.Predict(x)
	}
	return out
}

// RequireSchema verifies that a label schema matches the one the model was
// trained with, in both size and order.
func (m *MultiLabel) RequireSchema(schema []string) error {
	if len(schema) != len(m.Schema) {
		return &SchemaMismatchError{Want: m.Schema, Got: schema}
	}
	for i := range schema {
		if schema[i] != m.Schema[i] {
			return &SchemaMismatchError{Want: m.Schema, Got: schema}
		}
	}
	return nil
}
