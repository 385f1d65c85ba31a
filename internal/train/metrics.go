package train

import (
	"fmt"
	"strings"

	"github.com/crisislab/responder/internal/classify"
	"github.com/crisislab/responder/internal/textproc"
)

// LabelMetrics holds the evaluation numbers for one category label.
type LabelMetrics struct {
	Category  string
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report is the evaluation result over the held-out split.
type Report struct {
	Labels         []LabelMetrics
	MacroPrecision float64
	MacroRecall    float64
	MacroF1        float64
	TestCount      int
}

// Evaluate predicts the held-out messages and computes per-label precision,
// recall, and F1. The dataset's label schema must match the model's.
func Evaluate(model *classify.MultiLabel, vec *textproc.Vectorizer, texts []string, labels [][]int, schema []string) (*Report, error) {
	if err := model.RequireSchema(schema); err != nil {
		return nil, err
	}

	predicted := make([][]int, len(texts))
	for i, text := range texts {
		predicted[i] = model.Predict(vec.Transform(text))
	}

	report := &Report{TestCount: len(texts)}
	for col, category := range schema {
		var tp, fp, fn, support int
		for row := range texts {
			truth := labels[row][col]
			pred := predicted[row][col]
			support += truth
			switch {
			case pred == 1 && truth == 1:
				tp++
			case pred == 1 && truth == 0:
				fp++
			case pred == 0 && truth == 1:
				fn++
			}
		}

		m := LabelMetrics{Category: category, Support: support}
		if tp+fp > 0 {
			m.Precision = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			m.Recall = float64(tp) / float64(tp+fn)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		report.Labels = append(report.Labels, m)
	}

	n := float64(len(report.Labels))
	if n > 0 {
		for _, m := range report.Labels {
			report.MacroPrecision += m.Precision / n
			report.MacroRecall += m.Recall / n
			report.MacroF1 += m.F1 / n
		}
	}
	return report, nil
}

// Table renders the report as an aligned text table for the CLI.
func (r *Report) Table() string {
	width := len("macro avg")
	for _, m := range r.Labels {
		if len(m.Category) > width {
			width = len(m.Category)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-*s  %9s  %9s  %9s  %9s\n", width, "category", "precision", "recall", "f1", "support")
	for _, m := range r.Labels {
		fmt.Fprintf(&sb, "%-*s  %9.2f  %9.2f  %9.2f  %9d\n",
			width, m.Category, m.Precision, m.Recall, m.F1, m.Support)
	}
	fmt.Fprintf(&sb, "\n%-*s  %9.2f  %9.2f  %9.2f  %9d\n",
		width, "macro avg", r.MacroPrecision, r.MacroRecall, r.MacroF1, r.TestCount)
	return sb.String()
}

// Markdown renders the report as a markdown table for the web report page.
func (r *Report) Markdown() string {
	var sb strings.Builder
	sb.WriteString("| category | precision | recall | f1 | support |\n")
	sb.WriteString("| --- | ---: | ---: | ---: | ---: |\n")
	for _, m := range r.Labels {
		fmt.Fprintf(&sb, "| %s | %.2f | %.2f | %.2f | %d |\n",
			m.Category, m.Precision, m.Recall, m.F1, m.Support)
	}
	fmt.Fprintf(&sb, "| **macro avg** | %.2f | %.2f | %.2f | %d |\n",
		r.MacroPrecision, r.MacroRecall, r.MacroF1, r.TestCount)
	return sb.String()
}
