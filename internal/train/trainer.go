package train

import (
	"fmt"
	"log"

	"github.com/crisislab/responder/internal/artifact"
	"github.com/crisislab/responder/internal/classify"
	"github.com/crisislab/responder/internal/config"
	"github.com/crisislab/responder/internal/database"
	"github.com/crisislab/responder/internal/textproc"
)

// Trainer reads the cleaned table, fits the text pipeline and per-label
// classifiers, evaluates on a held-out split, and writes the artifact.
type Trainer struct {
	db  *database.DB
	cfg *config.Config
}

// NewTrainer creates a trainer.
func NewTrainer(db *database.DB, cfg *config.Config) *Trainer {
	return &Trainer{db: db, cfg: cfg}
}

// RunResult summarizes a completed training run.
type RunResult struct {
	Bundle     *artifact.Bundle
	Report     *Report
	Schema     []string
	TrainCount int
	TestCount  int
	VocabSize  int
}

// Run executes a full training run and writes the model to modelPath.
func (t *Trainer) Run(modelPath string) (*RunResult, error) {
	table := t.cfg.ETL.TableName
	ds, err := t.db.ReadMessageTable(table)
	if err != nil {
		return nil, fmt.Errorf("loading cleaned data: %w", err)
	}
	if len(ds.Records) == 0 {
		return nil, fmt.Errorf("table %s is empty; run the etl command first", table)
	}

	texts := make([]string, len(ds.Records))
	labels := make([][]int, len(ds.Records))
	for i, rec := range ds.Records {
		texts[i] = rec.Message
		labels[i] = rec.Labels
	}

	tc := t.cfg.Training
	trainIdx, testIdx := Split(len(texts), tc.TestFraction, tc.Seed)
	trainTexts, trainLabels := take(texts, labels, trainIdx)
	testTexts, testLabels := take(texts, labels, testIdx)

	log.Printf("fitting vectorizer on %d messages", len(trainTexts))
	vec := textproc.NewVectorizer(tc.MinDocFreq)
	vec.Fit(trainTexts)
	if !vec.Fitted() {
		return nil, fmt.Errorf("vocabulary is empty after fitting; check the message text")
	}

	log.Printf("training %d per-label classifiers over %d features", len(ds.Categories), vec.Size())
	xs := vec.TransformAll(trainTexts)
	model := classify.FitMultiLabel(xs, trainLabels, ds.Categories, classify.Hyperparams{
		Epochs:       tc.Epochs,
		LearningRate: tc.LearningRate,
		L2Penalty:    tc.L2Penalty,
		Seed:         tc.Seed,
	})

	report, err := Evaluate(model, vec, testTexts, testLabels, ds.Categories)
	if err != nil {
		return nil, fmt.Errorf("evaluating model: %w", err)
	}

	bundle := &artifact.Bundle{Vectorizer: vec, Model: model}
	if err := artifact.Save(modelPath, bundle); err != nil {
		return nil, fmt.Errorf("saving model: %w", err)
	}

	if _, err := t.db.InsertTrainingRun(database.TrainingRun{
		ModelPath:      modelPath,
		LabelCount:     len(ds.Categories),
		TrainCount:     len(trainIdx),
		TestCount:      len(testIdx),
		MacroF1:        report.MacroF1,
		ReportMarkdown: report.Markdown(),
	}); err != nil {
		return nil, fmt.Errorf("recording training run: %w", err)
	}

	return &RunResult{
		Bundle:     bundle,
		Report:     report,
		Schema:     ds.Categories,
		TrainCount: len(trainIdx),
		TestCount:  len(testIdx),
		VocabSize:  vec.Size(),
	}, nil
}

func take(texts []string, labels [][]int, idx []int) ([]string, [][]int) {
	outTexts := make([]string, len(idx))
	outLabels := make([][]int, len(idx))
	for i, j := range idx {
		outTexts[i] = texts[j]
		outLabels[i] = labels[j]
	}
	return outTexts, outLabels
}
