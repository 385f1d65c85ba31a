package pipeline

import (
	"fmt"
	"log"
	"strings"

	"github.com/crisislab/responder/internal/config"
	"github.com/crisislab/responder/internal/database"
	"github.com/crisislab/responder/internal/etl"
	"github.com/crisislab/responder/internal/train"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	Steps []StepResult
}

// Pipeline orchestrates the two-stage ETL + training pipeline.
type Pipeline struct {
	cfg *config.Config
	db  *database.DB
}

// New creates a new pipeline.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	return &Pipeline{cfg: cfg, db: db}
}

// ETLSummary describes a completed ETL stage.
type ETLSummary struct {
	Rows              int
	Categories        int
	DuplicatesDropped int
	DroppedCategories []string
}

// RunETL loads the two CSVs, cleans and merges them, and replaces the
// cleaned table in the store.
func (p *Pipeline) RunETL(messagesPath, categoriesPath string) (*ETLSummary, error) {
	log.Printf("loading messages from %s", messagesPath)
	messages, err := etl.LoadMessages(messagesPath)
	if err != nil {
		return nil, err
	}

	log.Printf("loading categories from %s", categoriesPath)
	categories, err := etl.LoadCategories(categoriesPath)
	if err != nil {
		return nil, err
	}

	cleaned, err := etl.Clean(messages, categories, etl.Options{
		ClampValues:         p.cfg.ETL.ClampValues,
		DropEmptyCategories: p.cfg.ETL.DropEmptyCategories,
	})
	if err != nil {
		return nil, err
	}

	writer := etl.NewStoreWriter(p.db, p.cfg.ETL.TableName)
	if err := writer.Write(cleaned.Dataset); err != nil {
		return nil, err
	}

	if _, err := p.db.InsertETLRun(database.ETLRun{
		MessagesPath:      messagesPath,
		CategoriesPath:    categoriesPath,
		TableName:         p.cfg.ETL.TableName,
		RowCount:          len(cleaned.Dataset.Records),
		CategoryCount:     len(cleaned.Dataset.Categories),
		DuplicatesDropped: cleaned.DuplicatesDropped,
	}); err != nil {
		return nil, fmt.Errorf("recording etl run: %w", err)
	}

	return &ETLSummary{
		Rows:              len(cleaned.Dataset.Records),
		Categories:        len(cleaned.Dataset.Categories),
		DuplicatesDropped: cleaned.DuplicatesDropped,
		DroppedCategories: cleaned.DroppedCategories,
	}, nil
}

// Run executes ETL then training end to end.
func (p *Pipeline) Run(messagesPath, categoriesPath, modelPath string) *Result {
	r := &Result{}

	log.Println("Step 1/2: Cleaning and storing messages...")
	step := p.runETLStep(messagesPath, categoriesPath)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	log.Println("Step 2/2: Training classifier...")
	r.Steps = append(r.Steps, p.runTrainStep(modelPath))
	return r
}

func (p *Pipeline) runETLStep(messagesPath, categoriesPath string) StepResult {
	summary, err := p.RunETL(messagesPath, categoriesPath)
	if err != nil {
		return StepResult{Name: "ETL", Err: err}
	}

	text := fmt.Sprintf("Stored %d messages with %d categories (%d duplicates dropped)",
		summary.Rows, summary.Categories, summary.DuplicatesDropped)
	if len(summary.DroppedCategories) > 0 {
		text += fmt.Sprintf("; dropped empty categories: %s", strings.Join(summary.DroppedCategories, ", "))
	}
	return StepResult{Name: "ETL", Summary: text}
}

func (p *Pipeline) runTrainStep(modelPath string) StepResult {
	trainer := train.NewTrainer(p.db, p.cfg)
	result, err := trainer.Run(modelPath)
	if err != nil {
		return StepResult{Name: "Train", Err: err}
	}
	return StepResult{
		Name: "Train",
		Summary: fmt.Sprintf("Trained %d classifiers over %d features (macro F1 %.2f), model saved to %s",
			len(result.Schema), result.VocabSize, result.Report.MacroF1, modelPath),
	}
}
