package database

// Record is one cleaned disaster message with its binary category labels.
// Labels is aligned to the Categories slice of the Dataset that holds it.
type Record struct {
	ID       int64
	Message  string
	Original *string
	Genre    string
	Labels   []int
}

// Dataset is a cleaned message table in memory: the category schema in
// column order plus the records.
type Dataset struct {
	Categories []string
	Records    []Record
}

// ETLRun holds metadata about one ETL invocation.
type ETLRun struct {
	ID                int64
	MessagesPath      string
	CategoriesPath    string
	TableName         string
	RowCount          int
	CategoryCount     int
	DuplicatesDropped int
	CreatedAt         *string
}

// TrainingRun holds metadata and the evaluation report for one training run.
type TrainingRun struct {
	ID             int64
	ModelPath      string
	LabelCount     int
	TrainCount     int
	TestCount      int
	MacroF1        float64
	ReportMarkdown string
	CreatedAt      *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	Messages     int
	Categories   int
	ETLRuns      int
	TrainingRuns int
	LastETL      string
	LastTraining string
}

// GenreCount is the number of messages in one source genre.
type GenreCount struct {
	Genre string
	Count int
}

// CategoryCount is the number of positive examples for one category.
type CategoryCount struct {
	Category string
	Count    int
}
