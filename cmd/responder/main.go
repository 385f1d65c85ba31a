package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/crisislab/responder/internal/artifact"
	"github.com/crisislab/responder/internal/config"
	"github.com/crisislab/responder/internal/database"
	"github.com/crisislab/responder/internal/pipeline"
	"github.com/crisislab/responder/internal/server"
	"github.com/crisislab/responder/internal/train"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "responder",
	Short:   "Disaster message classification",
	Long:    "Responder cleans disaster relief messages into a relational table, trains a multi-label classifier, and serves predictions through a local web UI.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			if configPath != "" {
				return err
			}
			// No config anywhere: run on the built-in defaults.
			cfg = config.Default()
			return nil
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(etlCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("responder", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/responder/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to tune cleaning and training parameters.")
		return nil
	},
}

// --- etl command ---

var etlCmd = &cobra.Command{
	Use:   "etl <messages.csv> <categories.csv> <db>",
	Short: "Merge and clean the message and category CSVs into the database",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Open(args[2])
		if err != nil {
			return err
		}
		defer db.Close()

		summary, err := pipeline.New(cfg, db).RunETL(args[0], args[1])
		if err != nil {
			return err
		}

		fmt.Println("ETL complete:")
		fmt.Printf("  Messages stored: %d\n", summary.Rows)
		fmt.Printf("  Categories: %d\n", summary.Categories)
		fmt.Printf("  Duplicates dropped: %d\n", summary.DuplicatesDropped)
		if len(summary.DroppedCategories) > 0 {
			fmt.Printf("  Empty categories dropped: %s\n", strings.Join(summary.DroppedCategories, ", "))
		}
		return nil
	},
}

// --- train command ---

var trainCmd = &cobra.Command{
	Use:   "train <db> <model>",
	Short: "Train the multi-label classifier and write the model artifact",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.OpenExisting(args[0])
		if err != nil {
			return err
		}
		defer db.Close()

		result, err := train.NewTrainer(db, cfg).Run(args[1])
		if err != nil {
			return err
		}

		fmt.Println(result.Report.Table())
		fmt.Printf("Trained on %d messages, evaluated on %d.\n", result.TrainCount, result.TestCount)
		fmt.Printf("Model saved to %s\n", args[1])
		return nil
	},
}

// --- run command ---

var runCmd = &cobra.Command{
	Use:   "run <messages.csv> <categories.csv> <db> <model>",
	Short: "Run the full pipeline: etl -> train",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Open(args[2])
		if err != nil {
			return err
		}
		defer db.Close()

		result := pipeline.New(cfg, db).Run(args[0], args[1], args[3])

		failed := false
		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/2: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
				failed = true
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}
		if failed {
			return fmt.Errorf("pipeline failed")
		}

		fmt.Println("\nPipeline complete! Run 'responder serve' to classify messages.")
		return nil
	},
}

// --- classify command ---

var classifyCmd = &cobra.Command{
	Use:   "classify <model> <message...>",
	Short: "Classify a single message from the command line",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, err := artifact.Load(args[0])
		if err != nil {
			return err
		}

		message := strings.Join(args[1:], " ")
		results := bundle.Classify(message)

		var positive []string
		for _, r := range results {
			if r.Positive {
				positive = append(positive, r.Category)
			}
		}

		fmt.Printf("Message: %s\n", message)
		if len(positive) == 0 {
			fmt.Println("No categories predicted.")
			return nil
		}
		fmt.Printf("Categories: %s\n", strings.Join(positive, ", "))
		return nil
	},
}

// --- serve command ---

var (
	servePort  int
	serveModel string
	serveDB    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		modelPath := serveModel
		if modelPath == "" {
			modelPath = filepath.Join(cfg.GetDataDir(), "model.bin")
		}
		dbPath := serveDB
		if dbPath == "" {
			dbPath = filepath.Join(cfg.GetDataDir(), "responder.db")
		}

		// A corrupt or missing artifact refuses to start the server rather
		// than serve an undefined model.
		bundle, err := artifact.Load(modelPath)
		if err != nil {
			return err
		}

		db, err := database.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, bundle, cfg.ETL.TableName, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
	serveCmd.Flags().StringVarP(&serveModel, "model", "m", "", "Path to the model artifact")
	serveCmd.Flags().StringVarP(&serveDB, "db", "d", "", "Path to the SQLite database")
}

// --- status command ---

var statusCmd = &cobra.Command{
	Use:   "status [db]",
	Short: "Show database and system status",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := filepath.Join(cfg.GetDataDir(), "responder.db")
		if len(args) == 1 {
			dbPath = args[0]
		}

		db, err := database.OpenExisting(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(cfg.ETL.TableName)
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n\n", dbPath)
		fmt.Println("Corpus:")
		fmt.Printf("  Messages: %d\n", stats.Messages)
		fmt.Printf("  Categories: %d\n", stats.Categories)
		fmt.Println("\nRuns:")
		fmt.Printf("  ETL runs: %d", stats.ETLRuns)
		if stats.LastETL != "" {
			fmt.Printf(" (last %s)", stats.LastETL)
		}
		fmt.Println()
		fmt.Printf("  Training runs: %d", stats.TrainingRuns)
		if stats.LastTraining != "" {
			fmt.Printf(" (last %s)", stats.LastTraining)
		}
		fmt.Println()
		return nil
	},
}
