package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if cfg.ETL.TableName != "messages" {
		t.Errorf("expected table 'messages', got %q", cfg.ETL.TableName)
	}
	if !cfg.ETL.ClampValues || !cfg.ETL.DropEmptyCategories {
		t.Errorf("expected cleaning options on by default: %+v", cfg.ETL)
	}
	if cfg.Training.TestFraction != 0.2 || cfg.Training.Seed != 123 {
		t.Errorf("unexpected training defaults: %+v", cfg.Training)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
training:
  seed: 7
  epochs: 5
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Training.Seed != 7 || cfg.Training.Epochs != 5 {
		t.Errorf("overrides not applied: %+v", cfg.Training)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.ETL.TableName != "messages" {
		t.Errorf("expected default table name, got %q", cfg.ETL.TableName)
	}
	if cfg.Training.TestFraction != 0.2 {
		t.Errorf("expected default test fraction, got %f", cfg.Training.TestFraction)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.ETL.TableName != "messages" {
		t.Errorf("expected table 'messages', got %q", cfg.ETL.TableName)
	}
}

func TestDefaultMatchesEmbeddedYAML(t *testing.T) {
	fromYAML, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}
	if *Default() != *fromYAML {
		t.Errorf("built-in defaults diverge from default.yaml: %+v vs %+v", Default(), fromYAML)
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	if cfg.GetDataDir() == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected /custom/path, got %q", cfg.GetDataDir())
	}
}

func TestResolveConfigPathExplicitMissing(t *testing.T) {
	if _, err := ResolveConfigPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config path")
	}
}
