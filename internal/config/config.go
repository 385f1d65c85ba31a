package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	ETL      ETL      `yaml:"etl"`
	Training Training `yaml:"training"`
	Output   Output   `yaml:"output"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
}

type ETL struct {
	TableName string `yaml:"table_name"`
	// ClampValues maps category values greater than 1 down to 1 instead of
	// rejecting the row. The source data carries related=2 on a handful of
	// records.
	ClampValues         bool `yaml:"clamp_values"`
	DropEmptyCategories bool `yaml:"drop_empty_categories"`
}

type Training struct {
	TestFraction float64 `yaml:"test_fraction"`
	Seed         int64   `yaml:"seed"`
	Epochs       int     `yaml:"epochs"`
	LearningRate float64 `yaml:"learning_rate"`
	L2Penalty    float64 `yaml:"l2_penalty"`
	MinDocFreq   int     `yaml:"min_doc_freq"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for responder.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "responder")
}

// DataDir returns the XDG data directory for responder.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "responder")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/responder/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'responder init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the built-in configuration without touching the filesystem.
func Default() *Config {
	cfg, _ := parse(nil)
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		ETL: ETL{
			TableName:           "messages",
			ClampValues:         true,
			DropEmptyCategories: true,
		},
		Training: Training{
			TestFraction: 0.2,
			Seed:         123,
			Epochs:       20,
			LearningRate: 0.5,
			L2Penalty:    1e-4,
			MinDocFreq:   2,
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
