// internal/config/config.go
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kovancilartr/quizclip/pkg/utils"
)

type Config struct {
	ProjectID    string `yaml:"project_id"`
	DataDir      string `yaml:"data_dir"`
	APIBaseURL   string `yaml:"api_base_url"`
	TelemetryURL string `yaml:"telemetry_url"`
	Render       struct {
		Scale   float64 `yaml:"scale"`
		Quality float64 `yaml:"quality"`
	} `yaml:"render"`
	Filter struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"filter"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// Default returns a usable config when no config file is present.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.ProjectID == "" {
		cfg.ProjectID = "default"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = utils.DefaultDataDir()
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.quizclip.dev"
	}
	if cfg.TelemetryURL == "" {
		cfg.TelemetryURL = "https://api.quizclip.dev/telemetry/crops"
	}
	if cfg.Render.Scale <= 0 {
		cfg.Render.Scale = 1.0
	}
	if cfg.Render.Quality <= 0 {
		cfg.Render.Quality = 2.0
	}
}

// StorePath is the location of the SQLite database inside the data dir.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "quizclip.db")
}
