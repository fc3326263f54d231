package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration. Every field has a usable default so
// the server runs without a file; environment overrides are applied in
// main.
type Config struct {
	Port               string `yaml:"port"`
	DataPath           string `yaml:"data_path"`
	StatePath          string `yaml:"state_path"`
	NatsURL            string `yaml:"nats_url"`
	RetentionDays      int    `yaml:"retention_days"`
	SweepIntervalHours int    `yaml:"sweep_interval_hours"`
}

func Default() Config {
	return Config{
		Port:               "8080",
		DataPath:           "data/data.json",
		StatePath:          "data/state.json",
		NatsURL:            "",
		RetentionDays:      30,
		SweepIntervalHours: 12,
	}
}

// Load reads the yaml file at path on top of the defaults. A missing file
// is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.RetentionDays <= 0 {
		return Config{}, fmt.Errorf("retention_days must be positive")
	}
	if cfg.SweepIntervalHours <= 0 {
		return Config{}, fmt.Errorf("sweep_interval_hours must be positive")
	}
	return cfg, nil
}
