package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"social-insight/internal/shared/telemetry"
)

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func warn(msg, path string, err error) {
	telemetry.Warn(msg, map[string]any{"path": path, "error": err})
}
