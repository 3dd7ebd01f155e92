// Package config loads the table-node configuration from a JSON file.
// Everything the process needs is in one flat config document; environment
// variables are not consulted.
package config

import (
	"encoding/json"
	"os"
	"time"

	lderrors "github.com/atsuhiron/lite-dist2-go/internal/errors"
	"github.com/atsuhiron/lite-dist2-go/internal/utils"
)

// TableConfig is the table-node process configuration.
type TableConfig struct {
	Port                        int    `json:"port"`
	LogLevel                    string `json:"log_level"`
	DefaultTimeoutMinutes       int    `json:"default_timeout_minutes"`
	CurriculumPath              string `json:"curriculum_path"`
	CurriculumSavePeriodSeconds int    `json:"curriculum_save_period_seconds"`
	// ArchiveDSN, when non-empty, enables the Postgres archive of finished
	// studies (internal/storage/pgstore).
	ArchiveDSN string `json:"archive_dsn,omitempty"`
}

// Default returns the configuration used when no config file is given.
func Default() *TableConfig {
	return &TableConfig{
		Port:                        8080,
		LogLevel:                    "info",
		DefaultTimeoutMinutes:       10,
		CurriculumPath:              "curriculum.json",
		CurriculumSavePeriodSeconds: 60,
	}
}

// LoadTableConfig reads and parses the JSON config file at path, filling
// unset fields with defaults.
func LoadTableConfig(path string) (*TableConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, lderrors.NewSerializationError(path, "cannot read table config", err)
	}
	cfg := &TableConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, lderrors.NewSerializationError(path, "cannot parse table config", err)
	}
	def := Default()
	cfg.Port = utils.DefaultValue(cfg.Port, def.Port)
	cfg.LogLevel = utils.DefaultValue(cfg.LogLevel, def.LogLevel)
	cfg.DefaultTimeoutMinutes = utils.DefaultValue(cfg.DefaultTimeoutMinutes, def.DefaultTimeoutMinutes)
	cfg.CurriculumPath = utils.DefaultValue(cfg.CurriculumPath, def.CurriculumPath)
	cfg.CurriculumSavePeriodSeconds = utils.DefaultValue(cfg.CurriculumSavePeriodSeconds, def.CurriculumSavePeriodSeconds)
	return cfg, nil
}

// SavePeriod is the snapshot interval as a duration.
func (c *TableConfig) SavePeriod() time.Duration {
	return time.Duration(c.CurriculumSavePeriodSeconds) * time.Second
}
