package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lderrors "github.com/atsuhiron/lite-dist2-go/internal/errors"
)

func TestLoadTableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"port": 9090,
		"default_timeout_minutes": 5,
		"curriculum_path": "/tmp/cur.json",
		"curriculum_save_period_seconds": 30
	}`), 0o644))

	cfg, err := LoadTableConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 5, cfg.DefaultTimeoutMinutes)
	assert.Equal(t, "/tmp/cur.json", cfg.CurriculumPath)
	assert.Equal(t, 30*time.Second, cfg.SavePeriod())
	// unset fields fall back to defaults
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadTableConfig_Missing(t *testing.T) {
	_, err := LoadTableConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.IsType(t, &lderrors.SerializationError{}, err)
}

func TestLoadTableConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))
	_, err := LoadTableConfig(path)
	require.Error(t, err)
	assert.IsType(t, &lderrors.SerializationError{}, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, time.Minute, cfg.SavePeriod())
}
