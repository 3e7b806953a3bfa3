package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "srcf-sync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, "baserow", cfg.System)
	assert.Equal(t, "id", cfg.Source.IDColumn)
}

func TestDefaultsValidate(t *testing.T) {
	assert.NoError(t, Defaults().Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
out_root: /srv/ops
format: json
workers: 4
source:
  driver: sqlite3
  dsn: /srv/baserow.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/ops", cfg.OutRoot)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "sqlite3", cfg.Source.Driver)
	assert.Equal(t, "/srv/baserow.db", cfg.Source.DSN)
	// Untouched fields keep their defaults.
	assert.Equal(t, "baserow", cfg.System)
	assert.Equal(t, "id", cfg.Source.IDColumn)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	_, err := Load(writeConfig(t, "out_rot: /tmp\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out_rot")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad format", "format: xml\n"},
		{"negative workers", "workers: -1\n"},
		{"unknown driver", "source:\n  driver: mysql\n"},
		{"empty out root", "out_root: \"\"\n"},
		{"empty id column", "source:\n  id_column: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}
}

func TestValidateAfterOverride(t *testing.T) {
	cfg := Defaults()
	cfg.Format = "yaml"
	assert.Error(t, cfg.Validate())

	cfg.Format = "json"
	cfg.Source.Driver = "postgres"
	cfg.Source.DSN = "postgres://localhost/baserow?sslmode=disable"
	assert.NoError(t, cfg.Validate())
}
