package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"inventory-reconciler/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_URL", "RECONCILE_VARIANTS_TABLE", "RECONCILE_DEFAULT_STATUS",
		"RECONCILE_PREVIEW_LIMIT", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_DefaultsWithDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://app@localhost:5432/pos")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://app@localhost:5432/pos", cfg.DatabaseURL)
	assert.Equal(t, "lats_product_variants", cfg.VariantsTable)
	assert.Equal(t, "available", cfg.DefaultStatus)
	assert.Equal(t, 10, cfg.PreviewLimit)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	clearEnv(t)

	_, err := config.Load("")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DatabaseURL")
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "reconcile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database_url: postgres://file@localhost/pos
variants_table: product_variants
preview_limit: 25
log_level: debug
`), 0o600))
	t.Setenv("RECONCILE_PREVIEW_LIMIT", "40")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://file@localhost/pos", cfg.DatabaseURL)
	assert.Equal(t, "product_variants", cfg.VariantsTable)
	assert.Equal(t, 40, cfg.PreviewLimit)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_SnapshotNeedsNoDatabase(t *testing.T) {
	clearEnv(t)
	cfg := config.Default()
	cfg.SnapshotPath = "ledger.json"

	assert.NoError(t, cfg.Validate())
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg := config.Default()
	cfg.DatabaseURL = "postgres://x"
	cfg.PreviewLimit = 0
	cfg.LogFormat = "xml"

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "PreviewLimit (min)")
	assert.Contains(t, err.Error(), "LogFormat (oneof)")
}

func TestLoad_BadPreviewLimitEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("RECONCILE_PREVIEW_LIMIT", "lots")

	_, err := config.Load("")

	assert.ErrorContains(t, err, "RECONCILE_PREVIEW_LIMIT")
}

func TestLoad_OverridesApplyBeforeValidation(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load("", func(c *config.Config) {
		c.SnapshotPath = "ledger.json"
		c.PreviewLimit = 3
	})
	require.NoError(t, err)

	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, "ledger.json", cfg.SnapshotPath)
	assert.Equal(t, 3, cfg.PreviewLimit)
}
