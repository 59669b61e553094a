package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
)

var keys = []string{
	"LEDGER_STORE", "LEDGER_BOLT_PATH", "LEDGER_SQLITE_PATH", "DATABASE_DSN",
	"LEDGER_SEED_FILE", "LEDGER_HTTP_ADDR", "LEDGER_LOG_FILE", "LEDGER_LOG_LEVEL",
	"DEBUG", "MYSQL_HOST", "MYSQL_PORT", "MYSQL_REPLICATOR_USER",
	"MYSQL_REPLICATOR_PASSWORD", "BINLOG_SERVER_ID", "MYSQL_SCHEMA",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
	assert.Equal(t, StoreBolt, cfg.Store)
	assert.Equal(t, defaultBoltPath, cfg.BoltPath)
	assert.Equal(t, defaultHTTPAddr, cfg.HTTPAddr)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, uint16(3306), cfg.Binlog.Port)
	assert.Equal(t, uint32(101), cfg.Binlog.ServerID)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	content := "LEDGER_STORE=MySQL\nDATABASE_DSN=user:pw@tcp(db:3306)/ledger\nLEDGER_LOG_LEVEL=warn\nMYSQL_PORT=3307\n"
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	// godotenv never overrides variables that are already set.
	for _, k := range []string{"LEDGER_STORE", "DATABASE_DSN", "LEDGER_LOG_LEVEL", "MYSQL_PORT"} {
		assert.NoError(t, os.Unsetenv(k))
	}

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, StoreMySQL, cfg.Store)
	assert.Equal(t, "user:pw@tcp(db:3306)/ledger", cfg.DSN)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, uint16(3307), cfg.Binlog.Port)
	assert.NoError(t, cfg.Validate())
}

func TestDebugOverridesLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEDGER_LOG_LEVEL", "error")
	t.Setenv("DEBUG", "true")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("MYSQL_PORT", "not-a-port")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.IsError(t, Config{Store: StoreMySQL}.Validate(), ErrMissingSetting)
	assert.IsError(t, Config{Store: StoreSQLite}.Validate(), ErrMissingSetting)
	assert.Error(t, Config{Store: "redis"}.Validate())
}
