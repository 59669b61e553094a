package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Store string

const (
	StoreBolt   Store = "bolt"
	StoreSQLite Store = "sqlite"
	StoreMySQL  Store = "mysql"
)

const (
	defaultBoltPath   = "./data/ledger.db"
	defaultSQLitePath = "./data/ledger.sqlite"
	defaultHTTPAddr   = ":8080"
)

var ErrMissingSetting = errors.New("required setting is not set")

// Config holds everything the binaries read from the environment.
type Config struct {
	Store      Store
	BoltPath   string
	SQLitePath string
	DSN        string
	SeedFile   string
	HTTPAddr   string

	LogFile  string
	LogLevel slog.Level

	Binlog BinlogConfig
}

type BinlogConfig struct {
	Host     string
	Port     uint16
	User     string
	Password string
	ServerID uint32
	Schema   string
}

// Load reads a .env file (the given paths, or ./.env) when present and then
// the process environment. A missing .env file is not an error.
func Load(envPaths ...string) (Config, error) {
	if err := godotenv.Load(envPaths...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: loading .env: %w", err)
	}

	cfg := Config{
		Store:      Store(strings.ToLower(getEnvOrDefault("LEDGER_STORE", string(StoreBolt)))),
		BoltPath:   getEnvOrDefault("LEDGER_BOLT_PATH", defaultBoltPath),
		SQLitePath: getEnvOrDefault("LEDGER_SQLITE_PATH", defaultSQLitePath),
		DSN:        os.Getenv("DATABASE_DSN"),
		SeedFile:   os.Getenv("LEDGER_SEED_FILE"),
		HTTPAddr:   getEnvOrDefault("LEDGER_HTTP_ADDR", defaultHTTPAddr),
		LogFile:    os.Getenv("LEDGER_LOG_FILE"),
		LogLevel:   slog.LevelInfo,
		Binlog: BinlogConfig{
			Host:     getEnvOrDefault("MYSQL_HOST", "127.0.0.1"),
			User:     getEnvOrDefault("MYSQL_REPLICATOR_USER", "replicator"),
			Password: os.Getenv("MYSQL_REPLICATOR_PASSWORD"),
			Schema:   os.Getenv("MYSQL_SCHEMA"),
		},
	}

	if lvl := os.Getenv("LEDGER_LOG_LEVEL"); lvl != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(lvl)); err != nil {
			return Config{}, fmt.Errorf("config: LEDGER_LOG_LEVEL: %w", err)
		}
	}
	if debug, _ := strconv.ParseBool(os.Getenv("DEBUG")); debug {
		cfg.LogLevel = slog.LevelDebug
	}

	port, err := strconv.ParseUint(getEnvOrDefault("MYSQL_PORT", "3306"), 10, 16)
	if err != nil {
		return Config{}, fmt.Errorf("config: MYSQL_PORT: %w", err)
	}
	cfg.Binlog.Port = uint16(port)

	serverID, err := strconv.ParseUint(getEnvOrDefault("BINLOG_SERVER_ID", "101"), 10, 32)
	if err != nil {
		return Config{}, fmt.Errorf("config: BINLOG_SERVER_ID: %w", err)
	}
	cfg.Binlog.ServerID = uint32(serverID)

	return cfg, nil
}

// Validate reports settings the selected store cannot run without.
func (c Config) Validate() error {
	switch c.Store {
	case StoreBolt:
		if c.BoltPath == "" {
			return fmt.Errorf("%w: LEDGER_BOLT_PATH", ErrMissingSetting)
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: LEDGER_SQLITE_PATH", ErrMissingSetting)
		}
	case StoreMySQL:
		if c.DSN == "" {
			return fmt.Errorf("%w: DATABASE_DSN", ErrMissingSetting)
		}
	default:
		return fmt.Errorf("config: unknown LEDGER_STORE %q (want bolt, sqlite or mysql)", c.Store)
	}
	return nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
