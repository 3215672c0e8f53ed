package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DefaultDatabasePath is used when DATABASE_URL is empty.
const DefaultDatabasePath = "data/projektfire.db"

// Open connects to the database named by databaseURL. postgres:// and
// postgresql:// URLs use the postgres driver, anything else is treated as a
// sqlite path (an optional sqlite:// prefix is stripped).
func Open(databaseURL string, cfg *gorm.Config) (*gorm.DB, error) {
	dialector, err := dialectorFor(databaseURL)
	if err != nil {
		return nil, err
	}

	if cfg == nil {
		cfg = &gorm.Config{}
	}
	cfg.TranslateError = true
	if cfg.NowFunc == nil {
		cfg.NowFunc = func() time.Time { return time.Now().UTC() }
	}

	return gorm.Open(dialector, cfg)
}

// AutoMigrate creates or updates the tables for every model.
func AutoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&AdminUser{},
		&Category{},
		&Tag{},
		&Article{},
		&Comment{},
		&BlacklistedWord{},
		&ContactMessage{},
		&Media{},
		&StaticPage{},
	)
}

func dialectorFor(databaseURL string) (gorm.Dialector, error) {
	dsn := strings.TrimSpace(databaseURL)
	if dsn == "" {
		dsn = DefaultDatabasePath
	}

	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return postgres.New(postgres.Config{DSN: dsn}), nil
	case strings.HasPrefix(lower, "postgresql+asyncpg://"):
		return postgres.New(postgres.Config{DSN: "postgresql://" + dsn[len("postgresql+asyncpg://"):]}), nil
	case strings.HasPrefix(lower, "sqlite+aiosqlite:///"):
		dsn = dsn[len("sqlite+aiosqlite:///"):]
	case strings.HasPrefix(lower, "sqlite:///"):
		dsn = dsn[len("sqlite:///"):]
	case strings.HasPrefix(lower, "sqlite://"):
		dsn = dsn[len("sqlite://"):]
	}

	if dsn == "" {
		return nil, errors.New("empty sqlite database path")
	}
	if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		if err := ensureParentDir(dsn); err != nil {
			return nil, err
		}
	}
	return sqlite.Open(dsn), nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
