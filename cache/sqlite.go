// Package cache stores compiled results keyed by source hash, so a repeat
// compile of unchanged input can short-circuit the CodeGen stage.
package cache

import (
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// SQLiteConfig configures the backing gorm/sqlite connection.
type SQLiteConfig struct {
	Path   string
	Logger *log.Logger
}

// NewSQLite opens (creating if necessary) the sqlite database at cfg.Path.
func NewSQLite(cfg SQLiteConfig) (*gorm.DB, error) {
	loggerConfig := gormLogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		IgnoreRecordNotFoundError: true,
		LogLevel:                  gormLogger.Info,
	}

	gormLog := gormLogger.New(newGormLogger(cfg.Logger), loggerConfig)

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: gormLog,
	})
	if err != nil {
		return nil, err
	}

	return db, nil
}
