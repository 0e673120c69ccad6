package datastore

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSlowQueryThreshold defines the duration after which a query is
// considered slow and logged at warn level.
const DefaultSlowQueryThreshold = 1 * time.Second

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger(debug bool) gormlogger.Interface {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return gormlogger.New(
		slogWriter{},
		gormlogger.Config{
			SlowThreshold:             DefaultSlowQueryThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		},
	)
}

// slogWriter adapts the gorm logger to slog.
type slogWriter struct{}

func (slogWriter) Printf(format string, args ...any) {
	slog.Default().Info(fmt.Sprintf(format, args...), "service", "datastore")
}

// performAutoMigration runs GORM auto-migration for all models and logs the
// outcome.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&Profile{}, &Recommendation{}, &SendRecord{}); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}

	if debug {
		slog.Debug("Database initialized",
			"type", dbType,
			"connection", connectionInfo,
		)
	}
	return nil
}
