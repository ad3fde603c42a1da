package util

import (
	"AapdaMitra/pkg/logger"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenDB opens the backing database for driver ("sqlite", "mysql" or "pg").
// An empty sqlite DSN falls back to a private in-memory database.
func OpenDB(driver, dsn string, slowThreshold time.Duration) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}
	if slowThreshold > 0 {
		cfg.Logger = gormlogger.New(gormWriter{}, gormlogger.Config{
			SlowThreshold:             slowThreshold,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := createDatabaseInstance(cfg, strings.ToLower(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if isSQLite(driver) {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// one connection per in-memory database
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func createDatabaseInstance(cfg *gorm.Config, driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "mysql":
		return gorm.Open(mysql.Open(dsn), cfg)
	case "pg", "postgres":
		return gorm.Open(postgres.Open(dsn), cfg)
	}
	if dsn == "" {
		dsn = "file::memory:"
	}
	return gorm.Open(sqlite.Open(dsn), cfg)
}

func isSQLite(driver string) bool {
	switch strings.ToLower(driver) {
	case "mysql", "pg", "postgres":
		return false
	}
	return true
}

type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	logger.Lg().Sugar().Warnf(format, args...)
}
