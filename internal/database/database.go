package database

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/killallgit/eafkit/internal/models"
	apperrors "github.com/killallgit/eafkit/pkg/errors"
)

// DB is the corpus index connection.
type DB struct {
	*gorm.DB
}

// Initialize opens (creating if needed) the sqlite corpus index at dbPath.
// An empty path or ":memory:" gives a private in-memory database.
func Initialize(dbPath string, verbose bool) (*DB, error) {
	dsn := dbPath
	if dsn == "" {
		dsn = ":memory:"
	}
	if dsn != ":memory:" {
		if dir := filepath.Dir(dsn); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, apperrors.Wrapf(err, apperrors.ErrCodeIO, "creating database directory %s", dir)
			}
		}
	}

	logLevel := logger.Error
	if verbose {
		logLevel = logger.Info
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, apperrors.DatabaseError("connect", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, apperrors.DatabaseError("get underlying SQL database", err)
	}

	// each new in-memory connection would be a separate empty database
	if dsn == ":memory:" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	logrus.WithField("path", dsn).Debug("opened corpus database")
	return &DB{DB: db}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return apperrors.DatabaseError("get underlying SQL database", err)
	}
	return sqlDB.Close()
}

// HealthCheck verifies the database connection is working
func (db *DB) HealthCheck() error {
	if db == nil || db.DB == nil {
		return apperrors.New(apperrors.ErrCodeDatabaseQuery, "database not initialized")
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return apperrors.DatabaseError("get underlying SQL database", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return apperrors.DatabaseError("ping", err)
	}

	return nil
}

// AutoMigrate runs GORM auto migration for the provided models
func (db *DB) AutoMigrate(models ...any) error {
	if err := db.DB.AutoMigrate(models...); err != nil {
		return apperrors.DatabaseError("auto migration", err)
	}
	logrus.WithField("models", len(models)).Info("migrated database schema")
	return nil
}

// Migrate creates or updates the corpus index schema.
func (db *DB) Migrate() error {
	return db.AutoMigrate(models.All()...)
}
