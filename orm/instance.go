package orm

import (
	"context"
	"database/sql"
	"log/slog"

	sloggorm "github.com/orandin/slog-gorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/declog/declog/orm/config"
	"github.com/declog/declog/orm/plugins"
	"github.com/declog/declog/types"
)

var (
	UpdateAllWhenConflict = clause.OnConflict{
		UpdateAll: true,
	}
	DoNothingWhenConflict = clause.OnConflict{
		DoNothing: true,
	}
)

type Database struct {
	*gorm.DB
	config *config.Config
}

// NewWithDB wraps an already opened gorm instance. Intended for tests that
// drive the database through sqlmock.
func NewWithDB(db *gorm.DB, cfg *config.Config) *Database {
	return &Database{DB: db, config: cfg}
}

func OpenDB(config *config.Config, logger *slog.Logger) (*Database, error) {
	gormcfg := &gorm.Config{
		NamingStrategy:  schema.NamingStrategy{SingularTable: true},
		PrepareStmt:     true,
		CreateBatchSize: config.BatchSize,
		Logger:          sloggorm.New(sloggorm.WithHandler(logger.Handler())),
	}

	instance, err := gorm.Open(postgres.Open(config.DSN), gormcfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := instance.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(config.MaxConns)
	sqlDB.SetMaxIdleConns(config.IdleConns)

	// Register custom metrics plugin
	metricsPlugin := plugins.NewMetricsPlugin()
	if err := instance.Use(metricsPlugin); err != nil {
		return nil, err
	}

	return &Database{DB: instance, config: config}, nil
}

// Migrate creates or updates the extraction tables. Gated behind
// DB_AUTO_MIGRATE so shared environments can manage schema out of band.
func (d Database) Migrate(ctx context.Context) error {
	if !d.config.AutoMigrate {
		return nil
	}

	return d.DB.WithContext(ctx).AutoMigrate(
		&types.CollectedSeqInfo{},
		&types.CollectedConsoleLog{},
		&types.CollectedExtractionWarning{},
	)
}

func (d Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d Database) GetBatchSize() int {
	return d.config.BatchSize
}

// GetDBStats returns database connection pool statistics
func (d Database) GetDBStats() (*sql.DBStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, err
	}

	stats := sqlDB.Stats()
	return &stats, nil
}
