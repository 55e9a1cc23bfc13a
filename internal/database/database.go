package database

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"condo-tracker/internal/config"
	"condo-tracker/internal/models"
)

// GormDB wraps the gorm connection
type GormDB struct {
	db *gorm.DB
}

// NewGormDB opens a database connection based on the configured type.
// TranslateError is enabled so unique-constraint violations surface as
// gorm.ErrDuplicatedKey regardless of driver.
func NewGormDB(cfg config.DatabaseConfig) (*GormDB, error) {
	var dialector gorm.Dialector

	switch cfg.Type {
	case "mysql":
		mysqlCfg := cfg.MySQL
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			mysqlCfg.User, mysqlCfg.Password, mysqlCfg.Host, mysqlCfg.Port, mysqlCfg.Database)
		dialector = mysql.Open(dsn)
	case "postgres", "":
		pgCfg := cfg.Postgres
		sslMode := pgCfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			pgCfg.Host, pgCfg.Port, pgCfg.User, pgCfg.Password, pgCfg.Database, sslMode)
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &GormDB{db: db}, nil
}

// NewGormDBFromDB creates a GormDB wrapper from an existing gorm.DB instance
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

// DB returns the underlying gorm.DB instance
func (gdb *GormDB) DB() *gorm.DB {
	return gdb.db
}

// Close closes the underlying connection
func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate and seeds the
// neighborhood lookup table.
func (gdb *GormDB) InitSchema() error {
	if err := gdb.db.AutoMigrate(
		&models.Neighborhood{},
		&models.Building{},
		&models.Listing{},
		&models.PriceHistoryEntry{},
		&models.TrackingEvent{},
		&models.HistoricalSale{},
		&models.ListingPhoto{},
		&models.SalePhoto{},
		&models.PhotoDownloadQueue{},
	); err != nil {
		return err
	}

	return SeedNeighborhoods(gdb.db)
}
