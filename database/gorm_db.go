package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/liaowuw/webweek8mvc/config"
	"github.com/liaowuw/webweek8mvc/logging"
	"github.com/liaowuw/webweek8mvc/models"
)

// DefaultSexes is the reference data every installation starts with.
var DefaultSexes = []models.Sex{
	{ID: 1, Name: "Female"},
	{ID: 2, Name: "Male"},
	{ID: 3, Name: "Other"},
}

// sqliteDriverName is go-sqlite3 with LOWER replaced by a Unicode aware
// version, so name filters fold "É" the same way on both sides of LIKE.
const sqliteDriverName = "sqlite3_people"

func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", strings.ToLower, true)
		},
	})
}

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case config.DriverSQLite:
		return sqlite.New(sqlite.Config{DriverName: sqliteDriverName, DSN: dsn}), nil
	case config.DriverPostgres:
		return postgres.Open(dsn), nil
	case config.DriverMySQL:
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver '%s'", driver)
	}
}

// InitGormDB initializes and returns a GORM database instance
func InitGormDB(driver, dataSourceName string, log *zap.SugaredLogger) (*gorm.DB, error) {
	gormLogger := &logging.GormLogger{
		Log:                       log.Named("gorm"),
		Level:                     logger.Warn,
		SlowThreshold:             time.Second,
		IgnoreRecordNotFoundError: true,
	}

	dial, err := dialector(driver, dataSourceName)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database using GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB from GORM: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Infow("GORM database initialized", "driver", driver)
	return db, nil
}

// AutoMigrateModels creates or updates the sex and person tables.
func AutoMigrateModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Sex{},
		&models.Person{},
	)
	if err != nil {
		return fmt.Errorf("GORM AutoMigrate failed: %w", err)
	}
	return nil
}

// SeedReferenceData inserts the default Sex rows, leaving existing rows untouched.
func SeedReferenceData(db *gorm.DB) error {
	sexes := make([]models.Sex, len(DefaultSexes))
	copy(sexes, DefaultSexes)
	err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&sexes).Error
	if err != nil {
		return fmt.Errorf("failed to seed sex reference data: %w", err)
	}
	return nil
}
