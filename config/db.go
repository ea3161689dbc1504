package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cafe-pos-api/models"
)

// OpenDB connects with the configured driver. All timestamps are written in UTC.
func OpenDB(cfg Database, log logger.Interface) (*gorm.DB, error) {
	if log == nil {
		log = logger.Default.LogMode(logger.Warn)
	}
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  log,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "" || cfg.Driver == "sqlite" {
		// sqlite allows one writer; a single connection also keeps in-memory databases alive.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.PasswordResetToken{},
		&models.Role{},
		&models.Permission{},
		&models.RolePermission{},
		&models.UserPermission{},
		&models.MenuItem{},
		&models.InventoryItem{},
		&models.StockMovement{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
		&models.Alert{},
		&models.Setting{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// RedactDSN hides credentials when logging a connection string.
func RedactDSN(dsn string) string {
	if at := strings.LastIndex(dsn, "@"); at > 0 {
		return "***" + dsn[at:]
	}
	return dsn
}
