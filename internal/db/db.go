package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/docchat/docchat/internal/chat"
	"github.com/docchat/docchat/internal/files"
	"github.com/docchat/docchat/internal/ingest"
)

// Connect opens a gorm connection for the configured driver.
// sqlite is the default; mysql is kept for deployments that outgrow it.
func Connect(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "", "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("db: open %s: %w", driver, err)
	}
	return gdb, nil
}

// Migrate creates or updates the schema for all persisted models.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(&chat.Chat{}, &files.File{}, &ingest.Job{})
}
