package db

import (
	"github.com/glebarez/sqlite"
	"github.com/keywarden/keywarden/internal/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the SQLite database and runs migrations.
func InitDB(dbPath string) (*gorm.DB, error) {
	database, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := database.AutoMigrate(
		&models.User{},
		&models.Account{},
		&models.Integration{},
		&models.Workflow{},
		&models.WorkflowExecution{},
	); err != nil {
		return nil, err
	}

	return database, nil
}
