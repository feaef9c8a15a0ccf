package database

import (
	"fmt"
	"os"
	"vaultvibe/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Manager struct {
	DB *gorm.DB
}

func NewDatabaseManager() *Manager {
	return &Manager{}
}

func (dbm *Manager) Connect() error {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return fmt.Errorf("DATABASE_URL environment variable not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	dbm.DB = db
	return nil
}

func (dbm *Manager) Close() error {
	db, err := dbm.DB.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
