package database

import (
	"log"

	"tableserve-backend/internal/config"
	"tableserve-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	log.Println("database connected, migration complete")
	return db
}

// Migrate is separated from Connect so tests can run it against sqlite.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Table{},
		&models.Category{},
		&models.Menu{},
		&models.Bill{},
		&models.Order{},
		&models.OrderItem{},
		&models.Setting{},
	)
}
