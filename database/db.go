package database

import (
	"fmt"
	"os"

	"qrcred-recovery/logger"
	"qrcred-recovery/models/audit"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitDB opens the audit database and migrates its schema
func InitDB() (*gorm.DB, error) {
	if err := godotenv.Load(); err != nil {
		logger.Error("Error loading .env file", err)
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	database := os.Getenv("DB_DATABASE")
	user := os.Getenv("DB_USERNAME")
	password := os.Getenv("DB_PASSWORD")
	sslmode := os.Getenv("DB_SSLMODE")
	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, database, sslmode)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return nil, err
	}
	logger.Success("Successfully connected to the database")

	if err := DB.AutoMigrate(&audit.DeliveryEvent{}); err != nil {
		logger.Error("Failed to migrate audit schema", err)
		return nil, err
	}

	if err := createIndexes(); err != nil {
		logger.Error("Failed to create indexes", err)
		return nil, err
	}
	logger.Success("Audit schema ready")

	return DB, nil
}

// createIndexes adds the composite indexes the stats queries rely on
func createIndexes() error {
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_delivery_events_account_channel ON delivery_events(account_id, channel)").Error; err != nil {
		return fmt.Errorf("failed to create account/channel index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_delivery_events_outcome_created ON delivery_events(outcome, created_at)").Error; err != nil {
		return fmt.Errorf("failed to create outcome/created_at index: %w", err)
	}
	return nil
}
