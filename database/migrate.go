package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yeremiapane/freelance-app/models"
	"github.com/yeremiapane/freelance-app/utils"
)

// Models lists every table the application owns, parents first.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Customer{},
		&models.Project{},
	}
}

// Migrate creates or updates the schema. The ON DELETE CASCADE foreign keys
// come from the constraint tags on User.Customers and Customer.Projects.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to AutoMigrate: %w", err)
	}

	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}
