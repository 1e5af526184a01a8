package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeremiapane/freelance-app/config"
	"github.com/yeremiapane/freelance-app/database"
)

// SetupTestDB opens a private in-memory SQLite database with foreign keys
// enforced and the full schema migrated. It is closed when the test ends.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := config.Default()
	cfg.DatabaseURL = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	cfg.DatabaseDriver = config.DriverSQLite
	// One connection keeps SQLite's shared-cache table locks out of the way.
	cfg.MaxOpenConns = 1
	cfg.MaxIdleConns = 1
	cfg.ConnMaxLifetime = 0

	db, err := database.Open(&cfg)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close(db)
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func StrPtr(s string) *string { return &s }

func IntPtr(i int) *int { return &i }
