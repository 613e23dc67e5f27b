package helpers

import (
	"testing"

	"gorm.io/gorm"

	"github.com/andrescamacho/upgrade-planner/internal/infrastructure/database"
)

// NewTestDB returns a private in-memory plan history with every table migrated.
// It is closed when the test ends.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.NewTestConnection()
	if err != nil {
		t.Fatalf("plan history test database: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}
