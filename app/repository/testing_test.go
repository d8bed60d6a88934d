package repository

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/boxbinhq/boxbin/app/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

// newTestDB opens a private in-memory SQLite database with the full schema.
// Each test gets its own named memory database so state never leaks between
// tests while GORM's connection pool still sees a single store.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:boxbin_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.ProviderAccount{},
		&models.Subscription{},
		&models.BillingWebhookEvent{},
		&models.Location{},
		&models.Bin{},
		&models.Item{},
		&models.InventoryShare{},
	)
	if err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Name: "Test User", Email: email, Status: models.STATUS_ACTIVE, Role: models.ROLE_USER}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}
