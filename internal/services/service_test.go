package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/campusfind/campusfind-backend/internal/config"
	"github.com/campusfind/campusfind-backend/internal/dto"
	"github.com/campusfind/campusfind-backend/internal/lifecycle"
	"github.com/campusfind/campusfind-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a per-test in-memory SQLite database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.ItemReport{},
		&models.Claim{},
		&models.Comment{},
		&models.Reward{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 24 * time.Hour,
	}
}

func createUser(t *testing.T, db *gorm.DB, username, role string) models.User {
	t.Helper()
	user := models.User{
		ID:       uuid.New(),
		Username: username,
		Email:    username + "@campus.test",
		Password: "x",
		Role:     role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func asActor(user models.User) lifecycle.Actor {
	return lifecycle.Actor{ID: user.ID, Role: user.Role}
}

// submitReport creates a pending report owned by reporter.
func submitReport(t *testing.T, svc *ReportService, reporter models.User) *models.ItemReport {
	t.Helper()
	report, err := svc.Submit(asActor(reporter), &dto.SubmitReportRequest{
		Title:       "Black Backpack",
		Description: "Found near the library entrance",
		Category:    "accessories",
		Disposition: "found",
		Location:    "Main Library",
	})
	if err != nil {
		t.Fatalf("failed to submit report: %v", err)
	}
	return report
}

// approvedReport creates a report and approves it.
func approvedReport(t *testing.T, svc *ReportService, reporter, moderator models.User) *models.ItemReport {
	t.Helper()
	report := submitReport(t, svc, reporter)
	approved, err := svc.Approve(report.ID, asActor(moderator))
	if err != nil {
		t.Fatalf("failed to approve report: %v", err)
	}
	return approved
}

func notificationsFor(t *testing.T, db *gorm.DB, userID uuid.UUID) []models.Notification {
	t.Helper()
	var notifications []models.Notification
	if err := db.Order("created_at ASC").Find(&notifications, "user_id = ?", userID).Error; err != nil {
		t.Fatalf("failed to load notifications: %v", err)
	}
	return notifications
}
