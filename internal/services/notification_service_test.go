package services

import (
	"errors"
	"testing"

	"github.com/campusfind/campusfind-backend/internal/apperr"
	"github.com/campusfind/campusfind-backend/internal/lifecycle"
	"github.com/campusfind/campusfind-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestBuildNotificationsMapping(t *testing.T) {
	reporter := uuid.New()
	claimant := uuid.New()
	owner := uuid.New()
	finder := uuid.New()

	report := &models.ItemReport{ID: uuid.New(), ReporterID: reporter, Title: "Black Backpack"}
	claim := &models.Claim{ID: uuid.New(), ClaimantID: claimant}
	reward := &models.Reward{ID: uuid.New(), OwnerID: owner, FinderID: finder, Amount: 500}

	tests := []struct {
		name       string
		event      lifecycle.Event
		recipients []uuid.UUID
		types      []models.NotificationType
	}{
		{
			"report approved notifies reporter",
			lifecycle.Event{Type: lifecycle.EventReportApproved, Report: report},
			[]uuid.UUID{reporter},
			[]models.NotificationType{models.NotificationSuccess},
		},
		{
			"report rejected notifies reporter",
			lifecycle.Event{Type: lifecycle.EventReportRejected, Report: report, Reason: "spam"},
			[]uuid.UUID{reporter},
			[]models.NotificationType{models.NotificationError},
		},
		{
			"claim approved notifies claimant",
			lifecycle.Event{Type: lifecycle.EventClaimApproved, Report: report, Claim: claim},
			[]uuid.UUID{claimant},
			[]models.NotificationType{models.NotificationSuccess},
		},
		{
			"claim rejected notifies claimant",
			lifecycle.Event{Type: lifecycle.EventClaimRejected, Report: report, Claim: claim},
			[]uuid.UUID{claimant},
			[]models.NotificationType{models.NotificationError},
		},
		{
			"reward completed notifies finder and owner",
			lifecycle.Event{Type: lifecycle.EventRewardComplete, Report: report, Reward: reward},
			[]uuid.UUID{finder, owner},
			[]models.NotificationType{models.NotificationSuccess, models.NotificationSuccess},
		},
		{
			"reward failed notifies finder and owner",
			lifecycle.Event{Type: lifecycle.EventRewardFailed, Report: report, Reward: reward, Reason: "Timeout"},
			[]uuid.UUID{finder, owner},
			[]models.NotificationType{models.NotificationError, models.NotificationError},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildNotifications(tt.event)
			if len(got) != len(tt.recipients) {
				t.Fatalf("expected %d notifications, got %d", len(tt.recipients), len(got))
			}
			for i, n := range got {
				if n.UserID != tt.recipients[i] {
					t.Errorf("notification %d: wrong recipient %s", i, n.UserID)
				}
				if n.Type != tt.types[i] {
					t.Errorf("notification %d: expected type %s, got %s", i, tt.types[i], n.Type)
				}
				if n.Title == "" || n.Message == "" {
					t.Errorf("notification %d: title and message must be set", i)
				}
				if n.ReportID == nil || *n.ReportID != report.ID {
					t.Errorf("notification %d: report reference missing", i)
				}
			}
		})
	}
}

func TestBuildNotificationsDropsIncompleteEvents(t *testing.T) {
	if got := buildNotifications(lifecycle.Event{Type: lifecycle.EventReportApproved}); got != nil {
		t.Fatalf("event without report should produce nothing, got %d", len(got))
	}
	if got := buildNotifications(lifecycle.Event{Type: lifecycle.EventType("unknown")}); got != nil {
		t.Fatalf("unknown event should produce nothing, got %d", len(got))
	}
}

func TestNotificationRejectionReasonInMessage(t *testing.T) {
	report := &models.ItemReport{ID: uuid.New(), ReporterID: uuid.New(), Title: "Black Backpack"}
	got := buildNotifications(lifecycle.Event{
		Type: lifecycle.EventReportRejected, Report: report, Reason: "duplicate listing",
	})
	if len(got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(got))
	}
	if want := `Your report "Black Backpack" was rejected: duplicate listing`; got[0].Message != want {
		t.Fatalf("message = %q, want %q", got[0].Message, want)
	}
}

func seedNotifications(t *testing.T, db *gorm.DB, userID uuid.UUID, count int) []models.Notification {
	t.Helper()
	out := make([]models.Notification, 0, count)
	for i := 0; i < count; i++ {
		n := newNotification(userID, models.NotificationInfo, "Heads up", "Something happened", nil)
		if err := db.Create(&n).Error; err != nil {
			t.Fatalf("failed to seed notification: %v", err)
		}
		out = append(out, n)
	}
	return out
}

func TestListAndUnreadCount(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db)
	user := createUser(t, db, "wanjiku", models.RoleUser)
	other := createUser(t, db, "otieno", models.RoleUser)

	seedNotifications(t, db, user.ID, 3)
	seedNotifications(t, db, other.ID, 2)

	list, err := svc.List(user.ID, false, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(list))
	}

	count, err := svc.UnreadCount(user.ID)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 unread, got %d", count)
	}
}

func TestMarkReadOwnershipAndIdempotency(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db)
	user := createUser(t, db, "wanjiku", models.RoleUser)
	other := createUser(t, db, "otieno", models.RoleUser)
	seeded := seedNotifications(t, db, user.ID, 1)

	_, err := svc.MarkRead(seeded[0].ID, other.ID)
	var authErr *apperr.AuthError
	if !errors.As(err, &authErr) || !authErr.Forbidden {
		t.Fatalf("expected forbidden AuthError for non-recipient, got %v", err)
	}

	marked, err := svc.MarkRead(seeded[0].ID, user.ID)
	if err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	if !marked.IsRead {
		t.Fatal("notification should be read")
	}

	// Marking again is a no-op, not an error.
	if _, err := svc.MarkRead(seeded[0].ID, user.ID); err != nil {
		t.Fatalf("repeat mark read should succeed: %v", err)
	}

	_, err = svc.MarkRead(uuid.New(), user.ID)
	var notFoundErr *apperr.NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db)
	user := createUser(t, db, "wanjiku", models.RoleUser)
	seeded := seedNotifications(t, db, user.ID, 4)

	if _, err := svc.MarkRead(seeded[0].ID, user.ID); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}

	flipped, err := svc.MarkAllRead(user.ID)
	if err != nil {
		t.Fatalf("mark all read failed: %v", err)
	}
	if flipped != 3 {
		t.Fatalf("expected 3 flipped, got %d", flipped)
	}

	count, err := svc.UnreadCount(user.ID)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 unread after mark all, got %d", count)
	}
}

func TestDeleteNotification(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db)
	user := createUser(t, db, "wanjiku", models.RoleUser)
	other := createUser(t, db, "otieno", models.RoleUser)
	seeded := seedNotifications(t, db, user.ID, 1)

	err := svc.Delete(seeded[0].ID, other.ID)
	var authErr *apperr.AuthError
	if !errors.As(err, &authErr) || !authErr.Forbidden {
		t.Fatalf("expected forbidden AuthError, got %v", err)
	}

	if err := svc.Delete(seeded[0].ID, user.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := svc.Delete(seeded[0].ID, user.ID); !errors.As(err, new(*apperr.NotFoundError)) {
		t.Fatalf("expected NotFoundError after delete, got %v", err)
	}
}
