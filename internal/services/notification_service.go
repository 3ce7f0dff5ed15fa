package services

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/campusfind/campusfind-backend/internal/apperr"
	"github.com/campusfind/campusfind-backend/internal/lifecycle"
	"github.com/campusfind/campusfind-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationService turns lifecycle events into stored notifications and
// serves the recipient-facing queries. Dispatch is best-effort: a failed
// insert is logged and dropped, never retried, and never fails the
// transition that produced the event.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

var _ lifecycle.Dispatcher = (*NotificationService)(nil)

// Dispatch maps an event to its recipients. Report events notify the
// reporter, claim events the claimant, reward events both finder and owner.
func (s *NotificationService) Dispatch(event lifecycle.Event) {
	for _, n := range buildNotifications(event) {
		if err := s.db.Create(&n).Error; err != nil {
			slog.Error("notification dispatch failed",
				"event", string(event.Type), "recipient", n.UserID.String(), "error", err)
		}
	}
}

func buildNotifications(event lifecycle.Event) []models.Notification {
	var reportID *uuid.UUID
	title := ""
	if event.Report != nil {
		id := event.Report.ID
		reportID = &id
		title = event.Report.Title
	}

	switch event.Type {
	case lifecycle.EventReportApproved:
		if event.Report == nil {
			return nil
		}
		return []models.Notification{newNotification(
			event.Report.ReporterID, models.NotificationSuccess, "Report Approved",
			fmt.Sprintf("Your report %q has been approved and is now visible to everyone.", title),
			reportID,
		)}

	case lifecycle.EventReportRejected:
		if event.Report == nil {
			return nil
		}
		msg := fmt.Sprintf("Your report %q was rejected.", title)
		if event.Reason != "" {
			msg = fmt.Sprintf("Your report %q was rejected: %s", title, event.Reason)
		}
		return []models.Notification{newNotification(
			event.Report.ReporterID, models.NotificationError, "Report Rejected", msg, reportID,
		)}

	case lifecycle.EventClaimApproved:
		if event.Claim == nil {
			return nil
		}
		return []models.Notification{newNotification(
			event.Claim.ClaimantID, models.NotificationSuccess, "Claim Approved",
			fmt.Sprintf("Your claim on %q has been approved. Arrange pickup with the reporter.", title),
			reportID,
		)}

	case lifecycle.EventClaimRejected:
		if event.Claim == nil {
			return nil
		}
		msg := fmt.Sprintf("Your claim on %q was rejected.", title)
		if event.Reason != "" {
			msg = fmt.Sprintf("Your claim on %q was rejected: %s", title, event.Reason)
		}
		return []models.Notification{newNotification(
			event.Claim.ClaimantID, models.NotificationError, "Claim Rejected", msg, reportID,
		)}

	case lifecycle.EventRewardComplete:
		if event.Reward == nil {
			return nil
		}
		return []models.Notification{
			newNotification(event.Reward.FinderID, models.NotificationSuccess, "Reward Payment Received",
				fmt.Sprintf("A reward of KES %.2f has been paid to you.", event.Reward.Amount), reportID),
			newNotification(event.Reward.OwnerID, models.NotificationSuccess, "Reward Payment Sent",
				fmt.Sprintf("Your reward payment of KES %.2f completed successfully.", event.Reward.Amount), reportID),
		}

	case lifecycle.EventRewardFailed:
		if event.Reward == nil {
			return nil
		}
		msg := fmt.Sprintf("The reward payment of KES %.2f failed.", event.Reward.Amount)
		if event.Reason != "" {
			msg = fmt.Sprintf("The reward payment of KES %.2f failed: %s", event.Reward.Amount, event.Reason)
		}
		return []models.Notification{
			newNotification(event.Reward.FinderID, models.NotificationError, "Reward Payment Failed", msg, reportID),
			newNotification(event.Reward.OwnerID, models.NotificationError, "Reward Payment Failed", msg, reportID),
		}
	}

	slog.Warn("unhandled lifecycle event dropped", "event", string(event.Type))
	return nil
}

func newNotification(userID uuid.UUID, typ models.NotificationType, title, message string, reportID *uuid.UUID) models.Notification {
	return models.Notification{
		ID:       uuid.New(),
		UserID:   userID,
		Type:     typ,
		Title:    title,
		Message:  message,
		ReportID: reportID,
	}
}

// List returns the actor's notifications, newest first.
func (s *NotificationService) List(actor uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := s.db.Where("user_id = ?", actor)
	if unreadOnly {
		query = query.Where("is_read = false")
	}
	var notifications []models.Notification
	if err := query.Order("created_at DESC").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *NotificationService) UnreadCount(actor uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = false", actor).
		Count(&count).Error
	return count, err
}

// MarkRead is idempotent; marking a read notification again is a no-op.
func (s *NotificationService) MarkRead(notificationID, actor uuid.UUID) (*models.Notification, error) {
	var notification models.Notification
	if err := s.db.First(&notification, "id = ?", notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("notification")
		}
		return nil, err
	}
	if notification.UserID != actor {
		return nil, apperr.Forbidden("notifications are visible only to their recipient")
	}

	if !notification.IsRead {
		if err := s.db.Model(&notification).Update("is_read", true).Error; err != nil {
			return nil, err
		}
		notification.IsRead = true
	}
	return &notification, nil
}

// MarkAllRead returns the number of notifications flipped.
func (s *NotificationService) MarkAllRead(actor uuid.UUID) (int64, error) {
	result := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = false", actor).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

func (s *NotificationService) Delete(notificationID, actor uuid.UUID) error {
	var notification models.Notification
	if err := s.db.First(&notification, "id = ?", notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("notification")
		}
		return err
	}
	if notification.UserID != actor {
		return apperr.Forbidden("notifications are visible only to their recipient")
	}
	return s.db.Delete(&notification).Error
}
