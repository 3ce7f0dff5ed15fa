package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/campusfind/campusfind-backend/internal/apperr"
	"github.com/campusfind/campusfind-backend/internal/dto"
	"github.com/campusfind/campusfind-backend/internal/lifecycle"
	"github.com/campusfind/campusfind-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportService owns the item-report moderation state machine:
// pending → approved | rejected, moderator-only, forward-only.
type ReportService struct {
	db         *gorm.DB
	dispatcher lifecycle.Dispatcher
}

func NewReportService(db *gorm.DB, dispatcher lifecycle.Dispatcher) *ReportService {
	return &ReportService{db: db, dispatcher: dispatcher}
}

// Submit creates a report in `pending`. Required fields follow the report
// form: title, description, category, disposition.
func (s *ReportService) Submit(actor lifecycle.Actor, req *dto.SubmitReportRequest) (*models.ItemReport, error) {
	if !actor.Known() {
		return nil, apperr.Unauthorized("reporter identity required")
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, apperr.Validation("title", "title is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, apperr.Validation("description", "description is required")
	}
	category := models.Category(req.Category)
	if !category.Valid() {
		return nil, apperr.Validation("category", "category must be one of electronics, documents, clothing, accessories, books, other")
	}
	disposition := models.Disposition(req.Disposition)
	if !disposition.Valid() {
		return nil, apperr.Validation("disposition", "disposition must be lost or found")
	}

	report := models.ItemReport{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Category:    category,
		Disposition: disposition,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
		Status:      models.ReportPending,
		ReporterID:  actor.ID,
	}

	if err := s.db.Create(&report).Error; err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return &report, nil
}

func (s *ReportService) Approve(reportID uuid.UUID, moderator lifecycle.Actor) (*models.ItemReport, error) {
	return s.moderate(reportID, moderator, models.ReportApproved, "")
}

func (s *ReportService) Reject(reportID uuid.UUID, moderator lifecycle.Actor, reason string) (*models.ItemReport, error) {
	return s.moderate(reportID, moderator, models.ReportRejected, reason)
}

// moderate performs the pending → approved/rejected transition. The state
// check rides in the UPDATE's WHERE clause so concurrent moderators cannot
// both win.
func (s *ReportService) moderate(reportID uuid.UUID, moderator lifecycle.Actor, next models.ReportStatus, reason string) (*models.ItemReport, error) {
	if !moderator.Known() {
		return nil, apperr.Unauthorized("moderator identity required")
	}
	if !moderator.IsModerator() {
		return nil, apperr.Forbidden("moderator role required")
	}

	result := s.db.Model(&models.ItemReport{}).
		Where("id = ? AND status = ?", reportID, models.ReportPending).
		Updates(map[string]interface{}{
			"status":          next,
			"moderated_by":    moderator.ID,
			"moderation_note": reason,
		})
	if result.Error != nil {
		return nil, result.Error
	}

	var report models.ItemReport
	if err := s.db.First(&report, "id = ?", reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("report")
		}
		return nil, err
	}

	if result.RowsAffected == 0 {
		return nil, apperr.State("report", string(report.Status),
			fmt.Sprintf("report is already %s", report.Status))
	}

	eventType := lifecycle.EventReportApproved
	if next == models.ReportRejected {
		eventType = lifecycle.EventReportRejected
	}
	s.emit(lifecycle.Event{Type: eventType, Report: &report, Reason: reason})

	return &report, nil
}

// Get returns a report by id.
func (s *ReportService) Get(reportID uuid.UUID) (*models.ItemReport, error) {
	var report models.ItemReport
	if err := s.db.First(&report, "id = ?", reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("report")
		}
		return nil, err
	}
	return &report, nil
}

// List returns the public feed of approved reports, optionally filtered, or
// the moderation queue when status is given and the actor is a moderator.
func (s *ReportService) List(actor lifecycle.Actor, status models.ReportStatus, category models.Category, disposition models.Disposition, limit, offset int) ([]models.ItemReport, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := s.db.Model(&models.ItemReport{})
	if status != "" && status != models.ReportApproved {
		if !actor.IsModerator() {
			return nil, 0, apperr.Forbidden("moderator role required to view unapproved reports")
		}
		query = query.Where("status = ?", status)
	} else {
		query = query.Where("status = ?", models.ReportApproved)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if disposition != "" {
		query = query.Where("disposition = ?", disposition)
	}

	var total int64
	query.Count(&total)

	var reports []models.ItemReport
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (s *ReportService) emit(event lifecycle.Event) {
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(event)
	}
}
