package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/campusfind/campusfind-backend/internal/apperr"
	"github.com/campusfind/campusfind-backend/internal/lifecycle"
	"github.com/campusfind/campusfind-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommentService handles append-only discussion on reports.
type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

func (s *CommentService) Create(reportID uuid.UUID, actor lifecycle.Actor, content string) (*models.Comment, error) {
	if !actor.Known() {
		return nil, apperr.Unauthorized("author identity required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("content", "comment content is required")
	}

	var report models.ItemReport
	if err := s.db.First(&report, "id = ?", reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("report")
		}
		return nil, err
	}

	comment := models.Comment{
		ID:       uuid.New(),
		ReportID: reportID,
		AuthorID: actor.ID,
		Content:  content,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return &comment, nil
}

func (s *CommentService) ListByReport(reportID uuid.UUID) ([]models.Comment, error) {
	var comments []models.Comment
	if err := s.db.Order("created_at ASC").Find(&comments, "report_id = ?", reportID).Error; err != nil {
		return nil, err
	}
	return comments, nil
}
