package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campusfind/campusfind-backend/internal/apperr"
	"github.com/campusfind/campusfind-backend/internal/dto"
	"github.com/campusfind/campusfind-backend/internal/lifecycle"
	"github.com/campusfind/campusfind-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClaimService manages claims against approved reports. New claims stay
// `pending` for moderator discretion; approving one claim rejects all its
// pending siblings so a report ends up with at most one approved claim.
type ClaimService struct {
	db         *gorm.DB
	dispatcher lifecycle.Dispatcher
}

func NewClaimService(db *gorm.DB, dispatcher lifecycle.Dispatcher) *ClaimService {
	return &ClaimService{db: db, dispatcher: dispatcher}
}

func (s *ClaimService) Create(reportID uuid.UUID, actor lifecycle.Actor, req *dto.CreateClaimRequest) (*models.Claim, error) {
	if !actor.Known() {
		return nil, apperr.Unauthorized("claimant identity required")
	}
	if strings.TrimSpace(req.Justification) == "" {
		return nil, apperr.Validation("justification", "justification is required")
	}
	if strings.TrimSpace(req.Contact) == "" {
		return nil, apperr.Validation("contact", "contact info is required")
	}

	var report models.ItemReport
	if err := s.db.First(&report, "id = ?", reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("report")
		}
		return nil, err
	}
	if report.Status != models.ReportApproved {
		return nil, apperr.State("report", string(report.Status), "claims require an approved report")
	}

	claim := models.Claim{
		ID:            uuid.New(),
		ReportID:      reportID,
		ClaimantID:    actor.ID,
		Justification: req.Justification,
		Contact:       req.Contact,
		Status:        models.ClaimPending,
	}

	if err := s.db.Create(&claim).Error; err != nil {
		return nil, fmt.Errorf("failed to create claim: %w", err)
	}
	return &claim, nil
}

// Approve transitions a claim to approved, stamps the report as claimed by
// the claimant, and auto-rejects the report's other pending claims. All three
// writes share one transaction.
func (s *ClaimService) Approve(claimID uuid.UUID, moderator lifecycle.Actor) (*models.Claim, error) {
	if !moderator.Known() {
		return nil, apperr.Unauthorized("moderator identity required")
	}
	if !moderator.IsModerator() {
		return nil, apperr.Forbidden("moderator role required")
	}

	var claim models.Claim
	var siblings []models.Claim

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Claim{}).
			Where("id = ? AND status = ?", claimID, models.ClaimPending).
			Updates(map[string]interface{}{
				"status":       models.ClaimApproved,
				"moderated_by": moderator.ID,
			})
		if result.Error != nil {
			return result.Error
		}

		if err := tx.First(&claim, "id = ?", claimID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("claim")
			}
			return err
		}
		if result.RowsAffected == 0 {
			return apperr.State("claim", string(claim.Status),
				fmt.Sprintf("claim is already %s", claim.Status))
		}

		if err := tx.Find(&siblings, "report_id = ? AND id <> ? AND status = ?",
			claim.ReportID, claim.ID, models.ClaimPending).Error; err != nil {
			return err
		}
		if len(siblings) > 0 {
			if err := tx.Model(&models.Claim{}).
				Where("report_id = ? AND id <> ? AND status = ?", claim.ReportID, claim.ID, models.ClaimPending).
				Updates(map[string]interface{}{
					"status":       models.ClaimRejected,
					"moderated_by": moderator.ID,
				}).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		return tx.Model(&models.ItemReport{}).
			Where("id = ?", claim.ReportID).
			Updates(map[string]interface{}{
				"claimed_by": claim.ClaimantID,
				"claimed_at": now,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	var report models.ItemReport
	if err := s.db.First(&report, "id = ?", claim.ReportID).Error; err == nil {
		s.emit(lifecycle.Event{Type: lifecycle.EventClaimApproved, Report: &report, Claim: &claim})
		for i := range siblings {
			siblings[i].Status = models.ClaimRejected
			s.emit(lifecycle.Event{
				Type:   lifecycle.EventClaimRejected,
				Report: &report,
				Claim:  &siblings[i],
				Reason: "another claim was approved",
			})
		}
	}

	return &claim, nil
}

func (s *ClaimService) Reject(claimID uuid.UUID, moderator lifecycle.Actor, reason string) (*models.Claim, error) {
	if !moderator.Known() {
		return nil, apperr.Unauthorized("moderator identity required")
	}
	if !moderator.IsModerator() {
		return nil, apperr.Forbidden("moderator role required")
	}

	result := s.db.Model(&models.Claim{}).
		Where("id = ? AND status = ?", claimID, models.ClaimPending).
		Updates(map[string]interface{}{
			"status":       models.ClaimRejected,
			"moderated_by": moderator.ID,
		})
	if result.Error != nil {
		return nil, result.Error
	}

	var claim models.Claim
	if err := s.db.First(&claim, "id = ?", claimID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("claim")
		}
		return nil, err
	}
	if result.RowsAffected == 0 {
		return nil, apperr.State("claim", string(claim.Status),
			fmt.Sprintf("claim is already %s", claim.Status))
	}

	var report models.ItemReport
	if err := s.db.First(&report, "id = ?", claim.ReportID).Error; err == nil {
		s.emit(lifecycle.Event{Type: lifecycle.EventClaimRejected, Report: &report, Claim: &claim, Reason: reason})
	}

	return &claim, nil
}

// ListByReport returns a report's claims, moderator-only.
func (s *ClaimService) ListByReport(reportID uuid.UUID, moderator lifecycle.Actor) ([]models.Claim, error) {
	if !moderator.IsModerator() {
		return nil, apperr.Forbidden("moderator role required")
	}
	var claims []models.Claim
	if err := s.db.Order("created_at ASC").Find(&claims, "report_id = ?", reportID).Error; err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *ClaimService) emit(event lifecycle.Event) {
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(event)
	}
}
