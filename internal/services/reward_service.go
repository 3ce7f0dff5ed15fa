package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/campusfind/campusfind-backend/internal/apperr"
	"github.com/campusfind/campusfind-backend/internal/dto"
	"github.com/campusfind/campusfind-backend/internal/lifecycle"
	"github.com/campusfind/campusfind-backend/internal/models"
	"github.com/campusfind/campusfind-backend/internal/mpesa"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Kenyan mobile-money numbers: 254 prefix, then a 7xx or 1xx network code.
var mpesaPhonePattern = regexp.MustCompile(`^254[17]\d{8}$`)

// RewardService owns the payment sub-lifecycle:
// created → payment_initiated → completed | failed.
// Terminal states are reached only through HandleGatewayCallback, which both
// the webhook and the reconciliation job go through.
type RewardService struct {
	db         *gorm.DB
	gateway    mpesa.Gateway
	dispatcher lifecycle.Dispatcher
}

func NewRewardService(db *gorm.DB, gateway mpesa.Gateway, dispatcher lifecycle.Dispatcher) *RewardService {
	return &RewardService{db: db, gateway: gateway, dispatcher: dispatcher}
}

// Create offers a reward on an approved report. Only the report owner may
// offer one, and only to somebody else.
func (s *RewardService) Create(reportID uuid.UUID, actor lifecycle.Actor, req *dto.CreateRewardRequest) (*models.Reward, error) {
	if !actor.Known() {
		return nil, apperr.Unauthorized("owner identity required")
	}
	if req.Amount <= 0 {
		return nil, apperr.Validation("amount", "amount must be greater than zero")
	}
	if !mpesaPhonePattern.MatchString(req.PhoneNumber) {
		return nil, apperr.Validation("phone_number", "phone must match the Kenyan mobile-money format 254XXXXXXXXX")
	}
	if req.FinderID == uuid.Nil {
		return nil, apperr.Validation("finder_id", "finder is required")
	}
	if req.FinderID == actor.ID {
		return nil, apperr.Validation("finder_id", "finder cannot be the report owner")
	}

	var report models.ItemReport
	if err := s.db.First(&report, "id = ?", reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("report")
		}
		return nil, err
	}
	if report.ReporterID != actor.ID {
		return nil, apperr.Forbidden("only the report owner may offer a reward")
	}
	if report.Status != models.ReportApproved {
		return nil, apperr.State("report", string(report.Status), "rewards require an approved report")
	}

	var finder models.User
	if err := s.db.First(&finder, "id = ?", req.FinderID).Error; err != nil {
		return nil, apperr.NotFound("finder")
	}

	reward := models.Reward{
		ID:          uuid.New(),
		ReportID:    reportID,
		OwnerID:     actor.ID,
		FinderID:    req.FinderID,
		Amount:      req.Amount,
		PhoneNumber: req.PhoneNumber,
		Status:      models.RewardCreated,
	}
	if err := s.db.Create(&reward).Error; err != nil {
		return nil, fmt.Errorf("failed to create reward: %w", err)
	}
	return &reward, nil
}

// InitiatePayment hands the reward to the gateway via STK push. A synchronous
// gateway failure leaves the reward in `created` so the owner can retry; only
// a successful hand-off advances it to `payment_initiated`.
func (s *RewardService) InitiatePayment(ctx context.Context, rewardID uuid.UUID, actor lifecycle.Actor) (*models.Reward, error) {
	if !actor.Known() {
		return nil, apperr.Unauthorized("owner identity required")
	}

	var reward models.Reward
	if err := s.db.First(&reward, "id = ?", rewardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("reward")
		}
		return nil, err
	}
	if reward.OwnerID != actor.ID {
		return nil, apperr.Forbidden("only the reward owner may initiate payment")
	}
	if reward.Status != models.RewardCreated {
		return nil, apperr.State("reward", string(reward.Status),
			fmt.Sprintf("payment already %s", reward.Status))
	}

	result, err := s.gateway.InitiateSTKPush(ctx, mpesa.STKPushRequest{
		Amount:      reward.Amount,
		PhoneNumber: reward.PhoneNumber,
		AccountRef:  "REWARD-" + reward.ID.String(),
		Description: "CampusFind reward for report " + reward.ReportID.String(),
	})
	if err != nil {
		return nil, apperr.Gateway("stk push", err)
	}

	now := time.Now()
	update := s.db.Model(&models.Reward{}).
		Where("id = ? AND status = ?", reward.ID, models.RewardCreated).
		Updates(map[string]interface{}{
			"status":       models.RewardPaymentInitiated,
			"checkout_id":  result.CheckoutID,
			"initiated_at": now,
		})
	if update.Error != nil {
		return nil, update.Error
	}
	if update.RowsAffected == 0 {
		// Lost a race with another initiation of the same reward.
		s.db.First(&reward, "id = ?", reward.ID)
		return nil, apperr.State("reward", string(reward.Status),
			fmt.Sprintf("payment already %s", reward.Status))
	}

	reward.Status = models.RewardPaymentInitiated
	reward.CheckoutID = result.CheckoutID
	reward.InitiatedAt = &now
	return &reward, nil
}

// HandleGatewayCallback resolves a payment_initiated reward to its terminal
// state. Duplicate deliveries with the same outcome are no-ops: the state
// check in the UPDATE guarantees at most one transition, so at most one pair
// of notifications.
func (s *RewardService) HandleGatewayCallback(rewardID uuid.UUID, success bool, transactionRef, resultDesc string, rawPayload []byte) (*models.Reward, error) {
	var reward models.Reward
	if err := s.db.First(&reward, "id = ?", rewardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("reward")
		}
		return nil, err
	}

	next := models.RewardFailed
	if success {
		next = models.RewardCompleted
	}

	if reward.Status.Terminal() {
		if reward.Status == next {
			// Duplicate webhook delivery.
			return &reward, nil
		}
		return nil, apperr.State("reward", string(reward.Status),
			fmt.Sprintf("reward already resolved as %s", reward.Status))
	}

	updates := map[string]interface{}{
		"status": next,
	}
	if transactionRef != "" {
		updates["transaction_ref"] = transactionRef
	}
	if len(rawPayload) > 0 {
		updates["callback_payload"] = datatypes.JSON(rawPayload)
	}
	if success {
		updates["completed_at"] = time.Now()
	} else {
		updates["failure_reason"] = resultDesc
	}

	update := s.db.Model(&models.Reward{}).
		Where("id = ? AND status = ?", reward.ID, models.RewardPaymentInitiated).
		Updates(updates)
	if update.Error != nil {
		return nil, update.Error
	}
	if update.RowsAffected == 0 {
		s.db.First(&reward, "id = ?", reward.ID)
		if reward.Status == next {
			return &reward, nil
		}
		return nil, apperr.State("reward", string(reward.Status),
			fmt.Sprintf("reward is %s, expected payment_initiated", reward.Status))
	}

	if err := s.db.First(&reward, "id = ?", reward.ID).Error; err != nil {
		return nil, err
	}

	eventType := lifecycle.EventRewardFailed
	if success {
		eventType = lifecycle.EventRewardComplete
	}
	var report models.ItemReport
	if err := s.db.First(&report, "id = ?", reward.ReportID).Error; err == nil {
		s.emit(lifecycle.Event{Type: eventType, Report: &report, Reward: &reward, Reason: resultDesc})
	} else {
		s.emit(lifecycle.Event{Type: eventType, Reward: &reward, Reason: resultDesc})
	}

	return &reward, nil
}

// ListForUser returns rewards the user offered and rewards offered to them.
func (s *RewardService) ListForUser(userID uuid.UUID) (given, received []models.Reward, err error) {
	if err = s.db.Order("created_at DESC").Find(&given, "owner_id = ?", userID).Error; err != nil {
		return nil, nil, err
	}
	if err = s.db.Order("created_at DESC").Find(&received, "finder_id = ?", userID).Error; err != nil {
		return nil, nil, err
	}
	return given, received, nil
}

// StalePayments returns rewards stuck in payment_initiated since before the
// cutoff. Used by the reconciliation job.
func (s *RewardService) StalePayments(cutoff time.Time, limit int) ([]models.Reward, error) {
	if limit <= 0 {
		limit = 100
	}
	var rewards []models.Reward
	err := s.db.
		Where("status = ? AND initiated_at < ?", models.RewardPaymentInitiated, cutoff).
		Order("initiated_at ASC").
		Limit(limit).
		Find(&rewards).Error
	if err != nil {
		return nil, err
	}
	return rewards, nil
}

func (s *RewardService) emit(event lifecycle.Event) {
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(event)
	}
}
