package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RewardStatus moves forward only: created → payment_initiated → completed|failed.
// Terminal states are only ever reached via the gateway callback or the
// reconciliation job, never by direct user action.
type RewardStatus string

const (
	RewardCreated          RewardStatus = "created"
	RewardPaymentInitiated RewardStatus = "payment_initiated"
	RewardCompleted        RewardStatus = "completed"
	RewardFailed           RewardStatus = "failed"
)

func (s RewardStatus) Terminal() bool {
	return s == RewardCompleted || s == RewardFailed
}

// CanTransitionTo enforces the forward-only reward state machine.
func (s RewardStatus) CanTransitionTo(next RewardStatus) bool {
	switch s {
	case RewardCreated:
		return next == RewardPaymentInitiated || next == RewardFailed
	case RewardPaymentInitiated:
		return next == RewardCompleted || next == RewardFailed
	}
	return false
}

// Reward is an M-Pesa incentive offered by a report owner to the finder.
// CallbackPayload keeps the raw gateway callback body for auditing.
type Reward struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ReportID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"report_id"`
	OwnerID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	FinderID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"finder_id"`
	Amount          float64        `gorm:"not null" json:"amount"`
	PhoneNumber     string         `gorm:"size:20;not null" json:"phone_number"`
	Status          RewardStatus   `gorm:"type:varchar(30);not null;default:'created';index" json:"status"`
	TransactionRef  *string        `gorm:"size:100;uniqueIndex" json:"transaction_ref,omitempty"`
	CheckoutID      string         `gorm:"size:100;index" json:"-"`
	FailureReason   string         `gorm:"size:500" json:"failure_reason,omitempty"`
	CallbackPayload datatypes.JSON `gorm:"type:jsonb" json:"-"`
	InitiatedAt     *time.Time     `json:"initiated_at,omitempty"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Report          ItemReport     `gorm:"foreignKey:ReportID" json:"-"`
	Owner           User           `gorm:"foreignKey:OwnerID" json:"-"`
	Finder          User           `gorm:"foreignKey:FinderID" json:"-"`
}
