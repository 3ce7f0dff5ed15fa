package models

import (
	"time"

	"github.com/google/uuid"
)

type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "pending"
	ClaimApproved ClaimStatus = "approved"
	ClaimRejected ClaimStatus = "rejected"
)

func (s ClaimStatus) Terminal() bool {
	return s == ClaimApproved || s == ClaimRejected
}

// Claim asserts that an approved ItemReport belongs to the claimant. A report
// has at most one approved claim; approving one rejects its pending siblings.
type Claim struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ReportID      uuid.UUID   `gorm:"type:uuid;not null;index" json:"report_id"`
	ClaimantID    uuid.UUID   `gorm:"type:uuid;not null;index" json:"claimant_id"`
	Justification string      `gorm:"type:text;not null" json:"justification"`
	Contact       string      `gorm:"size:200;not null" json:"contact"`
	Status        ClaimStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ModeratedBy   *uuid.UUID  `gorm:"type:uuid" json:"moderated_by,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	Report        ItemReport  `gorm:"foreignKey:ReportID" json:"-"`
	Claimant      User        `gorm:"foreignKey:ClaimantID" json:"-"`
}
