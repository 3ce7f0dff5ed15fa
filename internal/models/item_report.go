package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportStatus is the moderation state of an item report. `approved` and
// `rejected` are terminal for moderation; an approved report still accepts
// claims and rewards.
type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportApproved ReportStatus = "approved"
	ReportRejected ReportStatus = "rejected"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportPending, ReportApproved, ReportRejected:
		return true
	}
	return false
}

// Terminal reports true once a report has been moderated.
func (s ReportStatus) Terminal() bool {
	return s == ReportApproved || s == ReportRejected
}

// Disposition says whether the reporter lost the item or found it.
type Disposition string

const (
	DispositionLost  Disposition = "lost"
	DispositionFound Disposition = "found"
)

func (d Disposition) Valid() bool {
	return d == DispositionLost || d == DispositionFound
}

type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryDocuments   Category = "documents"
	CategoryClothing    Category = "clothing"
	CategoryAccessories Category = "accessories"
	CategoryBooks       Category = "books"
	CategoryOther       Category = "other"
)

var Categories = []Category{
	CategoryElectronics, CategoryDocuments, CategoryClothing,
	CategoryAccessories, CategoryBooks, CategoryOther,
}

func (c Category) Valid() bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// ItemReport is a lost/found submission. Reports are never hard-deleted by the
// lifecycle; moderation only moves Status forward.
type ItemReport struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string         `gorm:"not null;size:150" json:"title"`
	Description    string         `gorm:"type:text;not null" json:"description"`
	Category       Category       `gorm:"type:varchar(50);not null;index" json:"category"`
	Disposition    Disposition    `gorm:"type:varchar(10);not null;index" json:"disposition"`
	Location       string         `gorm:"size:200" json:"location"`
	ImageURL       string         `gorm:"size:500" json:"image_url,omitempty"`
	Status         ReportStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ReporterID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"reporter_id"`
	ModeratedBy    *uuid.UUID     `gorm:"type:uuid" json:"moderated_by,omitempty"`
	ModerationNote string         `gorm:"size:500" json:"moderation_note,omitempty"`
	ClaimedBy      *uuid.UUID     `gorm:"type:uuid" json:"claimed_by,omitempty"`
	ClaimedAt      *time.Time     `json:"claimed_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	Reporter       User           `gorm:"foreignKey:ReporterID" json:"-"`
}
