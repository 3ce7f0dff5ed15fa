package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is append-only discussion on an item report.
type Comment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ReportID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"report_id"`
	AuthorID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"author_id"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	Report    ItemReport `gorm:"foreignKey:ReportID" json:"-"`
	Author    User       `gorm:"foreignKey:AuthorID" json:"-"`
}
