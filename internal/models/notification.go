package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// Notification is owned strictly by its recipient; only the recipient can
// read, mark or delete it.
type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      NotificationType `gorm:"type:varchar(20);not null;default:'info'" json:"type"`
	Title     string           `gorm:"not null;size:200" json:"title"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	ReportID  *uuid.UUID       `gorm:"type:uuid;index" json:"report_id,omitempty"`
	IsRead    bool             `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
	User      User             `gorm:"foreignKey:UserID" json:"-"`
}
