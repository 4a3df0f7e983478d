package db

import (
	"time"

	"gorm.io/gorm"
)

type userModel struct {
	ID                   uint   `gorm:"primaryKey"`
	TelegramUserID       int64  `gorm:"uniqueIndex;not null"`
	Username             string `gorm:""`
	NotificationsGranted bool   `gorm:"not null;default:false"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
	DeletedAt            gorm.DeletedAt `gorm:"index"`
}

func (userModel) TableName() string { return "users" }

type alertModel struct {
	ID              uint   `gorm:"primaryKey"`
	OwnerID         uint   `gorm:"index:idx_alerts_owner_status,priority:1;not null"`
	Symbol          string `gorm:"size:32;not null"`
	Venue           string `gorm:"size:16;not null"`
	Condition       string `gorm:"size:8;not null"`
	Target          string `gorm:"not null"`
	Status          string `gorm:"size:16;index:idx_alerts_owner_status,priority:2;not null"`
	TriggerLimit    int    `gorm:"not null;default:0"`
	CooldownSeconds int    `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (alertModel) TableName() string { return "alerts" }

// triggerEventModel rows are append-only.
type triggerEventModel struct {
	ID          uint      `gorm:"primaryKey"`
	AlertID     uint      `gorm:"index;not null"`
	Message     string    `gorm:"not null"`
	TriggeredAt time.Time `gorm:"index;not null"`
}

func (triggerEventModel) TableName() string { return "trigger_events" }

type notificationModel struct {
	ID              string `gorm:"primaryKey;size:36"`
	RecipientID     uint   `gorm:"index:idx_notifications_recipient_read,priority:1;not null"`
	Title           string `gorm:"not null"`
	Message         string `gorm:"not null"`
	DeliverInApp    bool   `gorm:"not null"`
	DeliverPlatform bool   `gorm:"not null"`
	Read            bool   `gorm:"column:is_read;index:idx_notifications_recipient_read,priority:2;not null;default:false"`
	CreatedAt       time.Time
}

func (notificationModel) TableName() string { return "notifications" }
