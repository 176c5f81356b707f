package models

import (
	"time"

	"gorm.io/gorm"
)

// Внутреннее (in-app) уведомление пользователю о событии воркфлоу.
type Notification struct {
	gorm.Model

	UserID uint `gorm:"not null;index"`
	User   User

	Kind    string `gorm:"size:50;not null;index"` // "check_override", "rule_created" и т.п.
	Title   string `gorm:"size:200;not null"`
	Message string `gorm:"type:text"`

	ActionURL string `gorm:"size:500"` // куда ведёт уведомление

	ReadAt *time.Time
}

func (n *Notification) Unread() bool {
	return n.ReadAt == nil
}
