// Package notifications records workflow events as per-user in-app
// notification rows: who should know, what happened, where to look.
package notifications

import (
	"fmt"
	"time"

	"blackcoral/internal/models"

	"gorm.io/gorm"
)

// Notification kinds written by the workflow.
const (
	KindCheckOverride = "check_override"
	KindRuleCreated   = "rule_created"
)

// NotifyCapabilityHolders writes one notification per user whose role grants
// the selected capability. The acting user is excluded — they already know.
// An unknown role on any account is a data-integrity error and aborts the
// fan-out. Returns the number of notifications created.
func NotifyCapabilityHolders(db *gorm.DB, actorID uint, selector func(models.Capabilities) bool, kind, title, message, actionURL string) (int, error) {
	var users []models.User
	if err := db.Find(&users).Error; err != nil {
		return 0, fmt.Errorf("load recipients: %w", err)
	}

	var created int
	for _, user := range users {
		if user.ID == actorID {
			continue
		}
		caps, err := user.Capabilities()
		if err != nil {
			return created, err
		}
		if !selector(caps) {
			continue
		}

		notification := models.Notification{
			UserID:    user.ID,
			Kind:      kind,
			Title:     title,
			Message:   message,
			ActionURL: actionURL,
		}
		if err := db.Create(&notification).Error; err != nil {
			return created, fmt.Errorf("notify user %d: %w", user.ID, err)
		}
		created++
	}

	return created, nil
}

// ListRecent returns the latest n notifications for a user, newest first.
func ListRecent(db *gorm.DB, userID uint, n int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := db.
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(n).
		Find(&notifications).Error
	return notifications, err
}

// UnreadCount counts a user's unread notifications.
func UnreadCount(db *gorm.DB, userID uint) (int64, error) {
	var count int64
	err := db.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

// MarkAllRead stamps read_at on every unread notification of the user.
// Re-running is a no-op; returns the number of rows stamped.
func MarkAllRead(db *gorm.DB, userID uint, now time.Time) (int64, error) {
	res := db.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", now)
	return res.RowsAffected, res.Error
}
