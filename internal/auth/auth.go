// Package auth implements credential verification and the audit trail of
// user sessions: every login opens a session record, logout (or the
// retention sweep) closes it.
package auth

import (
	"errors"
	"time"

	"blackcoral/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// Authenticate verifies a username/password pair. A bad login is reported
// as ErrInvalidCredentials so callers can show it to the user; any other
// error is a storage failure.
func Authenticate(db *gorm.DB, username, password string) (*models.User, error) {
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// OpenSession records a login. Concurrent opens for the same user are
// allowed; each produces an independent open record.
func OpenSession(db *gorm.DB, userID uint, sessionKey, ip, userAgent string, now time.Time) (*models.UserSession, error) {
	session := models.UserSession{
		UserID:     userID,
		SessionKey: sessionKey,
		IPAddress:  ip,
		UserAgent:  userAgent,
		LoginTime:  now,
	}
	if err := db.Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// CloseSession stamps logout_time on the most recent open session for
// (user, sessionKey). Closing an already-closed or unknown session is a
// silent no-op, not an error.
func CloseSession(db *gorm.DB, userID uint, sessionKey string, now time.Time) error {
	var session models.UserSession
	err := db.
		Where("user_id = ? AND session_key = ? AND logout_time IS NULL", userID, sessionKey).
		Order("login_time desc").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	return db.Model(&session).Update("logout_time", now).Error
}

// CleanupStale closes sessions that were opened before olderThan and never
// explicitly closed. Rows are closed rather than deleted: sessions are audit
// records and are retained indefinitely. Returns the number of sessions
// closed; safe to re-run.
func CleanupStale(db *gorm.DB, olderThan, now time.Time) (int64, error) {
	res := db.Model(&models.UserSession{}).
		Where("logout_time IS NULL AND login_time < ?", olderThan).
		Update("logout_time", now)
	return res.RowsAffected, res.Error
}

// RecentSessions returns the latest n sessions for a user, newest first.
func RecentSessions(db *gorm.DB, userID uint, n int) ([]models.UserSession, error) {
	var sessions []models.UserSession
	err := db.
		Where("user_id = ?", userID).
		Order("login_time desc").
		Limit(n).
		Find(&sessions).Error
	return sessions, err
}

// TouchLastActivity refreshes the user's last-activity timestamp. Called on
// every authenticated request.
func TouchLastActivity(db *gorm.DB, userID uint, now time.Time) error {
	return db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_activity", now).Error
}
