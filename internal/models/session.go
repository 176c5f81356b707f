package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Журнал входов/выходов: хранится бессрочно для аудита.
type UserSession struct {
	gorm.Model

	UserID uint `gorm:"not null;index"`
	User   User

	SessionKey string `gorm:"size:40;index;not null"`
	IPAddress  string `gorm:"size:45"`
	UserAgent  string `gorm:"type:text"`

	LoginTime  time.Time `gorm:"not null"`
	LogoutTime *time.Time
}

// Open сообщает, что сессия ещё не закрыта.
func (s *UserSession) Open() bool {
	return s.LogoutTime == nil
}

func (s *UserSession) Duration() time.Duration {
	if s.LogoutTime == nil {
		return 0
	}
	return s.LogoutTime.Sub(s.LoginTime)
}

// Настройки пользователя, создаются лениво при первом обращении.
type UserPreferences struct {
	gorm.Model

	UserID uint `gorm:"uniqueIndex;not null"`
	User   User

	DashboardLayout      datatypes.JSONMap
	NotificationSettings datatypes.JSONMap
	DefaultFilters       datatypes.JSONMap
}
