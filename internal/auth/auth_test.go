package auth

import (
	"testing"
	"time"

	"blackcoral/internal/database"
	"blackcoral/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username, password string, role models.UserRole) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{Username: username, PasswordHash: string(hash), Role: role}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func TestAuthenticate(t *testing.T) {
	db := openTestDB(t)
	createUser(t, db, "jdoe", "s3cret!", models.RoleResearcher)

	user, err := Authenticate(db, "jdoe", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", user.Username)

	_, err = Authenticate(db, "jdoe", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = Authenticate(db, "nobody", "s3cret!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestOpenThenCloseSession(t *testing.T) {
	db := openTestDB(t)
	user := createUser(t, db, "jdoe", "pw", models.RoleResearcher)

	loginAt := time.Now().Add(-time.Hour)
	session, err := OpenSession(db, user.ID, "key-1", "10.0.0.1", "test-agent", loginAt)
	require.NoError(t, err)
	assert.True(t, session.Open())

	logoutAt := time.Now()
	require.NoError(t, CloseSession(db, user.ID, "key-1", logoutAt))

	var got models.UserSession
	require.NoError(t, db.First(&got, session.ID).Error)
	require.NotNil(t, got.LogoutTime)
	assert.False(t, got.LogoutTime.Before(got.LoginTime), "logout must be >= login")
}

func TestCloseSessionIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	user := createUser(t, db, "jdoe", "pw", models.RoleResearcher)

	_, err := OpenSession(db, user.ID, "key-1", "10.0.0.1", "agent", time.Now().Add(-time.Hour))
	require.NoError(t, err)

	first := time.Now().Add(-30 * time.Minute)
	require.NoError(t, CloseSession(db, user.ID, "key-1", first))

	// повторное закрытие — no-op, отметка времени не меняется
	require.NoError(t, CloseSession(db, user.ID, "key-1", time.Now()))

	var got models.UserSession
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&got).Error)
	require.NotNil(t, got.LogoutTime)
	assert.WithinDuration(t, first, *got.LogoutTime, time.Second)
}

func TestCloseUnknownSessionIsSilent(t *testing.T) {
	db := openTestDB(t)
	user := createUser(t, db, "jdoe", "pw", models.RoleResearcher)

	assert.NoError(t, CloseSession(db, user.ID, "no-such-key", time.Now()))
}

func TestConcurrentOpensProduceIndependentRecords(t *testing.T) {
	db := openTestDB(t)
	user := createUser(t, db, "jdoe", "pw", models.RoleResearcher)

	_, err := OpenSession(db, user.ID, "key-1", "10.0.0.1", "agent", time.Now())
	require.NoError(t, err)
	_, err = OpenSession(db, user.ID, "key-2", "10.0.0.2", "agent", time.Now())
	require.NoError(t, err)

	var open int64
	require.NoError(t, db.Model(&models.UserSession{}).
		Where("user_id = ? AND logout_time IS NULL", user.ID).
		Count(&open).Error)
	assert.EqualValues(t, 2, open)
}

func TestCleanupStale(t *testing.T) {
	db := openTestDB(t)
	user := createUser(t, db, "jdoe", "pw", models.RoleResearcher)

	now := time.Now()
	_, err := OpenSession(db, user.ID, "stale", "10.0.0.1", "agent", now.Add(-48*time.Hour))
	require.NoError(t, err)
	_, err = OpenSession(db, user.ID, "fresh", "10.0.0.1", "agent", now.Add(-time.Hour))
	require.NoError(t, err)

	closed, err := CleanupStale(db, now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, closed)

	var stale, fresh models.UserSession
	require.NoError(t, db.Where("session_key = ?", "stale").First(&stale).Error)
	require.NoError(t, db.Where("session_key = ?", "fresh").First(&fresh).Error)
	assert.NotNil(t, stale.LogoutTime)
	assert.Nil(t, fresh.LogoutTime)

	// повторный запуск ничего не находит
	closed, err = CleanupStale(db, now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	assert.EqualValues(t, 0, closed)
}

func TestRecentSessions(t *testing.T) {
	db := openTestDB(t)
	user := createUser(t, db, "jdoe", "pw", models.RoleResearcher)

	base := time.Now().Add(-10 * time.Hour)
	for i := 0; i < 7; i++ {
		_, err := OpenSession(db, user.ID, "key", "10.0.0.1", "agent", base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
	}

	recent, err := RecentSessions(db, user.ID, 5)
	require.NoError(t, err)
	require.Len(t, recent, 5)
	for i := 1; i < len(recent); i++ {
		assert.False(t, recent[i].LoginTime.After(recent[i-1].LoginTime), "sessions must be newest first")
	}
}

func TestTouchLastActivity(t *testing.T) {
	db := openTestDB(t)
	user := createUser(t, db, "jdoe", "pw", models.RoleResearcher)
	require.Nil(t, user.LastActivity)

	now := time.Now()
	require.NoError(t, TouchLastActivity(db, user.ID, now))

	var got models.User
	require.NoError(t, db.First(&got, user.ID).Error)
	require.NotNil(t, got.LastActivity)
	assert.WithinDuration(t, now, *got.LastActivity, time.Second)
}
