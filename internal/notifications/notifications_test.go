package notifications

import (
	"testing"
	"time"

	"blackcoral/internal/database"
	"blackcoral/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func createUser(t *testing.T, db *gorm.DB, username string, role models.UserRole) *models.User {
	t.Helper()
	user := models.User{Username: username, PasswordHash: "x", Role: role}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func monitorsOnly(c models.Capabilities) bool { return c.MonitorCompliance }

func TestNotifyCapabilityHolders(t *testing.T) {
	db := openTestDB(t)
	admin := createUser(t, db, "admin", models.RoleAdmin)
	monitor := createUser(t, db, "monitor", models.RoleComplianceMonitor)
	createUser(t, db, "researcher", models.RoleResearcher)

	created, err := NotifyCapabilityHolders(db, 0, monitorsOnly,
		KindCheckOverride, "Check overridden", "status changed", "/compliance")
	require.NoError(t, err)
	// admin и monitor имеют MonitorCompliance, researcher — нет
	assert.Equal(t, 2, created)

	for _, u := range []*models.User{admin, monitor} {
		var got models.Notification
		require.NoError(t, db.Where("user_id = ?", u.ID).First(&got).Error)
		assert.Equal(t, KindCheckOverride, got.Kind)
		assert.True(t, got.Unread())
		assert.Equal(t, "/compliance", got.ActionURL)
	}

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestNotifyExcludesActor(t *testing.T) {
	db := openTestDB(t)
	monitor := createUser(t, db, "monitor", models.RoleComplianceMonitor)
	other := createUser(t, db, "other", models.RoleComplianceMonitor)

	created, err := NotifyCapabilityHolders(db, monitor.ID, monitorsOnly,
		KindCheckOverride, "Check overridden", "", "/compliance")
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("user_id = ?", monitor.ID).
		Count(&count).Error)
	assert.EqualValues(t, 0, count)

	require.NoError(t, db.Model(&models.Notification{}).
		Where("user_id = ?", other.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestNotifyFailsOnUnknownRole(t *testing.T) {
	db := openTestDB(t)
	createUser(t, db, "broken", models.UserRole("bogus_role"))

	_, err := NotifyCapabilityHolders(db, 0, monitorsOnly,
		KindCheckOverride, "Check overridden", "", "")
	require.Error(t, err)
}

func TestMarkAllReadIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	user := createUser(t, db, "monitor", models.RoleComplianceMonitor)

	for i := 0; i < 3; i++ {
		n := models.Notification{UserID: user.ID, Kind: KindRuleCreated, Title: "Rule"}
		require.NoError(t, db.Create(&n).Error)
	}

	unread, err := UnreadCount(db, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, unread)

	stamped, err := MarkAllRead(db, user.ID, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 3, stamped)

	// повторный вызов ничего не находит
	stamped, err = MarkAllRead(db, user.ID, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 0, stamped)

	unread, err = UnreadCount(db, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, unread)
}

func TestListRecentNewestFirst(t *testing.T) {
	db := openTestDB(t)
	user := createUser(t, db, "monitor", models.RoleComplianceMonitor)

	for i := 0; i < 7; i++ {
		n := models.Notification{UserID: user.ID, Kind: KindRuleCreated, Title: "Rule"}
		require.NoError(t, db.Create(&n).Error)
	}

	recent, err := ListRecent(db, user.ID, 5)
	require.NoError(t, err)
	require.Len(t, recent, 5)
	for i := 1; i < len(recent); i++ {
		assert.False(t, recent[i].CreatedAt.After(recent[i-1].CreatedAt))
	}
}
