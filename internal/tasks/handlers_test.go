package tasks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"blackcoral/internal/ai"
	"blackcoral/internal/auth"
	"blackcoral/internal/compliance"
	"blackcoral/internal/database"
	"blackcoral/internal/models"
	"blackcoral/internal/samgov"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
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

func newTestHandler(t *testing.T, db *gorm.DB) *Handler {
	t.Helper()
	return NewHandler(
		db,
		compliance.NewEvaluator(db, nil, nil),
		ai.Disabled{},
		samgov.NewClient("", ""),
		zap.NewNop(),
		time.Minute,
		24*time.Hour,
	)
}

func createOpportunity(t *testing.T, db *gorm.DB, solicitation string) *models.Opportunity {
	t.Helper()
	opp := models.Opportunity{
		Title:              "Test services",
		SolicitationNumber: solicitation,
		PostedDate:         time.Now(),
	}
	require.NoError(t, db.Create(&opp).Error)
	return &opp
}

func TestProcessPendingDocumentsIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	h := newTestHandler(t, db)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("statement of work: export-control applies"))
	}))
	defer srv.Close()

	opp := createOpportunity(t, db, "SOL-1")
	for i := 0; i < 2; i++ {
		doc := models.Document{
			OpportunityID:    opp.ID,
			Title:            "Attachment",
			SourceURL:        srv.URL,
			ProcessingStatus: models.DocumentPending,
		}
		require.NoError(t, db.Create(&doc).Error)
	}

	task := asynq.NewTask(TypeProcessDocuments, nil)
	require.NoError(t, h.HandleProcessDocuments(context.Background(), task))

	var docs []models.Document
	require.NoError(t, db.Find(&docs).Error)
	require.Len(t, docs, 2)
	firstState := map[uint]models.Document{}
	for _, doc := range docs {
		assert.Equal(t, models.DocumentCompleted, doc.ProcessingStatus)
		assert.Contains(t, doc.ExtractedText, "export-control")
		firstState[doc.ID] = doc
	}

	// повторная доставка того же задания: pending пуст, состояние не меняется
	require.NoError(t, h.HandleProcessDocuments(context.Background(), task))

	var after []models.Document
	require.NoError(t, db.Find(&after).Error)
	require.Len(t, after, 2)
	for _, doc := range after {
		prev := firstState[doc.ID]
		assert.Equal(t, prev.ProcessingStatus, doc.ProcessingStatus)
		assert.Equal(t, prev.ExtractedText, doc.ExtractedText)
		assert.Equal(t, prev.UpdatedAt, doc.UpdatedAt)
	}
}

func TestProcessDocumentsMarksFailures(t *testing.T) {
	db := openTestDB(t)
	h := newTestHandler(t, db)

	opp := createOpportunity(t, db, "SOL-2")
	doc := models.Document{
		OpportunityID:    opp.ID,
		Title:            "Broken link",
		SourceURL:        "http://127.0.0.1:1/unreachable",
		ProcessingStatus: models.DocumentPending,
	}
	require.NoError(t, db.Create(&doc).Error)

	require.NoError(t, h.HandleProcessDocuments(context.Background(), asynq.NewTask(TypeProcessDocuments, nil)))

	var got models.Document
	require.NoError(t, db.First(&got, doc.ID).Error)
	assert.Equal(t, models.DocumentFailed, got.ProcessingStatus)
}

func TestHandleEvaluateComplianceSweep(t *testing.T) {
	db := openTestDB(t)
	h := newTestHandler(t, db)

	rule := models.ComplianceRule{
		Name:     "Export control",
		RuleType: models.RuleSecurity,
		Keywords: []string{"export-control"},
		Severity: models.SeverityCritical,
		Active:   true,
	}
	require.NoError(t, db.Create(&rule).Error)

	opp := createOpportunity(t, db, "SOL-3")

	task := asynq.NewTask(TypeEvaluateCompliance, nil)
	require.NoError(t, h.HandleEvaluateCompliance(context.Background(), task))

	var got models.Opportunity
	require.NoError(t, db.First(&got, opp.ID).Error)
	assert.True(t, got.ComplianceChecked)

	// повторный прогон не плодит дублей автоматических результатов
	require.NoError(t, h.HandleEvaluateCompliance(context.Background(), task))

	var count int64
	require.NoError(t, db.Model(&models.ComplianceCheck{}).
		Where("opportunity_id = ? AND auto_detected = ?", opp.ID, true).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestHandleSummarizeDisabledIsNoOp(t *testing.T) {
	db := openTestDB(t)
	h := newTestHandler(t, db)

	opp := createOpportunity(t, db, "SOL-4")

	require.NoError(t, h.HandleSummarize(context.Background(), asynq.NewTask(TypeSummarize, nil)))

	var got models.Opportunity
	require.NoError(t, db.First(&got, opp.ID).Error)
	assert.False(t, got.AIAnalysisComplete)
	assert.Empty(t, got.Summary)
}

func TestHandleCleanupSessions(t *testing.T) {
	db := openTestDB(t)
	h := newTestHandler(t, db)

	user := models.User{Username: "jdoe", PasswordHash: "x", Role: models.RoleResearcher}
	require.NoError(t, db.Create(&user).Error)

	_, err := auth.OpenSession(db, user.ID, "stale", "10.0.0.1", "agent", time.Now().Add(-48*time.Hour))
	require.NoError(t, err)
	_, err = auth.OpenSession(db, user.ID, "fresh", "10.0.0.1", "agent", time.Now())
	require.NoError(t, err)

	require.NoError(t, h.HandleCleanupSessions(context.Background(), asynq.NewTask(TypeCleanupSessions, nil)))

	var stale, fresh models.UserSession
	require.NoError(t, db.Where("session_key = ?", "stale").First(&stale).Error)
	require.NoError(t, db.Where("session_key = ?", "fresh").First(&fresh).Error)
	assert.NotNil(t, stale.LogoutTime)
	assert.Nil(t, fresh.LogoutTime)
}

func TestHandleCleanupSessionsHonorsCancellation(t *testing.T) {
	db := openTestDB(t)
	h := newTestHandler(t, db)

	user := models.User{Username: "jdoe", PasswordHash: "x", Role: models.RoleResearcher}
	require.NoError(t, db.Create(&user).Error)
	_, err := auth.OpenSession(db, user.ID, "stale", "10.0.0.1", "agent", time.Now().Add(-48*time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, h.HandleCleanupSessions(ctx, asynq.NewTask(TypeCleanupSessions, nil)))

	var got models.UserSession
	require.NoError(t, db.Where("session_key = ?", "stale").First(&got).Error)
	assert.Nil(t, got.LogoutTime)
}
