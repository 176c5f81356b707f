package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"blackcoral/internal/ai"
	"blackcoral/internal/auth"
	"blackcoral/internal/compliance"
	"blackcoral/internal/models"
	"blackcoral/internal/samgov"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// extractedTextLimit caps how much fetched document body is stored.
const extractedTextLimit = 1 << 20

// Handler carries the dependencies of every background job.
type Handler struct {
	db         *gorm.DB
	evaluator  *compliance.Evaluator
	summarizer ai.Summarizer
	sam        *samgov.Client
	log        *zap.Logger

	softTimeout      time.Duration
	sessionRetention time.Duration

	httpClient *http.Client
}

func NewHandler(db *gorm.DB, evaluator *compliance.Evaluator, summarizer ai.Summarizer, sam *samgov.Client, log *zap.Logger, softTimeout, sessionRetention time.Duration) *Handler {
	return &Handler{
		db:               db,
		evaluator:        evaluator,
		summarizer:       summarizer,
		sam:              sam,
		log:              log,
		softTimeout:      softTimeout,
		sessionRetention: sessionRetention,
		httpClient:       &http.Client{Timeout: 60 * time.Second},
	}
}

// withSoftTimeout layers the cooperative deadline under asynq's hard one:
// handlers observe ctx cancellation and exit early, the hard timeout then
// kills anything that did not.
func (h *Handler) withSoftTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.softTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.softTimeout)
}

// HandleSyncOpportunities pulls the last posting window from sam.gov and
// upserts by solicitation number, so redelivery never duplicates rows.
func (h *Handler) HandleSyncOpportunities(ctx context.Context, _ *asynq.Task) error {
	ctx, cancel := h.withSoftTimeout(ctx)
	defer cancel()

	now := time.Now()
	fetched, err := h.sam.Search(ctx, now.AddDate(0, 0, -1), now, 100)
	if err != nil {
		return fmt.Errorf("sam.gov search: %w", err)
	}

	var created, updated int
	for _, remote := range fetched {
		if err := ctx.Err(); err != nil {
			return err
		}
		if remote.SolicitationNumber == "" {
			continue
		}

		wasNew, err := h.upsertOpportunity(remote, now)
		if err != nil {
			return err
		}
		if wasNew {
			created++
		} else {
			updated++
		}
	}

	h.log.Info("opportunity sync finished",
		zap.Int("fetched", len(fetched)),
		zap.Int("created", created),
		zap.Int("updated", updated))
	return nil
}

func (h *Handler) upsertOpportunity(remote samgov.Opportunity, now time.Time) (bool, error) {
	posted, err := time.Parse("01/02/2006", remote.PostedDate)
	if err != nil {
		posted = now
	}
	var response *time.Time
	if t, err := time.Parse(time.RFC3339, remote.ResponseDeadline); err == nil {
		response = &t
	}

	var opp models.Opportunity
	err = h.db.Where("solicitation_number = ?", remote.SolicitationNumber).First(&opp).Error
	isNew := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !isNew {
		return false, err
	}

	opp.Title = remote.Title
	opp.SolicitationNumber = remote.SolicitationNumber
	opp.Description = remote.Description
	opp.PostedDate = posted
	opp.ResponseDate = response
	opp.SourceURL = remote.UILink
	opp.SourceAPI = "sam.gov"
	opp.OpportunityType = remote.Type
	opp.SetAsideType = remote.SetAside
	opp.RawData = remote.RawJSON()

	if err := h.db.Save(&opp).Error; err != nil {
		return false, fmt.Errorf("save opportunity %s: %w", remote.SolicitationNumber, err)
	}

	// заводим pending-документы по ссылкам; существующие не трогаем
	for _, link := range remote.ResourceLinks {
		var count int64
		if err := h.db.Model(&models.Document{}).
			Where("opportunity_id = ? AND source_url = ?", opp.ID, link).
			Count(&count).Error; err != nil {
			return false, err
		}
		if count > 0 {
			continue
		}
		doc := models.Document{
			OpportunityID:    opp.ID,
			Title:            titleFromLink(link),
			SourceURL:        link,
			ProcessingStatus: models.DocumentPending,
		}
		if err := h.db.Create(&doc).Error; err != nil {
			return false, err
		}
	}

	if len(remote.ResourceLinks) > 0 || isNew {
		if err := h.db.Model(&opp).Update("documents_fetched", true).Error; err != nil {
			return false, err
		}
	}

	return isNew, nil
}

func titleFromLink(link string) string {
	if idx := strings.LastIndex(link, "/"); idx >= 0 && idx < len(link)-1 {
		return link[idx+1:]
	}
	return "Attachment"
}

// HandleProcessDocuments processes every pending document. Selection is
// status-filtered, so a second run over the same pending set (scheduler
// retry, redelivery) finds nothing left to do.
func (h *Handler) HandleProcessDocuments(ctx context.Context, _ *asynq.Task) error {
	ctx, cancel := h.withSoftTimeout(ctx)
	defer cancel()

	var pending []models.Document
	if err := h.db.Where("processing_status = ?", models.DocumentPending).Find(&pending).Error; err != nil {
		return err
	}

	var completed, failed int
	for i := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		doc := &pending[i]
		if err := h.db.Model(doc).Update("processing_status", models.DocumentProcessing).Error; err != nil {
			return err
		}

		text, err := h.fetchDocumentText(ctx, doc.SourceURL)
		if err != nil {
			h.log.Warn("document processing failed",
				zap.Uint("document_id", doc.ID),
				zap.Error(err))
			if err := h.db.Model(doc).Update("processing_status", models.DocumentFailed).Error; err != nil {
				return err
			}
			failed++
			continue
		}

		updates := map[string]interface{}{
			"extracted_text":    text,
			"file_size":         uint(len(text)),
			"processing_status": models.DocumentCompleted,
		}
		if err := h.db.Model(doc).Updates(updates).Error; err != nil {
			return err
		}
		completed++
	}

	h.log.Info("document processing finished",
		zap.Int("pending", len(pending)),
		zap.Int("completed", completed),
		zap.Int("failed", failed))
	return nil
}

func (h *Handler) fetchDocumentText(ctx context.Context, sourceURL string) (string, error) {
	if sourceURL == "" {
		return "", errors.New("document has no source url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", sourceURL, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, extractedTextLimit))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// HandleEvaluateCompliance sweeps unchecked opportunities and completed
// documents through the rule evaluator. The evaluator upserts the single
// automatic result per (rule, target), so the sweep is re-runnable.
func (h *Handler) HandleEvaluateCompliance(ctx context.Context, _ *asynq.Task) error {
	ctx, cancel := h.withSoftTimeout(ctx)
	defer cancel()

	var opportunities []models.Opportunity
	if err := h.db.Where("compliance_checked = ?", false).Find(&opportunities).Error; err != nil {
		return err
	}
	for _, opp := range opportunities {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := h.evaluator.Evaluate(models.OpportunityTarget(opp.ID)); err != nil {
			return fmt.Errorf("evaluate opportunity %d: %w", opp.ID, err)
		}
	}

	var documents []models.Document
	if err := h.db.Where("processing_status = ?", models.DocumentCompleted).Find(&documents).Error; err != nil {
		return err
	}
	for _, doc := range documents {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := h.evaluator.Evaluate(models.DocumentTarget(doc.ID)); err != nil {
			return fmt.Errorf("evaluate document %d: %w", doc.ID, err)
		}
	}

	h.log.Info("compliance sweep finished",
		zap.Int("opportunities", len(opportunities)),
		zap.Int("documents", len(documents)))
	return nil
}

// HandleSummarize fills AI summaries for opportunities that have none yet.
// When the summarizer is not configured the job is a logged no-op rather
// than a retry storm.
func (h *Handler) HandleSummarize(ctx context.Context, t *asynq.Task) error {
	ctx, cancel := h.withSoftTimeout(ctx)
	defer cancel()

	var payload SummarizePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode summarize payload: %w", err)
		}
	}

	query := h.db.Where("ai_analysis_complete = ?", false)
	if payload.OpportunityID != 0 {
		query = query.Where("id = ?", payload.OpportunityID)
	}

	var opportunities []models.Opportunity
	if err := query.Find(&opportunities).Error; err != nil {
		return err
	}

	var summarized int
	for i := range opportunities {
		if err := ctx.Err(); err != nil {
			return err
		}

		opp := &opportunities[i]
		summary, err := h.summarizer.Summarize(ctx, opp.Title, opp.Description)
		if errors.Is(err, ai.ErrDisabled) {
			h.log.Info("ai summarization disabled, skipping sweep")
			return nil
		}
		if err != nil {
			return fmt.Errorf("summarize opportunity %d: %w", opp.ID, err)
		}

		updates := map[string]interface{}{
			"summary":              summary,
			"ai_analysis_complete": true,
		}
		if err := h.db.Model(opp).Updates(updates).Error; err != nil {
			return err
		}
		summarized++
	}

	h.log.Info("ai summarization finished", zap.Int("summarized", summarized))
	return nil
}

// HandleCleanupSessions closes sessions that were never logged out and have
// aged past the retention threshold.
func (h *Handler) HandleCleanupSessions(ctx context.Context, _ *asynq.Task) error {
	ctx, cancel := h.withSoftTimeout(ctx)
	defer cancel()

	now := time.Now()
	closed, err := auth.CleanupStale(h.db.WithContext(ctx), now.Add(-h.sessionRetention), now)
	if err != nil {
		return err
	}

	h.log.Info("session cleanup finished", zap.Int64("closed", closed))
	return nil
}
