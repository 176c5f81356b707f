// Package compliance evaluates rule catalogs against opportunities and
// documents, and records the outcomes as reviewable checks.
package compliance

import (
	"errors"
	"fmt"

	"blackcoral/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// reviewOrder sorts the queue by rule severity first (critical on top),
// then by recency.
const reviewOrder = "CASE compliance_rules.severity " +
	"WHEN 'critical' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END, " +
	"compliance_checks.created_at DESC"

type Evaluator struct {
	db     *gorm.DB
	policy StatusPolicy
	log    *zap.Logger
}

func NewEvaluator(db *gorm.DB, policy StatusPolicy, log *zap.Logger) *Evaluator {
	if policy == nil {
		policy = KeywordPolicy{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{db: db, policy: policy, log: log}
}

// Evaluate runs every active rule against the target and persists one
// automatic check per rule. Re-evaluating the same target updates the
// existing automatic results in place, so there is at most one current
// automatic check per (rule, target). A target that resolves to neither an
// opportunity nor a document is a data-integrity error.
func (e *Evaluator) Evaluate(target models.CheckTarget) ([]models.ComplianceCheck, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	content, err := e.targetContent(target)
	if err != nil {
		return nil, err
	}

	var rules []models.ComplianceRule
	if err := e.db.Where("active = ?", true).Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("load active rules: %w", err)
	}

	checks := make([]models.ComplianceCheck, 0, len(rules))
	for _, rule := range rules {
		matched, keyword := RuleMatches(rule, content)
		status := e.policy.Decide(rule, matched)

		details := fmt.Sprintf("no trigger keywords of rule %q found", rule.Name)
		if matched {
			details = fmt.Sprintf("keyword %q matched rule %q", keyword, rule.Name)
		}

		check, err := e.upsertAutoCheck(rule, target, status, details)
		if err != nil {
			return nil, err
		}
		checks = append(checks, *check)

		e.log.Debug("compliance check recorded",
			zap.Uint("rule_id", rule.ID),
			zap.String("target", string(target.Kind())),
			zap.Uint("target_id", target.ID()),
			zap.String("status", string(status)))
	}

	if target.Kind() == models.TargetOpportunity {
		if err := e.db.Model(&models.Opportunity{}).
			Where("id = ?", target.ID()).
			Update("compliance_checked", true).Error; err != nil {
			return nil, err
		}
	}

	return checks, nil
}

// upsertAutoCheck keeps a single current automatic result per (rule, target).
func (e *Evaluator) upsertAutoCheck(rule models.ComplianceRule, target models.CheckTarget, status models.CheckStatus, details string) (*models.ComplianceCheck, error) {
	query := e.db.Where("rule_id = ? AND auto_detected = ?", rule.ID, true)
	switch target.Kind() {
	case models.TargetOpportunity:
		query = query.Where("opportunity_id = ?", target.ID())
	case models.TargetDocument:
		query = query.Where("document_id = ?", target.ID())
	}

	var existing models.ComplianceCheck
	err := query.First(&existing).Error
	switch {
	case err == nil:
		existing.Status = status
		existing.Details = details
		if err := e.db.Save(&existing).Error; err != nil {
			return nil, fmt.Errorf("update check %d: %w", existing.ID, err)
		}
		return &existing, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		check, err := models.NewComplianceCheck(rule.ID, target, status, details, true)
		if err != nil {
			return nil, err
		}
		if err := e.db.Create(check).Error; err != nil {
			return nil, fmt.Errorf("create check for rule %d: %w", rule.ID, err)
		}
		return check, nil

	default:
		return nil, err
	}
}

// Override records a human judgment on a check: status, details and reviewer
// change, auto_detected keeps reflecting how the check was first produced.
// A reviewer is required. Concurrent overrides are last-write-wins.
func (e *Evaluator) Override(checkID uint, reviewer *models.User, status models.CheckStatus, details string) error {
	if reviewer == nil || reviewer.ID == 0 {
		return errors.New("override requires a reviewer")
	}

	var check models.ComplianceCheck
	if err := e.db.First(&check, checkID).Error; err != nil {
		return fmt.Errorf("load check %d: %w", checkID, err)
	}

	return e.db.Model(&check).Updates(map[string]interface{}{
		"status":         status,
		"details":        details,
		"reviewed_by_id": reviewer.ID,
	}).Error
}

// ReviewQueue returns open findings for triage, critical/high severity first.
func (e *Evaluator) ReviewQueue(limit int) ([]models.ComplianceCheck, error) {
	var checks []models.ComplianceCheck
	err := e.db.
		Joins("JOIN compliance_rules ON compliance_rules.id = compliance_checks.rule_id").
		Where("compliance_checks.status IN ?", []models.CheckStatus{
			models.StatusNonCompliant,
			models.StatusWarning,
			models.StatusNeedsReview,
		}).
		Order(reviewOrder).
		Limit(limit).
		Preload("Rule").
		Find(&checks).Error
	return checks, err
}

// targetContent loads the text the keyword match runs over: title plus
// description for opportunities, title plus extracted text for documents.
func (e *Evaluator) targetContent(target models.CheckTarget) (string, error) {
	switch target.Kind() {
	case models.TargetOpportunity:
		var opp models.Opportunity
		if err := e.db.First(&opp, target.ID()).Error; err != nil {
			return "", fmt.Errorf("load opportunity %d: %w", target.ID(), err)
		}
		return opp.Title + "\n" + opp.Description, nil

	case models.TargetDocument:
		var doc models.Document
		if err := e.db.First(&doc, target.ID()).Error; err != nil {
			return "", fmt.Errorf("load document %d: %w", target.ID(), err)
		}
		return doc.Title + "\n" + doc.ExtractedText, nil

	default:
		return "", models.ErrInvalidCheckTarget
	}
}
