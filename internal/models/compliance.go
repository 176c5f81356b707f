package models

import (
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RuleType string

const (
	RuleFAR           RuleType = "far"
	RuleAgency        RuleType = "agency"
	RuleSecurity      RuleType = "security"
	RuleCertification RuleType = "certification"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank задаёт порядок триажа: critical раньше всех.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

type CheckStatus string

const (
	StatusCompliant    CheckStatus = "compliant"
	StatusNonCompliant CheckStatus = "non_compliant"
	StatusWarning      CheckStatus = "warning"
	StatusNeedsReview  CheckStatus = "needs_review"
)

// Правило комплаенса (FAR / ведомственное / безопасность / сертификация).
// Справочные данные: заводятся администратором, читаются эвалюатором.
type ComplianceRule struct {
	gorm.Model
	Name        string   `gorm:"size:255;not null"`
	Description string   `gorm:"type:text"`
	RuleType    RuleType `gorm:"type:varchar(20);not null"`

	AgencyID *uint
	Agency   *Agency

	RuleText string                      `gorm:"type:text"`
	Keywords datatypes.JSONSlice[string] // триггерные ключевые слова
	Severity Severity                    `gorm:"type:varchar(10);default:medium"`
	Active   bool                        `gorm:"default:true;index"`
}

// TargetKind различает два вида целей проверки.
type TargetKind string

const (
	TargetOpportunity TargetKind = "opportunity"
	TargetDocument    TargetKind = "document"
)

var ErrInvalidCheckTarget = errors.New("compliance check must reference exactly one of opportunity or document")

// CheckTarget — тегированная ссылка "возможность ИЛИ документ".
// Нулевое значение невалидно; конструкторы ниже — единственный способ
// собрать корректную цель.
type CheckTarget struct {
	kind TargetKind
	id   uint
}

func OpportunityTarget(id uint) CheckTarget {
	return CheckTarget{kind: TargetOpportunity, id: id}
}

func DocumentTarget(id uint) CheckTarget {
	return CheckTarget{kind: TargetDocument, id: id}
}

func (t CheckTarget) Kind() TargetKind { return t.kind }
func (t CheckTarget) ID() uint         { return t.id }

func (t CheckTarget) Validate() error {
	if t.id == 0 {
		return ErrInvalidCheckTarget
	}
	switch t.kind {
	case TargetOpportunity, TargetDocument:
		return nil
	default:
		return ErrInvalidCheckTarget
	}
}

// Результат проверки одного правила против одной цели.
// auto_detected фиксирует происхождение результата и не меняется при
// последующей ручной правке статуса.
type ComplianceCheck struct {
	gorm.Model

	RuleID uint `gorm:"not null;index"`
	Rule   ComplianceRule

	OpportunityID *uint `gorm:"index"`
	Opportunity   *Opportunity
	DocumentID    *uint `gorm:"index"`
	Document      *Document

	Status  CheckStatus `gorm:"type:varchar(20);not null"`
	Details string      `gorm:"type:text"`

	AutoDetected bool `gorm:"default:true"`

	ReviewedByID *uint
	ReviewedBy   *User
}

// NewComplianceCheck собирает проверку c гарантией "ровно одна цель".
func NewComplianceCheck(ruleID uint, target CheckTarget, status CheckStatus, details string, autoDetected bool) (*ComplianceCheck, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	check := &ComplianceCheck{
		RuleID:       ruleID,
		Status:       status,
		Details:      details,
		AutoDetected: autoDetected,
	}
	id := target.ID()
	switch target.Kind() {
	case TargetOpportunity:
		check.OpportunityID = &id
	case TargetDocument:
		check.DocumentID = &id
	}
	return check, nil
}

// Target восстанавливает тегированную цель из строки БД.
func (c *ComplianceCheck) Target() (CheckTarget, error) {
	switch {
	case c.OpportunityID != nil && c.DocumentID == nil:
		return OpportunityTarget(*c.OpportunityID), nil
	case c.DocumentID != nil && c.OpportunityID == nil:
		return DocumentTarget(*c.DocumentID), nil
	default:
		return CheckTarget{}, ErrInvalidCheckTarget
	}
}

// BeforeSave дублирует инвариант цели на уровне строки: обе ссылки или
// ни одной — это дефект целостности, а не рабочий случай.
func (c *ComplianceCheck) BeforeSave(tx *gorm.DB) error {
	if _, err := c.Target(); err != nil {
		return fmt.Errorf("compliance check %d: %w", c.ID, err)
	}
	return nil
}
