package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Возможность (госконтракт) из sam.gov и других источников.
type Opportunity struct {
	gorm.Model

	Title              string `gorm:"size:500;not null"`
	SolicitationNumber string `gorm:"size:100;uniqueIndex;not null"`

	AgencyID *uint
	Agency   *Agency

	Description string `gorm:"type:text"`

	PostedDate   time.Time `gorm:"index"`
	ResponseDate *time.Time

	SourceURL string `gorm:"size:500"`
	SourceAPI string `gorm:"size:50;default:sam.gov"`

	OpportunityType string `gorm:"size:50"`
	SetAsideType    string `gorm:"size:100"`

	RawData datatypes.JSON // полный ответ API

	// статусы конвейера обработки
	DocumentsFetched   bool `gorm:"default:false"`
	AIAnalysisComplete bool `gorm:"default:false"`
	ComplianceChecked  bool `gorm:"default:false"`

	Summary string `gorm:"type:text"` // AI-сводка

	Documents []Document
}

// IsOpen — открыта ли возможность для откликов.
func (o *Opportunity) IsOpen(now time.Time) bool {
	if o.ResponseDate == nil {
		return true
	}
	return o.ResponseDate.After(now)
}
