package models

import "gorm.io/gorm"

type DocumentStatus string

const (
	DocumentPending    DocumentStatus = "pending"
	DocumentProcessing DocumentStatus = "processing"
	DocumentCompleted  DocumentStatus = "completed"
	DocumentFailed     DocumentStatus = "failed"
)

// Документ возможности (SOW, PWS, приложения).
type Document struct {
	gorm.Model

	OpportunityID uint `gorm:"not null;index"`
	Opportunity   Opportunity

	Title     string `gorm:"size:255;not null"`
	FilePath  string `gorm:"size:500"`
	FileType  string `gorm:"size:10"` // PDF, DOCX и т.п.
	FileSize  uint
	SourceURL string `gorm:"size:500;index"`

	ExtractedText    string         `gorm:"type:text"`
	ProcessingStatus DocumentStatus `gorm:"type:varchar(20);default:pending;index"`

	Summary string `gorm:"type:text"` // AI-сводка
}
