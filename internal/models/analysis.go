package models

import (
	"time"

	"github.com/google/uuid"
)

type AnalysisStatus string

const (
	StatusQueued     AnalysisStatus = "queued"
	StatusProcessing AnalysisStatus = "processing"
	StatusCompleted  AnalysisStatus = "completed"
	StatusFailed     AnalysisStatus = "failed"
)

// Analysis is one resume compared against one job description.
// The job description comes either from an uploaded document or from pasted text.
type Analysis struct {
	ID                       uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ResumeDocumentID         uuid.UUID      `gorm:"type:uuid;not null" json:"resume_document_id"`
	JobDescriptionDocumentID *uuid.UUID     `gorm:"type:uuid" json:"job_description_document_id,omitempty"`
	JobDescriptionText       string         `gorm:"type:text" json:"-"`
	Status                   AnalysisStatus `gorm:"not null;default:'queued'" json:"status"`
	ResumeText               string         `gorm:"type:text" json:"-"`
	Sections                 *SectionMap    `gorm:"type:jsonb;serializer:json" json:"sections,omitempty"`
	Report                   *MatchReport   `gorm:"type:jsonb;serializer:json" json:"report,omitempty"`
	ErrorMessage             *string        `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt                time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt                time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	ResumeDocument Document `gorm:"foreignKey:ResumeDocumentID" json:"-"`
}

func (Analysis) TableName() string {
	return "analyses"
}
