package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DocumentAnalysis lifecycle states.
const (
	AnalysisPending    = "pending"
	AnalysisProcessing = "processing"
	AnalysisCompleted  = "completed"
	AnalysisFailed     = "failed"
)

// DocumentAnalysis holds the AI analysis result for a document, at most
// one per document. A reanalysis request resets Status to pending and
// clears the output fields before the new task runs.
type DocumentAnalysis struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"document_id"`
	Status     string    `gorm:"size:50;not null;default:pending" json:"status"`

	Summary       *string        `gorm:"type:text" json:"summary"`
	MissingTopics datatypes.JSON `json:"missing_topics"`
	Insights      datatypes.JSON `json:"insights"`
	ModelUsed     string         `gorm:"size:100" json:"model_used"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"last_updated_at"`

	Document Document `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"-"`
}

func (a *DocumentAnalysis) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
