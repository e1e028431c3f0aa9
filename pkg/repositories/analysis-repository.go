package repositories

import (
	"errors"

	"github.com/google/uuid"
	"github.com/wmorato/ZapSign/pkg/models"
	"gorm.io/gorm"
)

type AnalysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

func (r *AnalysisRepository) GetByDocument(documentID uuid.UUID) (*models.DocumentAnalysis, error) {
	var analysis models.DocumentAnalysis
	err := r.db.First(&analysis, "document_id = ?", documentID).Error
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

// GetOrCreate returns the document's analysis row, creating it with the
// given defaults when absent. Safe to call from concurrent attempts of
// the same task.
func (r *AnalysisRepository) GetOrCreate(documentID uuid.UUID, status, modelUsed string) (*models.DocumentAnalysis, error) {
	analysis, err := r.GetByDocument(documentID)
	if err == nil {
		return analysis, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	analysis = &models.DocumentAnalysis{
		DocumentID: documentID,
		Status:     status,
		ModelUsed:  modelUsed,
	}
	if err := r.db.Create(analysis).Error; err != nil {
		// Lost a create race; the row exists now.
		if existing, getErr := r.GetByDocument(documentID); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return analysis, nil
}

func (r *AnalysisRepository) Save(analysis *models.DocumentAnalysis) error {
	return r.db.Save(analysis).Error
}

// ResetToPending implements the reanalysis restart: status back to
// pending with all output fields cleared.
func (r *AnalysisRepository) ResetToPending(documentID uuid.UUID, modelUsed string) error {
	return r.db.Model(&models.DocumentAnalysis{}).
		Where("document_id = ?", documentID).
		Updates(map[string]interface{}{
			"status":         models.AnalysisPending,
			"summary":        nil,
			"missing_topics": nil,
			"insights":       nil,
			"model_used":     modelUsed,
		}).Error
}
