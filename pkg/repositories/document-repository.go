package repositories

import (
	"time"

	"github.com/google/uuid"
	"github.com/wmorato/ZapSign/pkg/models"
	"gorm.io/gorm"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *models.Document) error {
	return r.db.Create(doc).Error
}

// GetByID loads a document with its signers and analysis, scoped to a
// company. The company filter is the tenant isolation boundary and is
// never optional on user-facing paths.
func (r *DocumentRepository) GetByID(id, companyID uuid.UUID) (*models.Document, error) {
	var doc models.Document
	err := r.db.Preload("Signers").Preload("Analysis").
		First(&doc, "id = ? AND company_id = ?", id, companyID).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetByIDAny loads a document without a company filter. Only the
// analysis worker and automation endpoints (which scope by API key
// company separately) may use it.
func (r *DocumentRepository) GetByIDAny(id uuid.UUID) (*models.Document, error) {
	var doc models.Document
	err := r.db.Preload("Signers").Preload("Analysis").
		First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetByToken correlates an inbound webhook event with a local document.
func (r *DocumentRepository) GetByToken(token string) (*models.Document, error) {
	var doc models.Document
	err := r.db.Preload("Signers").First(&doc, "token = ?", token).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByCompany(companyID uuid.UUID) ([]models.Document, error) {
	var docs []models.Document
	err := r.db.Preload("Signers").Preload("Analysis").
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// ListByCompanyAndPeriod powers the automation report query.
func (r *DocumentRepository) ListByCompanyAndPeriod(companyID uuid.UUID, from, to time.Time) ([]models.Document, error) {
	var docs []models.Document
	err := r.db.Preload("Signers").Preload("Analysis").
		Where("company_id = ? AND created_at >= ? AND created_at < ?", companyID, from, to).
		Order("created_at DESC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *DocumentRepository) Save(doc *models.Document) error {
	return r.db.Save(doc).Error
}

// UpdateFields applies a partial update to a single row.
func (r *DocumentRepository) UpdateFields(id uuid.UUID, fields map[string]interface{}) error {
	return r.db.Model(&models.Document{}).Where("id = ?", id).Updates(fields).Error
}

// Delete removes a document; signers and analysis follow via FK cascade.
func (r *DocumentRepository) Delete(id uuid.UUID) error {
	if err := r.db.Where("document_id = ?", id).Delete(&models.Signer{}).Error; err != nil {
		return err
	}
	if err := r.db.Where("document_id = ?", id).Delete(&models.DocumentAnalysis{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Document{}, "id = ?", id).Error
}
