package repositories

import (
	"github.com/google/uuid"
	"github.com/wmorato/ZapSign/pkg/models"
	"gorm.io/gorm"
)

type SignerRepository struct {
	db *gorm.DB
}

func NewSignerRepository(db *gorm.DB) *SignerRepository {
	return &SignerRepository{db: db}
}

func (r *SignerRepository) Create(signer *models.Signer) error {
	return r.db.Create(signer).Error
}

// GetByIDAndDocument scopes lookups to the parent document so updates
// can never leak across documents.
func (r *SignerRepository) GetByIDAndDocument(id, documentID uuid.UUID) (*models.Signer, error) {
	var signer models.Signer
	err := r.db.First(&signer, "id = ? AND document_id = ?", id, documentID).Error
	if err != nil {
		return nil, err
	}
	return &signer, nil
}

// GetByTokenAndDocument is the webhook correlation lookup. The document
// filter guards against remote token collisions between documents.
func (r *SignerRepository) GetByTokenAndDocument(token string, documentID uuid.UUID) (*models.Signer, error) {
	var signer models.Signer
	err := r.db.First(&signer, "token = ? AND document_id = ?", token, documentID).Error
	if err != nil {
		return nil, err
	}
	return &signer, nil
}

func (r *SignerRepository) Save(signer *models.Signer) error {
	return r.db.Save(signer).Error
}

func (r *SignerRepository) UpdateStatus(id uuid.UUID, status string) error {
	return r.db.Model(&models.Signer{}).Where("id = ?", id).Update("status", status).Error
}

func (r *SignerRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&models.Signer{}, "id = ?", id).Error
}
