package repositories

import (
	"github.com/google/uuid"
	"github.com/wmorato/ZapSign/pkg/models"
	"gorm.io/gorm"
)

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) Create(company *models.Company) error {
	return r.db.Create(company).Error
}

func (r *CompanyRepository) GetByID(id uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := r.db.First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *CompanyRepository) List() ([]models.Company, error) {
	var companies []models.Company
	if err := r.db.Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

func (r *CompanyRepository) CreateUser(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *CompanyRepository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *CompanyRepository) CreateAPIKey(key *models.APIKey) error {
	return r.db.Create(key).Error
}

// GetCompanyIDByAPIKeyHash resolves the owning company for a hashed
// automation key.
func (r *CompanyRepository) GetCompanyIDByAPIKeyHash(hash string) (uuid.UUID, error) {
	var key models.APIKey
	if err := r.db.First(&key, "hash = ?", hash).Error; err != nil {
		return uuid.Nil, err
	}
	return key.CompanyID, nil
}
