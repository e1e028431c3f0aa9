package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wmorato/ZapSign/middlewares"
	"github.com/wmorato/ZapSign/pkg/models"
	"github.com/wmorato/ZapSign/pkg/repositories"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials covers both unknown email and wrong password,
// so login responses never reveal which one failed.
var ErrInvalidCredentials = errors.New("invalid email or password")

type CompanyService struct {
	companies *repositories.CompanyRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewCompanyService(db *gorm.DB, jwtSecret string, tokenTTL time.Duration) *CompanyService {
	return &CompanyService{
		companies: repositories.NewCompanyRepository(db),
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

func (s *CompanyService) Create(name, apiToken string) (*models.Company, error) {
	company := &models.Company{Name: name, APIToken: apiToken}
	if err := s.companies.Create(company); err != nil {
		return nil, err
	}
	return company, nil
}

func (s *CompanyService) Get(id uuid.UUID) (*models.Company, error) {
	return s.companies.GetByID(id)
}

func (s *CompanyService) List() ([]models.Company, error) {
	return s.companies.List()
}

func (s *CompanyService) RegisterUser(companyID uuid.UUID, email, password string) (*models.User, error) {
	if _, err := s.companies.GetByID(companyID); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		CompanyID:    companyID,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.companies.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues a bearer token scoped to the
// user's company.
func (s *CompanyService) Login(email, password string) (string, *models.User, error) {
	user, err := s.companies.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := middlewares.IssueToken(s.jwtSecret, user.ID, user.CompanyID, s.tokenTTL)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// IssueAPIKey mints a new automation key. The raw key is returned once
// and only its hash is stored.
func (s *CompanyService) IssueAPIKey(companyID uuid.UUID, name string) (string, *models.APIKey, error) {
	if _, err := s.companies.GetByID(companyID); err != nil {
		return "", nil, err
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, err
	}
	raw := "zs_" + hex.EncodeToString(buf)

	key := &models.APIKey{
		CompanyID: companyID,
		Name:      name,
		Hash:      middlewares.HashAPIKey(raw),
	}
	if err := s.companies.CreateAPIKey(key); err != nil {
		return "", nil, err
	}
	return raw, key, nil
}
