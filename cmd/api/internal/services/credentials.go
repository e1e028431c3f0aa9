package services

import (
	"github.com/google/uuid"
	"github.com/wmorato/ZapSign/pkg/repositories"
	"github.com/wmorato/ZapSign/pkg/zapsign"
	"gorm.io/gorm"
)

// CredentialResolver picks the provider token for a company: the
// company's own token when set, otherwise the process-wide fallback.
type CredentialResolver struct {
	companies   *repositories.CompanyRepository
	baseURL     string
	globalToken string
}

func NewCredentialResolver(db *gorm.DB, baseURL, globalToken string) *CredentialResolver {
	return &CredentialResolver{
		companies:   repositories.NewCompanyRepository(db),
		baseURL:     baseURL,
		globalToken: globalToken,
	}
}

// ClientFor returns a provider client authenticated for the company.
// ErrNoCredential when no token can be resolved at either tier.
func (r *CredentialResolver) ClientFor(companyID uuid.UUID) (*zapsign.Client, error) {
	company, err := r.companies.GetByID(companyID)
	if err != nil {
		return nil, err
	}

	token := company.APIToken
	if token == "" {
		token = r.globalToken
	}
	if token == "" {
		return nil, ErrNoCredential
	}
	return zapsign.NewClient(r.baseURL, token), nil
}
