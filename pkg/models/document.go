package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document mirrors a document at the e-signature provider. Until Token
// is set the row is provisional: remote creation failed rows must not
// survive. Token is the sole correlation key for inbound webhooks.
type Document struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`

	// Remote identifiers, assigned by the provider on creation.
	OpenID int    `gorm:"column:open_id" json:"open_id"`
	Token  string `gorm:"size:255;index" json:"token"`

	// Status mirrors the provider vocabulary ("pending", "signed", ...).
	Status        string `gorm:"size:100" json:"status"`
	ExternalID    string `gorm:"size:255" json:"external_id"`
	URLPDF        string `gorm:"size:500" json:"url_pdf"`
	SignedFileURL string `gorm:"size:500" json:"signed_file_url"`
	CreatedBy     string `gorm:"size:255" json:"created_by"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"last_updated_at"`

	Company  Company           `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE" json:"-"`
	Signers  []Signer          `gorm:"constraint:OnDelete:CASCADE" json:"signers"`
	Analysis *DocumentAnalysis `gorm:"constraint:OnDelete:CASCADE" json:"ai_analysis,omitempty"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// Signer belongs to exactly one document. Its remote Token, once set,
// never changes; webhook signer updates match on (token, document_id).
type Signer struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Email      string    `gorm:"size:255" json:"email"`
	ExternalID string    `gorm:"size:255" json:"external_id"`
	Token      string    `gorm:"size:255;index" json:"token"`
	Status     string    `gorm:"size:100;default:new" json:"status"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"last_updated_at"`

	Document Document `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"-"`
}

func (s *Signer) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
