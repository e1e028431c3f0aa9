package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company is the tenant boundary. Every document query is filtered by
// company id; nothing ever crosses it.
type Company struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"size:255;not null" json:"name"`
	// APIToken is this company's own e-signature provider credential.
	// Empty means the process-wide fallback token is used.
	APIToken  string    `gorm:"size:512" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"last_updated_at"`

	Documents []Document `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	APIKeys   []APIKey   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Users     []User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// User is a company-scoped account authenticated via JWT.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CompanyID    uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`

	Company Company `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// APIKey authenticates automation callers (n8n and friends). Only the
// sha256 of the key is stored.
type APIKey struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	Name      string    `gorm:"size:100" json:"name"`
	Hash      string    `gorm:"size:64;not null;uniqueIndex" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Company Company `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE" json:"-"`
}

func (k *APIKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}
