package types

import "github.com/google/uuid"

// SignerInput is a signer supplied on document create/update. ID is set
// only when updating an existing signer.
type SignerInput struct {
	ID         *uuid.UUID `json:"id,omitempty"`
	Name       string     `json:"name" binding:"required"`
	Email      string     `json:"email"`
	ExternalID string     `json:"external_id"`
}

// CreateDocumentRequest creates a document locally and at the provider.
// Exactly one of URLPDF / Base64PDF must be set.
type CreateDocumentRequest struct {
	Name       string        `json:"name" binding:"required"`
	ExternalID string        `json:"external_id"`
	URLPDF     string        `json:"url_pdf"`
	Base64PDF  string        `json:"base64_pdf"`
	CreatedBy  string        `json:"created_by"`
	Signers    []SignerInput `json:"signers"`
}

// UpdateDocumentRequest applies a partial update. Status and tokens are
// remote-controlled and cannot be set here.
type UpdateDocumentRequest struct {
	Name            *string       `json:"name,omitempty"`
	ExternalID      *string       `json:"external_id,omitempty"`
	URLPDF          *string       `json:"url_pdf,omitempty"`
	Signers         []SignerInput `json:"signers,omitempty"`
	SignersToRemove []uuid.UUID   `json:"signers_to_remove,omitempty"`
}

// WebhookPayload is the provider's inbound event body.
type WebhookPayload struct {
	Token      string          `json:"token"`
	EventType  string          `json:"event_type"`
	Status     string          `json:"status"`
	SignedFile string          `json:"signed_file"`
	Signers    []WebhookSigner `json:"signers"`
}

type WebhookSigner struct {
	Token  string `json:"token"`
	Status string `json:"status"`
}

// ReportRequest is the automation report query.
type ReportRequest struct {
	ReportType string `json:"report_type" binding:"required"`
	StartDate  string `json:"start_date" binding:"required"`
	EndDate    string `json:"end_date" binding:"required"`
	CompanyID  string `json:"company_id" binding:"required"`
}
