package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wmorato/ZapSign/pkg/hub"
	"github.com/wmorato/ZapSign/pkg/models"
	"github.com/wmorato/ZapSign/pkg/repositories"
	"github.com/wmorato/ZapSign/pkg/types"
	"github.com/wmorato/ZapSign/pkg/zapsign"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DocumentService drives the document lifecycle: local rows stay
// consistent with the provider, and every committed change is broadcast
// to the company's document list group.
type DocumentService struct {
	docs     *repositories.DocumentRepository
	signers  *repositories.SignerRepository
	creds    *CredentialResolver
	analysis *AnalysisService
	notifier hub.Notifier
	log      *zap.Logger
}

func NewDocumentService(db *gorm.DB, creds *CredentialResolver, analysis *AnalysisService, notifier hub.Notifier, log *zap.Logger) *DocumentService {
	return &DocumentService{
		docs:     repositories.NewDocumentRepository(db),
		signers:  repositories.NewSignerRepository(db),
		creds:    creds,
		analysis: analysis,
		notifier: notifier,
		log:      log,
	}
}

// SyncResult is the outcome of a manual status sync.
type SyncResult struct {
	DocumentID uuid.UUID `json:"document_id"`
	Status     string    `json:"new_status"`
	Changed    bool      `json:"changed"`
}

// Create registers the document locally and with the provider. The
// local row is provisional until the remote create succeeds; on any
// provider failure it is removed so failed creations leave no trace.
func (s *DocumentService) Create(ctx context.Context, companyID uuid.UUID, req *types.CreateDocumentRequest) (*models.Document, error) {
	if (req.URLPDF == "") == (req.Base64PDF == "") {
		return nil, ErrPDFSourceRequired
	}

	client, err := s.creds.ClientFor(companyID)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		CompanyID:  companyID,
		Name:       req.Name,
		ExternalID: req.ExternalID,
		URLPDF:     req.URLPDF,
		CreatedBy:  req.CreatedBy,
	}
	if err := s.docs.Create(doc); err != nil {
		return nil, err
	}

	payload := make([]zapsign.SignerPayload, 0, len(req.Signers))
	for _, in := range req.Signers {
		payload = append(payload, zapsign.SignerPayload{
			Name:       in.Name,
			Email:      in.Email,
			ExternalID: in.ExternalID,
		})
	}

	remote, err := client.CreateDocument(ctx, req.Name, req.ExternalID, req.URLPDF, req.Base64PDF, payload)
	if err != nil {
		if delErr := s.docs.Delete(doc.ID); delErr != nil {
			s.log.Error("failed to roll back provisional document",
				zap.String("document_id", doc.ID.String()),
				zap.Error(delErr),
			)
		}
		return nil, err
	}

	doc.OpenID = remote.ID
	doc.Token = remote.Token
	doc.Status = remote.Status
	if err := s.docs.Save(doc); err != nil {
		return nil, err
	}

	// Provider signer order follows request order, so match by index.
	// Local signers beyond the provider's list stay untokened.
	for i, in := range req.Signers {
		signer := &models.Signer{
			DocumentID: doc.ID,
			Name:       in.Name,
			Email:      in.Email,
			ExternalID: in.ExternalID,
			Status:     "new",
		}
		if i < len(remote.Signers) {
			signer.Token = remote.Signers[i].Token
			if remote.Signers[i].Status != "" {
				signer.Status = remote.Signers[i].Status
			}
		}
		if err := s.signers.Create(signer); err != nil {
			return nil, err
		}
	}

	s.analysis.TryEnqueueFromSource(ctx, doc, req.Base64PDF)

	created, err := s.docs.GetByID(doc.ID, companyID)
	if err != nil {
		return nil, err
	}
	s.notifier.BroadcastDocumentListUpdate(ctx, companyID, types.EventDocumentCreated, created)
	return created, nil
}

// Update applies a partial update. Signer removals run against the
// provider first and abort the whole update on failure; signer upserts
// after the fact are best effort remotely.
func (s *DocumentService) Update(ctx context.Context, companyID, documentID uuid.UUID, req *types.UpdateDocumentRequest) (*models.Document, error) {
	doc, err := s.docs.GetByID(documentID, companyID)
	if err != nil {
		return nil, err
	}
	client, err := s.creds.ClientFor(companyID)
	if err != nil {
		return nil, err
	}

	for _, signerID := range req.SignersToRemove {
		signer, err := s.signers.GetByIDAndDocument(signerID, doc.ID)
		if err != nil {
			return nil, err
		}
		if signer.Token != "" {
			if err := client.RemoveSigner(ctx, signer.Token); err != nil {
				return nil, err
			}
		}
		if err := s.signers.Delete(signer.ID); err != nil {
			return nil, err
		}
	}

	if req.Name != nil {
		doc.Name = *req.Name
	}
	if req.ExternalID != nil {
		doc.ExternalID = *req.ExternalID
	}
	if req.URLPDF != nil {
		doc.URLPDF = *req.URLPDF
	}
	if err := s.docs.Save(doc); err != nil {
		return nil, err
	}

	for _, in := range req.Signers {
		if in.ID == nil {
			// New signers added after creation exist locally only; the
			// provider does not accept signers on an in-flight document.
			signer := &models.Signer{
				DocumentID: doc.ID,
				Name:       in.Name,
				Email:      in.Email,
				ExternalID: in.ExternalID,
				Status:     "new",
			}
			if err := s.signers.Create(signer); err != nil {
				return nil, err
			}
			s.log.Info("signer added locally without provider registration",
				zap.String("document_id", doc.ID.String()),
				zap.String("signer_id", signer.ID.String()),
			)
			continue
		}

		signer, err := s.signers.GetByIDAndDocument(*in.ID, doc.ID)
		if err != nil {
			return nil, err
		}
		signer.Name = in.Name
		signer.Email = in.Email
		signer.ExternalID = in.ExternalID
		if err := s.signers.Save(signer); err != nil {
			return nil, err
		}
		if signer.Token != "" {
			if err := client.UpdateSigner(ctx, signer.Token, in.Name, in.Email, in.ExternalID); err != nil {
				s.log.Warn("remote signer update failed, local state kept",
					zap.String("signer_token", signer.Token),
					zap.Error(err),
				)
			}
		}
	}

	updated, err := s.docs.GetByID(doc.ID, companyID)
	if err != nil {
		return nil, err
	}
	s.notifier.BroadcastDocumentListUpdate(ctx, companyID, types.EventDocumentUpdated, updated)
	return updated, nil
}

// Get returns a company's document, refreshing its provider status best
// effort. A provider failure returns the stale local row, never an
// error.
func (s *DocumentService) Get(ctx context.Context, companyID, documentID uuid.UUID) (*models.Document, error) {
	doc, err := s.docs.GetByID(documentID, companyID)
	if err != nil {
		return nil, err
	}
	if doc.Token == "" {
		return doc, nil
	}

	client, err := s.creds.ClientFor(companyID)
	if err != nil {
		return doc, nil
	}
	remote, err := client.GetDocumentStatus(ctx, doc.Token)
	if err != nil {
		s.log.Warn("status refresh failed, serving local state",
			zap.String("document_id", doc.ID.String()),
			zap.Error(err),
		)
		return doc, nil
	}

	if s.applyRemoteState(doc, remote) {
		return s.docs.GetByID(doc.ID, companyID)
	}
	return doc, nil
}

// ManualSync force-refreshes the provider status and always broadcasts,
// so clients resynchronize even when nothing changed.
func (s *DocumentService) ManualSync(ctx context.Context, companyID, documentID uuid.UUID) (*SyncResult, error) {
	doc, err := s.docs.GetByID(documentID, companyID)
	if err != nil {
		return nil, err
	}
	if doc.Token == "" {
		return nil, ErrSyncUnavailable
	}
	client, err := s.creds.ClientFor(companyID)
	if err != nil {
		return nil, err
	}

	remote, err := client.GetDocumentStatus(ctx, doc.Token)
	if err != nil {
		return nil, err
	}

	changed := s.applyRemoteState(doc, remote)
	result := &SyncResult{DocumentID: doc.ID, Status: remote.Status, Changed: changed}

	refreshed, err := s.docs.GetByID(doc.ID, companyID)
	if err != nil {
		return nil, err
	}
	s.notifier.BroadcastDocumentListUpdate(ctx, companyID, types.EventDocumentUpdated, refreshed)
	return result, nil
}

// Delete removes the document at the provider first; a remote failure
// aborts so local and remote never diverge silently.
func (s *DocumentService) Delete(ctx context.Context, companyID, documentID uuid.UUID) error {
	doc, err := s.docs.GetByID(documentID, companyID)
	if err != nil {
		return err
	}

	if doc.Token != "" {
		client, err := s.creds.ClientFor(companyID)
		if err != nil {
			return err
		}
		if err := client.DeleteDocument(ctx, doc.Token); err != nil {
			return err
		}
	}

	if err := s.docs.Delete(doc.ID); err != nil {
		return err
	}
	s.notifier.BroadcastDocumentListUpdate(ctx, companyID, types.EventDocumentDeleted, map[string]string{"id": doc.ID.String()})
	return nil
}

// DownloadLink fetches the signed-file URL fresh from the provider on
// every call. The stored URL is advisory; the provider is the source of
// truth for whether a signed file exists.
func (s *DocumentService) DownloadLink(ctx context.Context, companyID, documentID uuid.UUID) (string, error) {
	doc, err := s.docs.GetByID(documentID, companyID)
	if err != nil {
		return "", err
	}
	if doc.Token == "" {
		return "", ErrSyncUnavailable
	}
	client, err := s.creds.ClientFor(companyID)
	if err != nil {
		return "", err
	}

	remote, err := client.GetDocumentStatus(ctx, doc.Token)
	if err != nil {
		return "", err
	}
	if remote.SignedFile == "" {
		return "", ErrSignedFileUnavailable
	}

	if remote.SignedFile != doc.SignedFileURL {
		if err := s.docs.UpdateFields(doc.ID, map[string]interface{}{"signed_file_url": remote.SignedFile}); err != nil {
			return "", err
		}
	}
	return remote.SignedFile, nil
}

// DownloadPDF streams the signed file bytes through the provider's
// download endpoint, for callers that want the content rather than a
// link.
func (s *DocumentService) DownloadPDF(ctx context.Context, companyID, documentID uuid.UUID) ([]byte, error) {
	doc, err := s.docs.GetByID(documentID, companyID)
	if err != nil {
		return nil, err
	}
	if doc.Token == "" {
		return nil, ErrSyncUnavailable
	}
	client, err := s.creds.ClientFor(companyID)
	if err != nil {
		return nil, err
	}
	return client.DownloadSignedPDF(ctx, doc.Token)
}

// List returns all of a company's documents, newest first.
func (s *DocumentService) List(companyID uuid.UUID) ([]models.Document, error) {
	return s.docs.ListByCompany(companyID)
}

// ReportSummary aggregates a company's documents over a period.
type ReportSummary struct {
	CompanyID uuid.UUID      `json:"company_id"`
	StartDate string         `json:"start_date"`
	EndDate   string         `json:"end_date"`
	Total     int            `json:"total_documents"`
	ByStatus  map[string]int `json:"by_status"`
}

// MonthlyReport builds the automation summary for a date range.
func (s *DocumentService) MonthlyReport(companyID uuid.UUID, from, to time.Time) (*ReportSummary, error) {
	docs, err := s.docs.ListByCompanyAndPeriod(companyID, from, to)
	if err != nil {
		return nil, err
	}

	summary := &ReportSummary{
		CompanyID: companyID,
		StartDate: from.Format("2006-01-02"),
		EndDate:   to.Format("2006-01-02"),
		Total:     len(docs),
		ByStatus:  make(map[string]int),
	}
	for _, doc := range docs {
		status := doc.Status
		if status == "" {
			status = "unknown"
		}
		summary.ByStatus[status]++
	}
	return summary, nil
}

// applyRemoteState copies changed provider fields onto the local row
// and persists them. Reports whether anything changed.
func (s *DocumentService) applyRemoteState(doc *models.Document, remote *zapsign.DocumentResponse) bool {
	fields := map[string]interface{}{}
	if remote.Status != "" && remote.Status != doc.Status {
		fields["status"] = remote.Status
		doc.Status = remote.Status
	}
	if remote.SignedFile != "" && remote.SignedFile != doc.SignedFileURL {
		fields["signed_file_url"] = remote.SignedFile
		doc.SignedFileURL = remote.SignedFile
	}
	if len(fields) == 0 {
		return false
	}
	if err := s.docs.UpdateFields(doc.ID, fields); err != nil {
		s.log.Error("failed to persist provider state",
			zap.String("document_id", doc.ID.String()),
			zap.Error(err),
		)
		return false
	}
	return true
}
