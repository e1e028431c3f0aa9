package services

import (
	"context"
	"errors"

	"github.com/wmorato/ZapSign/metrics"
	"github.com/wmorato/ZapSign/pkg/hub"
	"github.com/wmorato/ZapSign/pkg/repositories"
	"github.com/wmorato/ZapSign/pkg/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WebhookService reconciles inbound provider events onto local rows.
// Updates are diff-checked, so replaying the same event is a no-op and
// triggers no broadcast.
type WebhookService struct {
	docs     *repositories.DocumentRepository
	signers  *repositories.SignerRepository
	notifier hub.Notifier
	log      *zap.Logger
}

func NewWebhookService(db *gorm.DB, notifier hub.Notifier, log *zap.Logger) *WebhookService {
	return &WebhookService{
		docs:     repositories.NewDocumentRepository(db),
		signers:  repositories.NewSignerRepository(db),
		notifier: notifier,
		log:      log,
	}
}

// Process applies one webhook event. An unknown document token is not
// an error: the provider may fan out events for documents this system
// never created, and a non-2xx answer would only cause redelivery.
// Returns false when the event was ignored.
func (s *WebhookService) Process(ctx context.Context, payload *types.WebhookPayload) (bool, error) {
	doc, err := s.docs.GetByToken(payload.Token)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.WebhookEventsTotal.WithLabelValues("ignored").Inc()
		s.log.Info("webhook for unknown document token ignored",
			zap.String("event_type", payload.EventType),
		)
		return false, nil
	}
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("error").Inc()
		return false, err
	}

	changed := false
	if payload.Status != "" && payload.Status != doc.Status {
		doc.Status = payload.Status
		changed = true
	}
	if payload.SignedFile != "" && payload.SignedFile != doc.SignedFileURL {
		doc.SignedFileURL = payload.SignedFile
		changed = true
	}
	if changed {
		if err := s.docs.Save(doc); err != nil {
			metrics.WebhookEventsTotal.WithLabelValues("error").Inc()
			return false, err
		}
	}

	// Signer matching is scoped to this document; the same provider
	// token on another company's document is never touched.
	for _, ws := range payload.Signers {
		if ws.Token == "" || ws.Status == "" {
			continue
		}
		signer, err := s.signers.GetByTokenAndDocument(ws.Token, doc.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			metrics.WebhookEventsTotal.WithLabelValues("error").Inc()
			return false, err
		}
		if signer.Status == ws.Status {
			continue
		}
		if err := s.signers.UpdateStatus(signer.ID, ws.Status); err != nil {
			metrics.WebhookEventsTotal.WithLabelValues("error").Inc()
			return false, err
		}
		changed = true
	}

	if changed {
		refreshed, err := s.docs.GetByIDAny(doc.ID)
		if err != nil {
			return false, err
		}
		s.notifier.BroadcastDocumentUpdate(ctx, doc.ID, types.EventDocumentUpdated, refreshed)
		s.notifier.BroadcastDocumentListUpdate(ctx, doc.CompanyID, types.EventDocumentUpdated, refreshed)
	}

	metrics.WebhookEventsTotal.WithLabelValues("processed").Inc()
	return true, nil
}
