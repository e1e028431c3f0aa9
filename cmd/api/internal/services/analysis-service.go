package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/wmorato/ZapSign/metrics"
	"github.com/wmorato/ZapSign/pkg/models"
	"github.com/wmorato/ZapSign/pkg/pdf"
	"github.com/wmorato/ZapSign/pkg/repositories"
	"github.com/wmorato/ZapSign/pkg/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TaskPublisher is the producer surface the service needs. Satisfied by
// *kafka.Producer.
type TaskPublisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

const pdfFetchTimeout = 10 * time.Second

// AnalysisService owns the producer side of the analysis pipeline:
// extracting document text and publishing tasks for the worker.
type AnalysisService struct {
	docs         *repositories.DocumentRepository
	analyses     *repositories.AnalysisRepository
	producer     TaskPublisher
	defaultModel string
	fetchClient  *http.Client
	log          *zap.Logger
}

func NewAnalysisService(db *gorm.DB, producer TaskPublisher, defaultModel string, log *zap.Logger) *AnalysisService {
	return &AnalysisService{
		docs:         repositories.NewDocumentRepository(db),
		analyses:     repositories.NewAnalysisRepository(db),
		producer:     producer,
		defaultModel: defaultModel,
		fetchClient:  &http.Client{Timeout: pdfFetchTimeout},
		log:          log,
	}
}

// Enqueue records a pending analysis row and publishes the task.
func (s *AnalysisService) Enqueue(ctx context.Context, documentID uuid.UUID, content string) error {
	if _, err := s.analyses.GetOrCreate(documentID, models.AnalysisPending, s.defaultModel); err != nil {
		return err
	}

	task := types.AnalysisTask{
		DocumentID: documentID,
		Content:    content,
		ModelName:  s.defaultModel,
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	if err := s.producer.Publish(ctx, types.TopicDocumentAnalysis, []byte(documentID.String()), payload); err != nil {
		return err
	}
	metrics.AnalysisTasksTotal.WithLabelValues(s.defaultModel, "enqueued").Inc()
	return nil
}

// TryEnqueueFromSource kicks off analysis right after document creation,
// best effort: any failure is logged and swallowed so it never breaks
// the create flow.
func (s *AnalysisService) TryEnqueueFromSource(ctx context.Context, doc *models.Document, base64PDF string) {
	content, err := s.extractContent(ctx, base64PDF, doc.URLPDF)
	if err != nil {
		s.log.Warn("skipping analysis for new document",
			zap.String("document_id", doc.ID.String()),
			zap.Error(err),
		)
		return
	}
	if err := s.Enqueue(ctx, doc.ID, content); err != nil {
		s.log.Warn("failed to enqueue analysis for new document",
			zap.String("document_id", doc.ID.String()),
			zap.Error(err),
		)
	}
}

// Reanalyze resets a document's analysis and enqueues a fresh task. The
// document must still have a url_pdf to re-read the content from; a
// download or extraction failure is persisted as a failed analysis.
func (s *AnalysisService) Reanalyze(ctx context.Context, companyID, documentID uuid.UUID) error {
	doc, err := s.docs.GetByID(documentID, companyID)
	if err != nil {
		return err
	}
	if doc.URLPDF == "" {
		return ErrAnalysisSourceRequired
	}

	if _, err := s.analyses.GetOrCreate(documentID, models.AnalysisPending, s.defaultModel); err != nil {
		return err
	}
	if err := s.analyses.ResetToPending(documentID, s.defaultModel); err != nil {
		return err
	}

	content, err := s.extractContent(ctx, "", doc.URLPDF)
	if err != nil {
		s.failAnalysis(documentID, fmt.Sprintf("could not read document content: %v", err))
		return err
	}

	payload, err := json.Marshal(types.AnalysisTask{
		DocumentID: documentID,
		Content:    content,
		ModelName:  s.defaultModel,
	})
	if err != nil {
		return err
	}
	if err := s.producer.Publish(ctx, types.TopicDocumentAnalysis, []byte(documentID.String()), payload); err != nil {
		s.failAnalysis(documentID, "could not schedule analysis task")
		return err
	}
	metrics.AnalysisTasksTotal.WithLabelValues(s.defaultModel, "enqueued").Inc()
	return nil
}

// Get returns the analysis for a company's document.
func (s *AnalysisService) Get(companyID, documentID uuid.UUID) (*models.DocumentAnalysis, error) {
	if _, err := s.docs.GetByID(documentID, companyID); err != nil {
		return nil, err
	}
	return s.analyses.GetByDocument(documentID)
}

func (s *AnalysisService) failAnalysis(documentID uuid.UUID, summary string) {
	analysis, err := s.analyses.GetByDocument(documentID)
	if err != nil {
		s.log.Error("failed to load analysis for failure update",
			zap.String("document_id", documentID.String()),
			zap.Error(err),
		)
		return
	}
	analysis.Status = models.AnalysisFailed
	analysis.Summary = &summary
	if err := s.analyses.Save(analysis); err != nil {
		s.log.Error("failed to persist analysis failure",
			zap.String("document_id", documentID.String()),
			zap.Error(err),
		)
	}
}

// extractContent reads PDF bytes from base64 (preferred) or url and
// extracts their text.
func (s *AnalysisService) extractContent(ctx context.Context, base64PDF, urlPDF string) (string, error) {
	var data []byte
	switch {
	case base64PDF != "":
		decoded, err := base64.StdEncoding.DecodeString(base64PDF)
		if err != nil {
			return "", fmt.Errorf("invalid base64 pdf: %w", err)
		}
		data = decoded
	case urlPDF != "":
		fetched, err := s.fetchPDF(ctx, urlPDF)
		if err != nil {
			return "", err
		}
		data = fetched
	default:
		return "", ErrAnalysisSourceRequired
	}

	return pdf.ExtractText(data)
}

func (s *AnalysisService) fetchPDF(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.fetchClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download pdf: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pdf download returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
