package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/wmorato/ZapSign/metrics"
	"github.com/wmorato/ZapSign/pkg/ai"
	"github.com/wmorato/ZapSign/pkg/hub"
	"github.com/wmorato/ZapSign/pkg/models"
	"github.com/wmorato/ZapSign/pkg/repositories"
	"github.com/wmorato/ZapSign/pkg/types"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	maxAttempts    = 3
	defaultBackoff = 5 * time.Second
	analyzeTimeout = 60 * time.Second
)

type dlqPublisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Processor runs one analysis task end to end: document lookup, model
// call, result persistence and client notification. Every attempt is
// idempotent, so a redelivered task converges on the same final row.
type Processor struct {
	docs     *repositories.DocumentRepository
	analyses *repositories.AnalysisRepository
	registry *ai.Registry
	notifier hub.Notifier
	producer dlqPublisher
	backoff  time.Duration
	log      *zap.Logger
}

func NewProcessor(db *gorm.DB, registry *ai.Registry, notifier hub.Notifier, producer dlqPublisher, log *zap.Logger) *Processor {
	return &Processor{
		docs:     repositories.NewDocumentRepository(db),
		analyses: repositories.NewAnalysisRepository(db),
		registry: registry,
		notifier: notifier,
		producer: producer,
		backoff:  defaultBackoff,
		log:      log,
	}
}

// Process handles a task to completion. A nil return acknowledges the
// message; an error means all attempts were spent and the task went to
// the dead-letter topic.
func (p *Processor) Process(ctx context.Context, task types.AnalysisTask) error {
	doc, err := p.docs.GetByIDAny(task.DocumentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// The document was deleted while the task sat in the topic.
		// Retrying can never succeed and no analysis row may be left.
		p.log.Warn("analysis task for missing document dropped",
			zap.String("document_id", task.DocumentID.String()),
		)
		metrics.AnalysisTasksTotal.WithLabelValues(task.ModelName, "dropped").Inc()
		return nil
	}
	if err != nil {
		return err
	}

	analysis, err := p.analyses.GetOrCreate(doc.ID, models.AnalysisPending, task.ModelName)
	if err != nil {
		return err
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		p.setProcessing(ctx, analysis, task.ModelName)

		analyzer, err := p.registry.Get(task.ModelName)
		if err != nil {
			// Unknown model: no amount of retrying fixes the task.
			p.setFailed(ctx, analysis, fmt.Sprintf("unknown analysis model %q", task.ModelName))
			metrics.AnalysisTasksTotal.WithLabelValues(task.ModelName, "failed").Inc()
			return nil
		}

		result, err := p.analyze(ctx, analyzer, task)
		if err == nil {
			if err := p.setCompleted(ctx, analysis, task.ModelName, result); err != nil {
				return err
			}
			metrics.AnalysisTasksTotal.WithLabelValues(task.ModelName, "completed").Inc()
			return nil
		}

		p.setFailed(ctx, analysis, fmt.Sprintf("analysis attempt %d failed: %v", attempt, err))
		p.log.Warn("analysis attempt failed",
			zap.String("document_id", doc.ID.String()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt < maxAttempts {
			metrics.AnalysisRetriesTotal.WithLabelValues(task.ModelName).Inc()
			time.Sleep(p.backoff)
		}
	}

	metrics.AnalysisTasksTotal.WithLabelValues(task.ModelName, "failed").Inc()
	p.publishDLQ(task)
	return fmt.Errorf("analysis failed permanently after %d attempts", maxAttempts)
}

func (p *Processor) analyze(ctx context.Context, analyzer ai.Analyzer, task types.AnalysisTask) (*ai.Result, error) {
	timer := prometheus.NewTimer(metrics.AnalysisDuration.WithLabelValues(task.ModelName))
	defer timer.ObserveDuration()

	callCtx, cancel := context.WithTimeout(ctx, analyzeTimeout)
	defer cancel()
	return analyzer.Analyze(callCtx, task.Content)
}

func (p *Processor) setProcessing(ctx context.Context, analysis *models.DocumentAnalysis, modelName string) {
	analysis.Status = models.AnalysisProcessing
	analysis.ModelUsed = modelName
	if err := p.analyses.Save(analysis); err != nil {
		p.log.Error("failed to persist processing state", zap.Error(err))
	}
	p.notifier.BroadcastDocumentUpdate(ctx, analysis.DocumentID, types.EventAnalysisStatusUpdate, map[string]interface{}{
		"document_id": analysis.DocumentID,
		"status":      models.AnalysisProcessing,
	})
}

func (p *Processor) setFailed(ctx context.Context, analysis *models.DocumentAnalysis, reason string) {
	analysis.Status = models.AnalysisFailed
	analysis.Summary = &reason
	if err := p.analyses.Save(analysis); err != nil {
		p.log.Error("failed to persist failed state", zap.Error(err))
	}
	p.notifier.BroadcastDocumentUpdate(ctx, analysis.DocumentID, types.EventAnalysisStatusUpdate, map[string]interface{}{
		"document_id": analysis.DocumentID,
		"status":      models.AnalysisFailed,
		"summary":     reason,
	})
}

func (p *Processor) setCompleted(ctx context.Context, analysis *models.DocumentAnalysis, modelName string, result *ai.Result) error {
	topics, err := json.Marshal(result.MissingTopics)
	if err != nil {
		return err
	}
	insights, err := json.Marshal(result.Insights)
	if err != nil {
		return err
	}

	analysis.Status = models.AnalysisCompleted
	analysis.Summary = &result.Summary
	analysis.MissingTopics = datatypes.JSON(topics)
	analysis.Insights = datatypes.JSON(insights)
	analysis.ModelUsed = modelName
	if err := p.analyses.Save(analysis); err != nil {
		return err
	}

	p.notifier.BroadcastDocumentUpdate(ctx, analysis.DocumentID, types.EventAnalysisCompleted, map[string]interface{}{
		"document_id":    analysis.DocumentID,
		"status":         models.AnalysisCompleted,
		"summary":        result.Summary,
		"missing_topics": result.MissingTopics,
		"insights":       result.Insights,
		"model_used":     modelName,
	})
	return nil
}

func (p *Processor) publishDLQ(task types.AnalysisTask) {
	payload, err := json.Marshal(task)
	if err != nil {
		p.log.Error("failed to marshal task for DLQ", zap.Error(err))
		return
	}
	p.log.Error("permanent analysis failure, sending to DLQ",
		zap.String("document_id", task.DocumentID.String()),
		zap.String("model", task.ModelName),
	)
	if err := p.producer.Publish(context.Background(), types.TopicDocumentAnalysisDLQ, []byte(task.DocumentID.String()), payload); err != nil {
		p.log.Error("failed to publish to DLQ", zap.Error(err))
	}
}
