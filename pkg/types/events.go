package types

import "github.com/google/uuid"

// Kafka topics for the analysis pipeline.
const (
	TopicDocumentAnalysis    = "document.analysis"
	TopicDocumentAnalysisDLQ = "document.analysis.dlq"
)

// AnalysisTask is the message published to the document.analysis topic
// and consumed by the analysis worker.
type AnalysisTask struct {
	DocumentID uuid.UUID `json:"document_id"`
	Content    string    `json:"content"`
	ModelName  string    `json:"model_name"`
}

// Business event names broadcast through the notification hub.
const (
	EventDocumentCreated      = "document_created"
	EventDocumentUpdated      = "document_updated"
	EventDocumentDeleted      = "document_deleted"
	EventAnalysisStatusUpdate = "analysis_status_update"
	EventAnalysisCompleted    = "analysis_completed"
)
