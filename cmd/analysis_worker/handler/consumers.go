package handler

import (
	"context"
	"encoding/json"

	"github.com/wmorato/ZapSign/pkg/kafka"
	"github.com/wmorato/ZapSign/pkg/types"
	"go.uber.org/zap"
)

// HandleAnalysisTasks consumes the analysis topic until ctx is
// cancelled. Malformed messages are logged and dropped; task failures
// are handled inside the processor, so the loop itself never stops on
// one bad task.
func HandleAnalysisTasks(ctx context.Context, broker string, processor *Processor, logger *zap.Logger) {
	topic := types.TopicDocumentAnalysis
	c := kafka.NewConsumer(topic, []string{broker}, "analysis_worker")
	defer c.Close()

	logger.Info("Starting Kafka consumer", zap.String("topic", topic), zap.String("broker", broker))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down analysis consumer", zap.String("topic", topic))
			return
		default:
			m, err := c.ReadFromKafka(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Error("Error reading Kafka message", zap.String("topic", topic), zap.Error(err))
				continue
			}

			var task types.AnalysisTask
			if err := json.Unmarshal(m.Value, &task); err != nil {
				logger.Error("Failed to unmarshal analysis task",
					zap.ByteString("raw", m.Value),
					zap.Error(err),
				)
				continue
			}

			logger.Info("Kafka message received",
				zap.String("topic", topic),
				zap.ByteString("key", m.Key),
				zap.Int64("offset", m.Offset),
			)

			if err := processor.Process(ctx, task); err != nil {
				logger.Error("Analysis task failed permanently",
					zap.String("document_id", task.DocumentID.String()),
					zap.Error(err),
				)
			}
		}
	}
}
