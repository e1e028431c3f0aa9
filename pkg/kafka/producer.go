package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
	"github.com/wmorato/ZapSign/metrics"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	})
	if err != nil {
		metrics.KafkaPublishFailureTotal.WithLabelValues(topic).Inc()
		return err
	}
	metrics.KafkaPublishSuccessTotal.WithLabelValues(topic).Inc()
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
