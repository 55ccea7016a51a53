package repository

import (
	"context"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	pkgkafka "StockCast/pkg/kafka"
)

// KafkaEventPublisher pushes alert and prediction events to Kafka. Messages
// are keyed by symbol so per-symbol ordering holds within a partition.
type KafkaEventPublisher struct {
	producer        *pkgkafka.Producer
	alertTopic      string
	predictionTopic string
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, alertTopic, predictionTopic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		producer:        producer,
		alertTopic:      alertTopic,
		predictionTopic: predictionTopic,
	}
}

func (p *KafkaEventPublisher) PublishAlert(ctx context.Context, a *models.Alert) error {
	return p.producer.Publish(ctx, p.alertTopic, []byte(a.Symbol), a)
}

func (p *KafkaEventPublisher) PublishPrediction(ctx context.Context, f *models.Forecast) error {
	return p.producer.Publish(ctx, p.predictionTopic, []byte(f.Symbol), f)
}

func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher satisfies EventPublisher when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishAlert(context.Context, *models.Alert) error { return nil }

func (NoopPublisher) PublishPrediction(context.Context, *models.Forecast) error { return nil }

func (NoopPublisher) Close() error { return nil }

var (
	_ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)
	_ domrepo.EventPublisher = NoopPublisher{}
)
