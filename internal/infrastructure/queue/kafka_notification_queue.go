// Package queue implements the NotificationQueue on Kafka, decoupling
// subscription matching from webhook delivery.
package queue

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/agrovia/riskengine/internal/config"
	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/internal/domain/service"
	"github.com/agrovia/riskengine/pkg/errors"
	"github.com/agrovia/riskengine/pkg/logger"
)

// KafkaNotificationQueue publishes notification events to the notification
// topic. Events are keyed by tenant so one tenant's notifications stay
// ordered within a partition.
type KafkaNotificationQueue struct {
	writer *kafka.Writer
	logger logger.Logger
}

// NewKafkaNotificationQueue creates the Kafka-backed queue.
func NewKafkaNotificationQueue(cfg *config.KafkaConfig, log logger.Logger) service.NotificationQueue {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.NotificationTopic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
	}
	return &KafkaNotificationQueue{
		writer: writer,
		logger: log.WithComponent("notification-queue"),
	}
}

// Enqueue publishes one event.
func (q *KafkaNotificationQueue) Enqueue(ctx context.Context, event *models.NotificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.ErrInternal("encoding notification event", err)
	}

	err = q.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.TenantID),
		Value: payload,
	})
	if err != nil {
		q.logger.Error(ctx, "notification publish failed", err,
			logger.String("event_id", event.EventID),
			logger.String("tenant_id", event.TenantID))
		return errors.ErrUnavailable("publishing notification event", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (q *KafkaNotificationQueue) Close() error {
	return q.writer.Close()
}
