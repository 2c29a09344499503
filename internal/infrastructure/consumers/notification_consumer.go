// Package consumers contains the Kafka consumers running inside the engine.
package consumers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/agrovia/riskengine/internal/config"
	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/internal/infrastructure/notifier"
	"github.com/agrovia/riskengine/pkg/logger"
)

// NotificationConsumer drains the notification topic and hands each event to
// the webhook notifier. All engine instances share one consumer group, so
// every event is delivered once across the fleet.
type NotificationConsumer struct {
	reader   *kafka.Reader
	notifier *notifier.WebhookNotifier
	logger   logger.Logger
	stop     chan struct{}
}

// NewNotificationConsumer creates the consumer.
func NewNotificationConsumer(cfg *config.KafkaConfig, wn *notifier.WebhookNotifier, log logger.Logger) *NotificationConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.NotificationTopic,
		GroupID:        cfg.ConsumerGroup,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
	return &NotificationConsumer{
		reader:   reader,
		notifier: wn,
		logger:   log.WithComponent("notification-consumer"),
		stop:     make(chan struct{}),
	}
}

// Start runs the consumer loop; blocking, run it in a goroutine.
func (c *NotificationConsumer) Start(ctx context.Context) {
	c.logger.Info(ctx, "starting notification consumer")
	for {
		select {
		case <-c.stop:
			c.logger.Info(ctx, "stopping notification consumer")
			return
		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.Error(ctx, "notification fetch failed", err)
				continue
			}

			var event models.NotificationEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				c.logger.Error(ctx, "notification event unmarshal failed", err,
					logger.String("raw", string(msg.Value)))
				// Poison pill; commit so it is not reprocessed forever.
				c.reader.CommitMessages(ctx, msg)
				continue
			}

			// The notifier handles per-endpoint failures itself: exhausted
			// deliveries land in the failure log, so the message commits
			// either way. Only infrastructure errors leave it uncommitted.
			if err := c.notifier.Notify(ctx, &event); err != nil {
				c.logger.Error(ctx, "notification handling failed", err,
					logger.String("event_id", event.EventID),
					logger.String("tenant_id", event.TenantID))
				continue
			}
			c.reader.CommitMessages(ctx, msg)
		}
	}
}

// Stop shuts the consumer down.
func (c *NotificationConsumer) Stop() {
	close(c.stop)
	if err := c.reader.Close(); err != nil {
		c.logger.Error(context.Background(), "kafka reader close failed", err)
	}
}
