// Package notifier delivers matched notification events to tenant webhooks
// with HMAC signing and bounded exponential backoff.
package notifier

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/agrovia/riskengine/internal/config"
	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/internal/domain/repository"
	domainsvc "github.com/agrovia/riskengine/internal/domain/service"
	"github.com/agrovia/riskengine/pkg/constants"
	"github.com/agrovia/riskengine/pkg/errors"
	"github.com/agrovia/riskengine/pkg/logger"
)

// WebhookNotifier fans a notification event out to the tenant's matching
// webhook registrations. Delivery is at-least-once: receivers deduplicate on
// the event ID header.
type WebhookNotifier struct {
	webhookRepo repository.WebhookRepository
	failureRepo repository.DeliveryFailureRepository
	client      *http.Client
	maxAttempts int
	backoffBase time.Duration
	metrics     domainsvc.Metrics
	log         logger.Logger
}

// NewWebhookNotifier creates the notifier.
func NewWebhookNotifier(
	webhookRepo repository.WebhookRepository,
	failureRepo repository.DeliveryFailureRepository,
	cfg *config.WebhookConfig,
	metrics domainsvc.Metrics,
	log logger.Logger,
) *WebhookNotifier {
	timeout := cfg.DeliveryTimeout
	if timeout <= 0 {
		timeout = constants.WebhookDeliveryTimeout
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = constants.WebhookMaxAttempts
	}
	backoffBase := cfg.InitialBackoff
	if backoffBase <= 0 {
		backoffBase = constants.WebhookInitialBackoff
	}
	return &WebhookNotifier{
		webhookRepo: webhookRepo,
		failureRepo: failureRepo,
		client:      &http.Client{Timeout: timeout},
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		metrics:     metrics,
		log:         log.WithComponent("webhook-notifier"),
	}
}

// Notify delivers the event to every matching registration of its tenant.
// One endpoint's failure never blocks the others; terminal failures are
// recorded and delivery moves on.
func (n *WebhookNotifier) Notify(ctx context.Context, event *models.NotificationEvent) error {
	registrations, err := n.webhookRepo.ListActiveByTenant(ctx, event.TenantID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.ErrInternal("encoding notification payload", err)
	}

	for _, reg := range registrations {
		if !reg.SubscribesTo(event.EventType) || !reg.AcceptsSeverity(event.Severity) {
			continue
		}
		n.deliver(ctx, reg, event, payload)
	}
	return nil
}

func (n *WebhookNotifier) deliver(ctx context.Context, reg *models.WebhookRegistration, event *models.NotificationEvent, payload []byte) {
	signature := Sign(payload, reg.Secret)

	var attempts int
	operation := func() error {
		attempts++
		return n.post(ctx, reg, event, payload, signature)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = n.backoffBase
	policy := backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(n.maxAttempts-1)), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		n.metrics.RecordWebhookDelivery(false)
		n.recordFailure(ctx, reg, event, attempts, err)
		return
	}

	n.metrics.RecordWebhookDelivery(true)
	n.log.Info(ctx, "webhook delivered",
		logger.String("webhook_id", reg.ID),
		logger.String("event_id", event.EventID),
		logger.Int("attempts", attempts))
}

func (n *WebhookNotifier) post(ctx context.Context, reg *models.WebhookRegistration, event *models.NotificationEvent, payload []byte, signature string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reg.URL, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.WebhookSignatureHeader, signature)
	req.Header.Set(constants.WebhookEventIDHeader, event.EventID)

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
		// The receiver rejected the request; retrying the same payload
		// cannot succeed.
		return backoff.Permanent(fmt.Errorf("receiver rejected delivery with status %d", resp.StatusCode))
	default:
		return fmt.Errorf("delivery attempt returned status %d", resp.StatusCode)
	}
}

func (n *WebhookNotifier) recordFailure(ctx context.Context, reg *models.WebhookRegistration, event *models.NotificationEvent, attempts int, cause error) {
	n.log.Error(ctx, "webhook delivery exhausted retries", cause,
		logger.String("webhook_id", reg.ID),
		logger.String("event_id", event.EventID),
		logger.Int("attempts", attempts))

	failure := &models.DeliveryFailure{
		ID:        uuid.NewString(),
		TenantID:  reg.TenantID,
		WebhookID: reg.ID,
		EventID:   event.EventID,
		URL:       reg.URL,
		Attempts:  attempts,
		LastError: cause.Error(),
		FailedAt:  time.Now().UTC(),
	}
	if err := n.failureRepo.Record(ctx, failure); err != nil {
		n.log.Error(ctx, "delivery failure record failed", err,
			logger.String("webhook_id", reg.ID))
	}
}

// Sign computes the hex HMAC-SHA256 of the payload under the webhook secret,
// in the format receivers verify: "sha256=<hex>".
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
