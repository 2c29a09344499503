//go:build test

package fakes

import (
	"context"
	"time"

	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/internal/domain/service"
)

// FakeNotificationQueue is a mock implementation of service.NotificationQueue
// for testing purposes. Enqueued events land on a buffered channel that tests
// drain with DrainOne.
type FakeNotificationQueue struct {
	ch chan models.NotificationEvent
}

// NewFakeNotificationQueue creates a new FakeNotificationQueue.
func NewFakeNotificationQueue(buf int) *FakeNotificationQueue {
	return &FakeNotificationQueue{ch: make(chan models.NotificationEvent, buf)}
}

// Enqueue puts an event on the channel.
func (q *FakeNotificationQueue) Enqueue(ctx context.Context, event *models.NotificationEvent) error {
	q.ch <- *event
	return nil
}

// DrainOne retrieves one event from the channel.
func (q *FakeNotificationQueue) DrainOne(ctx context.Context, timeout time.Duration) (*models.NotificationEvent, error) {
	select {
	case e := <-q.ch:
		return &e, nil
	case <-time.After(timeout):
		return nil, context.DeadlineExceeded
	}
}

var _ service.NotificationQueue = (*FakeNotificationQueue)(nil)
