package remote

import (
	"context"
	"sync"
	"time"

	"digital-menu/web-svc/internal/domain"

	"go.uber.org/zap"
)

const eventTimeout = 5 * time.Second

// EventSink records storefront analytics without blocking the caller. Failures
// are logged and dropped.
type EventSink struct {
	client *Client
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewEventSink(client *Client, logger *zap.Logger) *EventSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventSink{client: client, logger: logger}
}

func (s *EventSink) Track(ownerID, eventType, itemID string) {
	event := domain.Event{Type: eventType, OwnerID: ownerID}
	if itemID != "" {
		event.ItemID = &itemID
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()
		if err := s.client.RecordEvent(ctx, event); err != nil {
			s.logger.Warn("failed to record analytics event",
				zap.String("type", eventType),
				zap.String("owner_id", ownerID),
				zap.Error(err))
		}
	}()
}

// Wait blocks until in-flight events are sent.
func (s *EventSink) Wait() {
	s.wg.Wait()
}
