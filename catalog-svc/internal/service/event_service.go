package service

import (
	"context"
	"errors"
	"time"

	"digital-menu/catalog-svc/internal/domain"
)

var ErrInvalidEvent = errors.New("invalid analytics event")

type EventService struct {
	publisher EventPublisher
}

func NewEventService(publisher EventPublisher) *EventService {
	return &EventService{publisher: publisher}
}

func (s *EventService) Record(ctx context.Context, event domain.Event) error {
	if !domain.ValidEventType(event.Type) || event.OwnerID == "" {
		return ErrInvalidEvent
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if s.publisher == nil {
		return nil
	}
	return s.publisher.PublishEvent(ctx, event)
}

var _ EventServiceInterface = (*EventService)(nil)
