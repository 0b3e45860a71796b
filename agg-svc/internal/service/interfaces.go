package service

import (
	"context"

	"digital-menu/agg-svc/internal/domain"
	"digital-menu/agg-svc/internal/storage"

	"github.com/segmentio/kafka-go"
)

type StoreInterface interface {
	RecordEvent(ctx context.Context, e domain.Event) error
	UpdateCounters(ctx context.Context, e domain.Event) error
}

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type ConsumerInterface interface {
	Run(ctx context.Context) error
	ProcessEvent(ctx context.Context, e domain.Event) error
}

var (
	_ StoreInterface    = (*storage.Store)(nil)
	_ MessageReader     = (*kafka.Reader)(nil)
	_ ConsumerInterface = (*Consumer)(nil)
)
