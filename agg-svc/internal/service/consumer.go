package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"digital-menu/agg-svc/internal/domain"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Consumer struct {
	Reader MessageReader
	Store  StoreInterface
	Logger *zap.Logger
}

func NewConsumer(reader MessageReader, store StoreInterface, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{
		Reader: reader,
		Store:  store,
		Logger: logger,
	}
}

// Run consumes until ctx is cancelled. Every message is committed once handled,
// including ones that could not be decoded or stored, so a bad record never
// blocks the partition.
func (c *Consumer) Run(ctx context.Context) error {
	c.Logger.Info("analytics consumer started")
	for {
		message, err := c.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.Logger.Error("failed to read message", zap.Error(err))
			continue
		}

		c.handle(ctx, message)

		if err := c.Reader.CommitMessages(ctx, message); err != nil && ctx.Err() == nil {
			c.Logger.Error("failed to commit message", zap.Int64("offset", message.Offset), zap.Error(err))
		}
	}
}

func (c *Consumer) handle(ctx context.Context, message kafka.Message) {
	var event domain.Event
	if err := json.Unmarshal(message.Value, &event); err != nil {
		c.Logger.Warn("skipping undecodable message", zap.Int64("offset", message.Offset), zap.Error(err))
		return
	}
	if err := c.ProcessEvent(ctx, event); err != nil {
		c.Logger.Error("failed to process event",
			zap.String("type", event.Type),
			zap.String("owner_id", event.OwnerID),
			zap.Error(err))
	}
}

// ProcessEvent stores the raw event and then updates the Redis counters.
func (c *Consumer) ProcessEvent(ctx context.Context, e domain.Event) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: type=%q owner=%q", err, e.Type, e.OwnerID)
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	if err := c.Store.RecordEvent(ctx, e); err != nil {
		return err
	}
	if err := c.Store.UpdateCounters(ctx, e); err != nil {
		return errors.Join(errors.New("event stored but counters are stale"), err)
	}
	return nil
}
