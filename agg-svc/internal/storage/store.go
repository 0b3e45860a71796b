package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"digital-menu/agg-svc/internal/domain"

	"github.com/redis/go-redis/v9"
)

const DailyRetention = 7 * 24 * time.Hour

func DailyKey(day time.Time, ownerID, eventType string) string {
	return fmt.Sprintf("analytics:daily:%s:%s:%s", day.UTC().Format("2006-01-02"), ownerID, eventType)
}

func TotalsKey(ownerID string) string {
	return "analytics:totals:" + ownerID
}

type Store struct {
	db  *sql.DB
	rdb *redis.Client
}

func NewStore(db *sql.DB, rdb *redis.Client) *Store {
	return &Store{
		db:  db,
		rdb: rdb,
	}
}

func (s *Store) RecordEvent(ctx context.Context, e domain.Event) error {
	var itemID any
	if e.ItemID != nil {
		itemID = *e.ItemID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analytics_events (event_type, owner_id, item_id, occurred_at)
		VALUES ($1, $2, $3, $4)
	`, e.Type, e.OwnerID, itemID, e.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert analytics event: %w", err)
	}
	return nil
}

// UpdateCounters bumps the per-day item leaderboard and the all-time totals.
func (s *Store) UpdateCounters(ctx context.Context, e domain.Event) error {
	dailyKey := DailyKey(e.OccurredAt, e.OwnerID, e.Type)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZIncrBy(ctx, dailyKey, 1, e.Member())
		pipe.Expire(ctx, dailyKey, DailyRetention)
		pipe.HIncrBy(ctx, TotalsKey(e.OwnerID), e.Type, 1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("update counters: %w", err)
	}
	return nil
}
