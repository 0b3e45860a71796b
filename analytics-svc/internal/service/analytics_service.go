package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"digital-menu/analytics-svc/internal/domain"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	MaxTopItems = 50
	MaxDays     = 90
)

func dailyKey(day time.Time, ownerID, eventType string) string {
	return "analytics:daily:" + day.UTC().Format("2006-01-02") + ":" + ownerID + ":" + eventType
}

func totalsKey(ownerID string) string {
	return "analytics:totals:" + ownerID
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AnalyticsService reads the counters agg-svc maintains. Redis is tried first;
// Postgres holds the raw events and answers when Redis has nothing.
type AnalyticsService struct {
	db     *sql.DB
	rdb    *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewAnalyticsService(db *sql.DB, rdb *redis.Client, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		db:     db,
		rdb:    rdb,
		logger: logger,
		now:    time.Now,
	}
}

func (s *AnalyticsService) Summary(ctx context.Context, ownerID string) (domain.Summary, error) {
	summary := domain.Summary{OwnerID: ownerID, Totals: domain.EmptyCounts()}

	totals, err := s.rdb.HGetAll(ctx, totalsKey(ownerID)).Result()
	if err != nil {
		s.logger.Warn("totals unavailable in redis", zap.String("owner_id", ownerID), zap.Error(err))
	}
	if err == nil && len(totals) > 0 {
		for eventType, raw := range totals {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				continue
			}
			summary.Totals[eventType] = n
		}
		summary.Source = domain.SourceRedis
		return summary, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT event_type, COUNT(*)
		FROM analytics_events
		WHERE owner_id = $1
		GROUP BY event_type
	`, ownerID)
	if err != nil {
		return summary, fmt.Errorf("query totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventType string
		var count int64
		if err := rows.Scan(&eventType, &count); err != nil {
			return summary, err
		}
		summary.Totals[eventType] = count
	}
	summary.Source = domain.SourcePostgres
	return summary, rows.Err()
}

// TopItems ranks today's items for an item-scoped event type. Items that have
// since been removed from the menu are skipped.
func (s *AnalyticsService) TopItems(ctx context.Context, ownerID, eventType string, limit int) ([]domain.ItemScore, error) {
	if !domain.IsItemEvent(eventType) || limit < 1 || limit > MaxTopItems {
		return nil, domain.ErrInvalidQuery
	}
	today := startOfDay(s.now())

	scores, err := s.rdb.ZRevRangeWithScores(ctx, dailyKey(today, ownerID, eventType), 0, int64(limit)).Result()
	if err != nil {
		s.logger.Warn("daily leaderboard unavailable in redis", zap.String("owner_id", ownerID), zap.Error(err))
	}

	ranked := make([]domain.ItemScore, 0, len(scores))
	ids := make([]string, 0, len(scores))
	for _, z := range scores {
		member, _ := z.Member.(string)
		if member == "" || member == domain.NoItem {
			continue
		}
		ranked = append(ranked, domain.ItemScore{ItemID: member, Score: z.Score})
		ids = append(ids, member)
	}

	if len(ranked) > 0 {
		names, err := s.itemNames(ctx, ownerID, ids)
		if err != nil {
			return nil, err
		}
		top := ranked[:0]
		for _, item := range ranked {
			name, ok := names[item.ItemID]
			if !ok {
				continue
			}
			item.Name = name
			top = append(top, item)
		}
		if len(top) > limit {
			top = top[:limit]
		}
		if len(top) > 0 {
			return top, nil
		}
	}
	return s.topItemsFromDB(ctx, ownerID, eventType, today, limit)
}

func (s *AnalyticsService) itemNames(ctx context.Context, ownerID string, ids []string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name FROM menu_items WHERE owner_id = $1 AND id = ANY($2)
	`, ownerID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("resolve item names: %w", err)
	}
	defer rows.Close()

	names := make(map[string]string, len(ids))
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

func (s *AnalyticsService) topItemsFromDB(ctx context.Context, ownerID, eventType string, since time.Time, limit int) ([]domain.ItemScore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.item_id, m.name, COUNT(*) AS score
		FROM analytics_events e
		JOIN menu_items m ON m.id = e.item_id
		WHERE e.owner_id = $1 AND e.event_type = $2 AND e.occurred_at >= $3
		GROUP BY e.item_id, m.name
		ORDER BY score DESC, e.item_id
		LIMIT $4
	`, ownerID, eventType, since, limit)
	if err != nil {
		return nil, fmt.Errorf("query top items: %w", err)
	}
	defer rows.Close()

	top := []domain.ItemScore{}
	for rows.Next() {
		var item domain.ItemScore
		if err := rows.Scan(&item.ItemID, &item.Name, &item.Score); err != nil {
			return nil, err
		}
		top = append(top, item)
	}
	return top, rows.Err()
}

// Daily returns one entry per UTC day, oldest first and ending today. Days
// without events are present with zero counts.
func (s *AnalyticsService) Daily(ctx context.Context, ownerID string, days int) ([]domain.DayCount, error) {
	if days < 1 || days > MaxDays {
		return nil, domain.ErrInvalidQuery
	}
	since := startOfDay(s.now()).AddDate(0, 0, -(days - 1))

	series := make([]domain.DayCount, days)
	index := make(map[string]int, days)
	for i := range series {
		date := since.AddDate(0, 0, i).Format("2006-01-02")
		series[i] = domain.DayCount{Date: date, Counts: domain.EmptyCounts()}
		index[date] = i
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT (occurred_at AT TIME ZONE 'UTC')::date AS day, event_type, COUNT(*)
		FROM analytics_events
		WHERE owner_id = $1 AND occurred_at >= $2
		GROUP BY day, event_type
		ORDER BY day
	`, ownerID, since)
	if err != nil {
		return nil, fmt.Errorf("query daily counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var day time.Time
		var eventType string
		var count int64
		if err := rows.Scan(&day, &eventType, &count); err != nil {
			return nil, err
		}
		if i, ok := index[day.Format("2006-01-02")]; ok {
			series[i].Counts[eventType] = count
		}
	}
	return series, rows.Err()
}
