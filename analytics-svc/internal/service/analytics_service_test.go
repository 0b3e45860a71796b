package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"digital-menu/analytics-svc/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 3, 15, 0, 0, 0, time.UTC)

func setupService(t *testing.T) (*AnalyticsService, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	svc := NewAnalyticsService(db, rdb, nil)
	svc.now = func() time.Time { return fixedNow }
	t.Cleanup(func() { assert.NoError(t, sqlMock.ExpectationsWereMet()) })
	return svc, sqlMock, mr
}

func TestSummary_FromRedis(t *testing.T) {
	svc, _, mr := setupService(t)
	mr.HSet("analytics:totals:owner-1", "menu_view", "12", "add_to_cart", "4")

	summary, err := svc.Summary(context.Background(), "owner-1")

	require.NoError(t, err)
	assert.Equal(t, domain.SourceRedis, summary.Source)
	assert.Equal(t, map[string]int64{
		"menu_view":   12,
		"item_view":   0,
		"add_to_cart": 4,
		"checkout":    0,
	}, summary.Totals)
}

func TestSummary_FallsBackToPostgres(t *testing.T) {
	svc, sqlMock, _ := setupService(t)
	sqlMock.ExpectQuery("SELECT event_type, COUNT\\(\\*\\)").
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"event_type", "count"}).
			AddRow("menu_view", 3).
			AddRow("checkout", 1))

	summary, err := svc.Summary(context.Background(), "owner-1")

	require.NoError(t, err)
	assert.Equal(t, domain.SourcePostgres, summary.Source)
	assert.Equal(t, int64(3), summary.Totals["menu_view"])
	assert.Equal(t, int64(1), summary.Totals["checkout"])
	assert.Equal(t, int64(0), summary.Totals["add_to_cart"])
}

func TestSummary_DatabaseError(t *testing.T) {
	svc, sqlMock, _ := setupService(t)
	sqlMock.ExpectQuery("FROM analytics_events").WillReturnError(errors.New("connection refused"))

	_, err := svc.Summary(context.Background(), "owner-1")

	assert.Error(t, err)
}

func TestTopItems_FromRedisSkipsRemovedItems(t *testing.T) {
	svc, sqlMock, mr := setupService(t)
	key := "analytics:daily:2024-05-03:owner-1:add_to_cart"
	mr.ZAdd(key, 7, "A")
	mr.ZAdd(key, 5, "gone")
	mr.ZAdd(key, 2, "B")

	sqlMock.ExpectQuery("SELECT id, name FROM menu_items").
		WithArgs("owner-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow("B", "Es Teh").
			AddRow("A", "Nasi Goreng"))

	items, err := svc.TopItems(context.Background(), "owner-1", domain.EventAddToCart, 5)

	require.NoError(t, err)
	assert.Equal(t, []domain.ItemScore{
		{ItemID: "A", Name: "Nasi Goreng", Score: 7},
		{ItemID: "B", Name: "Es Teh", Score: 2},
	}, items)
}

func TestTopItems_RespectsLimit(t *testing.T) {
	svc, sqlMock, mr := setupService(t)
	key := "analytics:daily:2024-05-03:owner-1:item_view"
	mr.ZAdd(key, 9, "A")
	mr.ZAdd(key, 8, "B")
	mr.ZAdd(key, 1, "C")

	sqlMock.ExpectQuery("SELECT id, name FROM menu_items").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow("A", "Sate").
			AddRow("B", "Bakso"))

	items, err := svc.TopItems(context.Background(), "owner-1", domain.EventItemView, 2)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].ItemID)
	assert.Equal(t, "B", items[1].ItemID)
}

func TestTopItems_FallsBackToPostgres(t *testing.T) {
	svc, sqlMock, _ := setupService(t)
	sqlMock.ExpectQuery("JOIN menu_items m ON m.id = e.item_id").
		WithArgs("owner-1", "add_to_cart", time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), 5).
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "name", "score"}).
			AddRow("A", "Nasi Goreng", 3))

	items, err := svc.TopItems(context.Background(), "owner-1", domain.EventAddToCart, 5)

	require.NoError(t, err)
	assert.Equal(t, []domain.ItemScore{{ItemID: "A", Name: "Nasi Goreng", Score: 3}}, items)
}

func TestTopItems_InvalidQuery(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		limit     int
	}{
		{name: "not an item event", eventType: domain.EventMenuView, limit: 5},
		{name: "unknown type", eventType: "order_placed", limit: 5},
		{name: "zero limit", eventType: domain.EventAddToCart, limit: 0},
		{name: "limit too large", eventType: domain.EventAddToCart, limit: MaxTopItems + 1},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			svc, _, _ := setupService(t)

			_, err := svc.TopItems(context.Background(), "owner-1", testCase.eventType, testCase.limit)

			assert.ErrorIs(t, err, domain.ErrInvalidQuery)
		})
	}
}

func TestDaily_FillsMissingDays(t *testing.T) {
	svc, sqlMock, _ := setupService(t)
	sqlMock.ExpectQuery("GROUP BY day, event_type").
		WithArgs("owner-1", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(sqlmock.NewRows([]string{"day", "event_type", "count"}).
			AddRow(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), "menu_view", 4).
			AddRow(time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), "checkout", 2))

	series, err := svc.Daily(context.Background(), "owner-1", 3)

	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.Equal(t, "2024-05-01", series[0].Date)
	assert.Equal(t, int64(4), series[0].Counts["menu_view"])
	assert.Equal(t, "2024-05-02", series[1].Date)
	assert.Equal(t, domain.EmptyCounts(), series[1].Counts)
	assert.Equal(t, "2024-05-03", series[2].Date)
	assert.Equal(t, int64(2), series[2].Counts["checkout"])
}

func TestDaily_InvalidRange(t *testing.T) {
	svc, _, _ := setupService(t)

	_, err := svc.Daily(context.Background(), "owner-1", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)

	_, err = svc.Daily(context.Background(), "owner-1", MaxDays+1)
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}
