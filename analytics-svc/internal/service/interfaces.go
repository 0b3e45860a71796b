package service

import (
	"context"

	"digital-menu/analytics-svc/internal/domain"
)

type AnalyticsInterface interface {
	Summary(ctx context.Context, ownerID string) (domain.Summary, error)
	TopItems(ctx context.Context, ownerID, eventType string, limit int) ([]domain.ItemScore, error)
	Daily(ctx context.Context, ownerID string, days int) ([]domain.DayCount, error)
}

var _ AnalyticsInterface = (*AnalyticsService)(nil)
