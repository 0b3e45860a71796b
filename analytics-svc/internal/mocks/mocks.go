// Package mocks holds testify mocks for the analytics-svc service interfaces.
package mocks

import (
	"context"

	"digital-menu/analytics-svc/internal/domain"

	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

type AnalyticsInterface struct{ mock.Mock }

func NewAnalyticsInterface(t testingT) *AnalyticsInterface {
	m := &AnalyticsInterface{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *AnalyticsInterface) Summary(ctx context.Context, ownerID string) (domain.Summary, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(domain.Summary), args.Error(1)
}

func (m *AnalyticsInterface) TopItems(ctx context.Context, ownerID, eventType string, limit int) ([]domain.ItemScore, error) {
	args := m.Called(ctx, ownerID, eventType, limit)
	items, _ := args.Get(0).([]domain.ItemScore)
	return items, args.Error(1)
}

func (m *AnalyticsInterface) Daily(ctx context.Context, ownerID string, days int) ([]domain.DayCount, error) {
	args := m.Called(ctx, ownerID, days)
	series, _ := args.Get(0).([]domain.DayCount)
	return series, args.Error(1)
}
