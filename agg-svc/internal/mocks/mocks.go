// Package mocks holds testify mocks for the agg-svc service interfaces.
package mocks

import (
	"context"

	"digital-menu/agg-svc/internal/domain"

	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

type StoreInterface struct{ mock.Mock }

func NewStoreInterface(t testingT) *StoreInterface {
	m := &StoreInterface{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *StoreInterface) RecordEvent(ctx context.Context, e domain.Event) error {
	return m.Called(ctx, e).Error(0)
}

func (m *StoreInterface) UpdateCounters(ctx context.Context, e domain.Event) error {
	return m.Called(ctx, e).Error(0)
}
