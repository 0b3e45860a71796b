// Package mocks holds testify mocks for the catalog-svc service interfaces.
package mocks

import (
	"context"

	"digital-menu/catalog-svc/internal/domain"

	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

type MenuRepository struct{ mock.Mock }

func NewMenuRepository(t testingT) *MenuRepository {
	m := &MenuRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MenuRepository) ListItems(ctx context.Context, ownerID string) ([]domain.MenuItem, error) {
	args := m.Called(ctx, ownerID)
	items, _ := args.Get(0).([]domain.MenuItem)
	return items, args.Error(1)
}

func (m *MenuRepository) CreateItem(ctx context.Context, item *domain.MenuItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MenuRepository) GetItem(ctx context.Context, ownerID, id string) (*domain.MenuItem, error) {
	args := m.Called(ctx, ownerID, id)
	item, _ := args.Get(0).(*domain.MenuItem)
	return item, args.Error(1)
}

func (m *MenuRepository) UpdateItem(ctx context.Context, ownerID, id string, patch domain.MenuItemPatch) (int64, error) {
	args := m.Called(ctx, ownerID, id, patch)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MenuRepository) DeleteItem(ctx context.Context, ownerID, id string) (int64, error) {
	args := m.Called(ctx, ownerID, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MenuRepository) SetPositions(ctx context.Context, ownerID string, pairs []domain.PositionPair) error {
	return m.Called(ctx, ownerID, pairs).Error(0)
}

type AccountRepository struct{ mock.Mock }

func NewAccountRepository(t testingT) *AccountRepository {
	m := &AccountRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *AccountRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	return m.Called(ctx, account).Error(0)
}

func (m *AccountRepository) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	account, _ := args.Get(0).(*domain.Account)
	return account, args.Error(1)
}

func (m *AccountRepository) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	args := m.Called(ctx, id)
	account, _ := args.Get(0).(*domain.Account)
	return account, args.Error(1)
}

type SettingsRepository struct{ mock.Mock }

func NewSettingsRepository(t testingT) *SettingsRepository {
	m := &SettingsRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *SettingsRepository) GetSettings(ctx context.Context, ownerID string) (*domain.Settings, error) {
	args := m.Called(ctx, ownerID)
	settings, _ := args.Get(0).(*domain.Settings)
	return settings, args.Error(1)
}

func (m *SettingsRepository) GetSettingsBySlug(ctx context.Context, slug string) (*domain.Settings, error) {
	args := m.Called(ctx, slug)
	settings, _ := args.Get(0).(*domain.Settings)
	return settings, args.Error(1)
}

func (m *SettingsRepository) UpsertSettings(ctx context.Context, settings *domain.Settings) error {
	return m.Called(ctx, settings).Error(0)
}

type SessionCache struct{ mock.Mock }

func NewSessionCache(t testingT) *SessionCache {
	m := &SessionCache{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *SessionCache) SaveSession(ctx context.Context, token, ownerID string) error {
	return m.Called(ctx, token, ownerID).Error(0)
}

func (m *SessionCache) LookupSession(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *SessionCache) DeleteSession(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

type MenuCache struct{ mock.Mock }

func NewMenuCache(t testingT) *MenuCache {
	m := &MenuCache{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MenuCache) GetPublicMenu(ctx context.Context, slug string) ([]byte, bool, error) {
	args := m.Called(ctx, slug)
	payload, _ := args.Get(0).([]byte)
	return payload, args.Bool(1), args.Error(2)
}

func (m *MenuCache) SetPublicMenu(ctx context.Context, slug string, payload []byte) error {
	return m.Called(ctx, slug, payload).Error(0)
}

func (m *MenuCache) InvalidatePublicMenu(ctx context.Context, slug string) error {
	return m.Called(ctx, slug).Error(0)
}

type ObjectStore struct{ mock.Mock }

func NewObjectStore(t testingT) *ObjectStore {
	m := &ObjectStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *ObjectStore) Put(ctx context.Context, ownerID string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, ownerID, data, contentType)
	return args.String(0), args.Error(1)
}

type EventPublisher struct{ mock.Mock }

func NewEventPublisher(t testingT) *EventPublisher {
	m := &EventPublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *EventPublisher) PublishEvent(ctx context.Context, event domain.Event) error {
	return m.Called(ctx, event).Error(0)
}

type QRGenerator struct{ mock.Mock }

func NewQRGenerator(t testingT) *QRGenerator {
	m := &QRGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *QRGenerator) Generate(content string) ([]byte, error) {
	args := m.Called(content)
	qr, _ := args.Get(0).([]byte)
	return qr, args.Error(1)
}
