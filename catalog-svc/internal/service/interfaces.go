package service

import (
	"context"

	"digital-menu/catalog-svc/internal/domain"
	"digital-menu/catalog-svc/internal/storage"
)

type MenuRepository interface {
	ListItems(ctx context.Context, ownerID string) ([]domain.MenuItem, error)
	CreateItem(ctx context.Context, item *domain.MenuItem) error
	GetItem(ctx context.Context, ownerID, id string) (*domain.MenuItem, error)
	UpdateItem(ctx context.Context, ownerID, id string, patch domain.MenuItemPatch) (int64, error)
	DeleteItem(ctx context.Context, ownerID, id string) (int64, error)
	SetPositions(ctx context.Context, ownerID string, pairs []domain.PositionPair) error
}

type AccountRepository interface {
	CreateAccount(ctx context.Context, account *domain.Account) error
	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
}

type SettingsRepository interface {
	GetSettings(ctx context.Context, ownerID string) (*domain.Settings, error)
	GetSettingsBySlug(ctx context.Context, slug string) (*domain.Settings, error)
	UpsertSettings(ctx context.Context, settings *domain.Settings) error
}

type SessionCache interface {
	SaveSession(ctx context.Context, token, ownerID string) error
	LookupSession(ctx context.Context, token string) (string, error)
	DeleteSession(ctx context.Context, token string) error
}

type MenuCache interface {
	GetPublicMenu(ctx context.Context, slug string) ([]byte, bool, error)
	SetPublicMenu(ctx context.Context, slug string, payload []byte) error
	InvalidatePublicMenu(ctx context.Context, slug string) error
}

type ObjectStore interface {
	Put(ctx context.Context, ownerID string, data []byte, contentType string) (string, error)
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, event domain.Event) error
}

type MenuServiceInterface interface {
	List(ctx context.Context, ownerID string) ([]domain.MenuItem, error)
	Create(ctx context.Context, ownerID string, item *domain.MenuItem) error
	Update(ctx context.Context, ownerID, id string, patch domain.MenuItemPatch) error
	Delete(ctx context.Context, ownerID, id string) error
	SetPositions(ctx context.Context, ownerID string, pairs []domain.PositionPair) error
	Upload(ctx context.Context, ownerID string, data []byte, contentType string) (string, error)
	PublicMenu(ctx context.Context, slug string) (*domain.PublicMenu, error)
	MenuQRCode(ctx context.Context, slug string) ([]byte, error)
}

type AuthServiceInterface interface {
	Signup(ctx context.Context, email, password string) (*domain.Account, error)
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*domain.Account, error)
}

type SettingsServiceInterface interface {
	Get(ctx context.Context, ownerID string) (*domain.Settings, error)
	Save(ctx context.Context, settings *domain.Settings) error
}

type EventServiceInterface interface {
	Record(ctx context.Context, event domain.Event) error
}

var (
	_ MenuRepository     = (*storage.PostgresRepository)(nil)
	_ AccountRepository  = (*storage.PostgresRepository)(nil)
	_ SettingsRepository = (*storage.PostgresRepository)(nil)
	_ SessionCache       = (*storage.RedisCache)(nil)
	_ MenuCache          = (*storage.RedisCache)(nil)
	_ ObjectStore        = (*storage.DiskObjectStore)(nil)
	_ EventPublisher     = (*storage.KafkaPublisher)(nil)
)
