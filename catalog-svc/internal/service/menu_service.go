package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"digital-menu/catalog-svc/internal/domain"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const MaxUploadBytes = 10 << 20

var ErrUnsupportedImage = errors.New("invalid file type, only JPEG, PNG, GIF, WebP allowed")

type QRGenerator interface {
	Generate(content string) ([]byte, error)
}

type DefaultQRGenerator struct {
	Size int
}

func (g DefaultQRGenerator) Generate(content string) ([]byte, error) {
	size := g.Size
	if size == 0 {
		size = 256
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}

type MenuService struct {
	repo          MenuRepository
	settings      SettingsRepository
	cache         MenuCache
	objects       ObjectStore
	qr            QRGenerator
	storefrontURL string
	logger        *zap.Logger
	now           func() time.Time
}

type MenuServiceDeps struct {
	Repo          MenuRepository
	Settings      SettingsRepository
	Cache         MenuCache
	Objects       ObjectStore
	QR            QRGenerator
	StorefrontURL string
	Logger        *zap.Logger
}

func NewMenuService(deps MenuServiceDeps) *MenuService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MenuService{
		repo:          deps.Repo,
		settings:      deps.Settings,
		cache:         deps.Cache,
		objects:       deps.Objects,
		qr:            deps.QR,
		storefrontURL: strings.TrimRight(deps.StorefrontURL, "/"),
		logger:        logger,
		now:           time.Now,
	}
}

func (s *MenuService) List(ctx context.Context, ownerID string) ([]domain.MenuItem, error) {
	return s.repo.ListItems(ctx, ownerID)
}

// Create assigns the identifier and creation time; the caller's position is kept.
func (s *MenuService) Create(ctx context.Context, ownerID string, item *domain.MenuItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	item.ID = uuid.NewString()
	item.OwnerID = ownerID
	item.CreatedAt = s.now().UnixMilli()
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return fmt.Errorf("create menu item: %w", err)
	}
	s.invalidate(ctx, ownerID)
	return nil
}

func (s *MenuService) Update(ctx context.Context, ownerID, id string, patch domain.MenuItemPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	affected, err := s.repo.UpdateItem(ctx, ownerID, id, patch)
	if err != nil {
		return fmt.Errorf("update menu item: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	s.invalidate(ctx, ownerID)
	return nil
}

func (s *MenuService) Delete(ctx context.Context, ownerID, id string) error {
	affected, err := s.repo.DeleteItem(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	s.invalidate(ctx, ownerID)
	return nil
}

func (s *MenuService) SetPositions(ctx context.Context, ownerID string, pairs []domain.PositionPair) error {
	seen := make(map[string]bool, len(pairs))
	for _, pair := range pairs {
		if pair.ID == "" || pair.Position < 0 || seen[pair.ID] {
			return fmt.Errorf("%w: bad position pair for %q", domain.ErrInvalidItem, pair.ID)
		}
		seen[pair.ID] = true
	}
	if len(pairs) == 0 {
		return nil
	}
	if err := s.repo.SetPositions(ctx, ownerID, pairs); err != nil {
		return err
	}
	s.invalidate(ctx, ownerID)
	return nil
}

func (s *MenuService) Upload(ctx context.Context, ownerID string, data []byte, contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
	default:
		return "", ErrUnsupportedImage
	}
	if len(data) == 0 || len(data) > MaxUploadBytes {
		return "", fmt.Errorf("%w: size %d", ErrUnsupportedImage, len(data))
	}
	return s.objects.Put(ctx, ownerID, data, contentType)
}

func (s *MenuService) PublicMenu(ctx context.Context, slug string) (*domain.PublicMenu, error) {
	if s.cache != nil {
		if payload, ok, err := s.cache.GetPublicMenu(ctx, slug); err == nil && ok {
			var menu domain.PublicMenu
			if err := json.Unmarshal(payload, &menu); err == nil {
				return &menu, nil
			}
		} else if err != nil {
			s.logger.Warn("public menu cache read failed", zap.String("slug", slug), zap.Error(err))
		}
	}

	settings, err := s.settings.GetSettingsBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, settings.OwnerID)
	if err != nil {
		return nil, err
	}
	menu := &domain.PublicMenu{Settings: *settings, Items: items}

	if s.cache != nil {
		if payload, err := json.Marshal(menu); err == nil {
			if err := s.cache.SetPublicMenu(ctx, slug, payload); err != nil {
				s.logger.Warn("public menu cache write failed", zap.String("slug", slug), zap.Error(err))
			}
		}
	}
	return menu, nil
}

func (s *MenuService) StorefrontLink(slug string) string {
	return s.storefrontURL + "/" + slug
}

func (s *MenuService) MenuQRCode(ctx context.Context, slug string) ([]byte, error) {
	if _, err := s.settings.GetSettingsBySlug(ctx, slug); err != nil {
		return nil, err
	}
	return s.qr.Generate(s.StorefrontLink(slug))
}

func (s *MenuService) invalidate(ctx context.Context, ownerID string) {
	if s.cache == nil || s.settings == nil {
		return
	}
	settings, err := s.settings.GetSettings(ctx, ownerID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("settings lookup for cache invalidation failed", zap.String("owner_id", ownerID), zap.Error(err))
		}
		return
	}
	if err := s.cache.InvalidatePublicMenu(ctx, settings.Slug); err != nil {
		s.logger.Warn("public menu cache invalidation failed", zap.String("slug", settings.Slug), zap.Error(err))
	}
}

var _ MenuServiceInterface = (*MenuService)(nil)
