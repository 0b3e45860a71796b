package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"digital-menu/catalog-svc/internal/domain"

	"go.uber.org/zap"
)

var ErrInvalidSettings = errors.New("invalid settings")

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
)

type SettingsService struct {
	repo   SettingsRepository
	cache  MenuCache
	logger *zap.Logger
}

func NewSettingsService(repo SettingsRepository, cache MenuCache, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, cache: cache, logger: logger}
}

func (s *SettingsService) Get(ctx context.Context, ownerID string) (*domain.Settings, error) {
	return s.repo.GetSettings(ctx, ownerID)
}

// Save upserts the profile. A slug owned by another account maps to domain.ErrDuplicateSlug.
func (s *SettingsService) Save(ctx context.Context, settings *domain.Settings) error {
	settings.Slug = strings.ToLower(strings.TrimSpace(settings.Slug))
	settings.RestaurantName = strings.TrimSpace(settings.RestaurantName)
	settings.WhatsAppNumber = strings.ReplaceAll(strings.TrimSpace(settings.WhatsAppNumber), " ", "")

	if !slugPattern.MatchString(settings.Slug) {
		return fmt.Errorf("%w: slug must be lowercase letters, digits and dashes", ErrInvalidSettings)
	}
	if settings.RestaurantName == "" {
		return fmt.Errorf("%w: restaurant name is required", ErrInvalidSettings)
	}
	if settings.WhatsAppNumber != "" && !phonePattern.MatchString(settings.WhatsAppNumber) {
		return fmt.Errorf("%w: whatsapp number must be 8-15 digits", ErrInvalidSettings)
	}

	previous, err := s.repo.GetSettings(ctx, settings.OwnerID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if err := s.repo.UpsertSettings(ctx, settings); err != nil {
		return err
	}

	if s.cache != nil {
		slugs := []string{settings.Slug}
		if previous != nil && previous.Slug != settings.Slug {
			slugs = append(slugs, previous.Slug)
		}
		for _, slug := range slugs {
			if err := s.cache.InvalidatePublicMenu(ctx, slug); err != nil {
				s.logger.Warn("public menu cache invalidation failed", zap.String("slug", slug), zap.Error(err))
			}
		}
	}
	return nil
}

var _ SettingsServiceInterface = (*SettingsService)(nil)
