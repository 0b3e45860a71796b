// Package builder keeps one live menu builder per signed-in owner: the catalog
// store, its reorderer and its mutation queue.
package builder

import (
	"context"
	"errors"
	"sync"
	"time"

	"digital-menu/web-svc/internal/catalog"
	"digital-menu/web-svc/internal/domain"
	"digital-menu/web-svc/internal/mutation"

	"go.uber.org/zap"
)

var ErrBusy = errors.New("changes are still being saved")

// Backend is everything a builder needs from catalog-svc for one owner.
type Backend interface {
	mutation.Remote
	mutation.Uploader
	catalog.PositionWriter
	List(ctx context.Context) ([]domain.MenuItem, error)
}

// Directory resolves session tokens to owners and backends.
type Directory interface {
	CurrentUser(ctx context.Context, token string) (domain.Account, error)
	Backend(token string) Backend
}

type Session struct {
	OwnerID string
	Store   *catalog.Store
	Orderer *catalog.Reorderer
	Queue   *mutation.Queue

	backend  Backend
	mu       sync.Mutex
	lastSeen time.Time
}

// Reload replaces the store with the catalog service's current list. It refuses
// while edits are in flight since they would be lost.
func (s *Session) Reload(ctx context.Context) error {
	if s.Queue.PendingCount() > 0 {
		return ErrBusy
	}
	items, err := s.backend.List(ctx)
	if err != nil {
		return err
	}
	s.Store.Load(items)
	s.Orderer.Reset()
	return nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

type Config struct {
	Mutations mutation.Config
	IdleTTL   time.Duration
}

type Manager struct {
	directory Directory
	images    mutation.ImageProcessor
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(directory Directory, images mutation.ImageProcessor, cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		directory: directory,
		images:    images,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
}

// Open returns the builder for token, loading the owner's menu on first use.
func (m *Manager) Open(ctx context.Context, token string) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[token]; ok {
		m.mu.Unlock()
		s.touch(m.now())
		return s, nil
	}
	m.mu.Unlock()

	account, err := m.directory.CurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}
	backend := m.directory.Backend(token)
	items, err := backend.List(ctx)
	if err != nil {
		return nil, err
	}

	store := catalog.NewStore()
	store.Load(items)
	s := &Session{
		OwnerID:  account.ID,
		Store:    store,
		Orderer:  catalog.NewReorderer(store, backend, m.cfg.Mutations.MetadataTimeout, m.logger),
		Queue:    mutation.NewQueue(store, backend, backend, m.images, m.cfg.Mutations, m.logger.With(zap.String("owner_id", account.ID))),
		backend:  backend,
		lastSeen: m.now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[token]; ok {
		s.Queue.Close()
		return existing, nil
	}
	m.sessions[token] = s
	m.logger.Info("builder opened", zap.String("owner_id", account.ID), zap.Int("items", len(items)))
	return s, nil
}

// Close discards the builder for token. Edits still in flight finish without
// touching the discarded store.
func (m *Manager) Close(token string) {
	m.mu.Lock()
	s, ok := m.sessions[token]
	delete(m.sessions, token)
	m.mu.Unlock()

	if ok {
		s.Queue.Close()
	}
}

// Sweep closes builders idle for longer than the configured TTL.
func (m *Manager) Sweep() int {
	if m.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.cfg.IdleTTL)

	m.mu.Lock()
	var stale []*Session
	for token, s := range m.sessions {
		if s.idleSince().Before(cutoff) && s.Queue.PendingCount() == 0 {
			stale = append(stale, s)
			delete(m.sessions, token)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Queue.Close()
	}
	return len(stale)
}

// Wait blocks until every open builder's background requests are done.
func (m *Manager) Wait() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Queue.Wait()
	}
}
