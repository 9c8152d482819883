package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"funnel_backend/internal/retrieval"
	"funnel_backend/internal/scoring"
	"funnel_backend/internal/settings/domain"
	"funnel_backend/platform/apperr"
	"funnel_backend/platform/logger"

	"golang.org/x/sync/singleflight"
)

const (
	defaultCacheTTL = 60 * time.Second
	refreshKey      = "settings"
)

// Service serves settings from a TTL cache. Concurrent refreshes collapse
// into one store read; a failed refresh keeps serving the last good values.
type Service struct {
	repo     domain.Repository
	defaults domain.Settings
	ttl      time.Duration
	timeout  time.Duration
	now      func() time.Time
	log      *logger.Logger

	group    singleflight.Group
	mu       sync.RWMutex
	cached   domain.Settings
	loadedAt time.Time
	loaded   bool
}

func New(repo domain.Repository, defaults domain.Settings, ttl, timeout time.Duration, log *logger.Logger) *Service {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Service{
		repo:     repo,
		defaults: defaults,
		ttl:      ttl,
		timeout:  timeout,
		now:      time.Now,
		log:      log,
		cached:   defaults,
	}
}

// Current never fails; callers always get usable settings.
func (s *Service) Current(ctx context.Context) domain.Settings {
	s.mu.RLock()
	fresh := s.loaded && s.now().Sub(s.loadedAt) < s.ttl
	cached := s.cached
	s.mu.RUnlock()
	if fresh {
		return cached
	}

	v, _, _ := s.group.Do(refreshKey, func() (any, error) {
		settings, err := s.refresh(ctx)
		if err != nil {
			s.log.StoreError("settings.Load", err)
		}
		return settings, nil
	})
	return v.(domain.Settings)
}

func (s *Service) refresh(ctx context.Context) (domain.Settings, error) {
	loadCtx, cancel := s.withTimeout(context.WithoutCancel(ctx))
	defer cancel()

	values, err := s.repo.Load(loadCtx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	s.loadedAt = s.now()
	if err != nil {
		return s.cached, err
	}
	s.cached = s.decode(values)
	return s.cached, nil
}

// decode applies stored values one key at a time so a single bad row does
// not hide the rest.
func (s *Service) decode(values map[string]string) domain.Settings {
	out := s.defaults
	for key, value := range values {
		next, err := out.Apply(map[string]string{key: value})
		if err != nil {
			s.log.Warn("ignoring stored setting", "key", key, "error", err)
			continue
		}
		out = next
	}
	return out
}

// Update validates and persists values, then replaces the cache.
func (s *Service) Update(ctx context.Context, values map[string]string) (domain.Settings, error) {
	if len(values) == 0 {
		return domain.Settings{}, apperr.Validation("no settings provided")
	}

	next, err := s.Current(ctx).Apply(values)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownKey) || errors.Is(err, domain.ErrInvalidValue) {
			return domain.Settings{}, apperr.Validation(err.Error())
		}
		return domain.Settings{}, apperr.Wrap(apperr.KindInternal, "failed to apply settings", err)
	}

	encoded := next.Values()
	changed := make(map[string]string, len(values))
	for key := range values {
		changed[key] = encoded[key]
	}

	saveCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.repo.Save(saveCtx, changed); err != nil {
		s.log.StoreError("settings.Save", err)
		return domain.Settings{}, apperr.Wrap(apperr.KindInternal, "failed to save settings", err)
	}

	s.mu.Lock()
	s.cached = next
	s.loaded = true
	s.loadedAt = s.now()
	s.mu.Unlock()

	s.log.Info("settings updated", "keys", len(changed))
	return next, nil
}

// Weights returns the current scoring weights.
func (s *Service) Weights(ctx context.Context) scoring.Weights {
	return s.Current(ctx).Weights()
}

// RetrievalConfig adapts the settings for the retrieval orchestrator.
func (s *Service) RetrievalConfig(welcome string) retrieval.ConfigFunc {
	return func(ctx context.Context) retrieval.Config {
		cur := s.Current(ctx)
		return retrieval.Config{
			MaxProducts: cur.MaxProductsToShow,
			Welcome:     welcome,
			Groups:      cur.CollectionGroups,
		}
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
