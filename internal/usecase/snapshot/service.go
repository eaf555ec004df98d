package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"job-portal/internal/domain/job"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrPersistenceDisabled = errors.New("persistence disabled")
	ErrSaveInProgress      = errors.New("snapshot save already in progress")
)

const lockTTL = 30 * time.Second

// Store saves and restores the full record list of one editor session.
type Store interface {
	Save(ctx context.Context, sessionID uuid.UUID, records []job.Record) error
	Load(ctx context.Context, sessionID uuid.UUID) ([]job.Record, error)
}

type Repository interface {
	ReplaceAll(ctx context.Context, sessionID uuid.UUID, records []job.Record) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]job.Record, error)
	DeleteBySession(ctx context.Context, sessionID uuid.UUID) (int64, error)
}

type Cache interface {
	Available() bool
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPattern(ctx context.Context, pattern string) error
	SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
}

// CachePattern matches every cached snapshot but not the save locks.
const CachePattern = "portal:snapshot:[0-9a-f]*"

func CacheKey(sessionID uuid.UUID) string {
	return "portal:snapshot:" + sessionID.String()
}

func lockKey(sessionID uuid.UUID) string {
	return "portal:snapshot:lock:" + sessionID.String()
}

// Service keeps snapshots in Postgres with a Redis read-through copy.
// Cache failures are logged and never fail a request.
type Service struct {
	repo   Repository
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewService(repo Repository, cache Cache, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, cache: cache, ttl: ttl, logger: logger.Named("snapshot")}
}

func (s *Service) Save(ctx context.Context, sessionID uuid.UUID, records []job.Record) error {
	if s.cache != nil && s.cache.Available() {
		ok, err := s.cache.SetIfNotExists(ctx, lockKey(sessionID), "1", lockTTL)
		switch {
		case err != nil:
			s.logger.Warn("save lock unavailable, continuing without it", zap.Stringer("session_id", sessionID), zap.Error(err))
		case !ok:
			return ErrSaveInProgress
		default:
			defer func() {
				if err := s.cache.Delete(context.WithoutCancel(ctx), lockKey(sessionID)); err != nil {
					s.logger.Warn("release save lock", zap.Stringer("session_id", sessionID), zap.Error(err))
				}
			}()
		}
	}

	if err := s.repo.ReplaceAll(ctx, sessionID, records); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, CacheKey(sessionID), records, s.ttl); err != nil {
			s.logger.Warn("cache snapshot", zap.Stringer("session_id", sessionID), zap.Error(err))
			// A stale copy would shadow the rows just written.
			s.dropCached(ctx, sessionID)
		}
	}

	s.logger.Info("snapshot saved", zap.Stringer("session_id", sessionID), zap.Int("records", len(records)))
	return nil
}

func (s *Service) Load(ctx context.Context, sessionID uuid.UUID) ([]job.Record, error) {
	if s.cache != nil {
		var cached []job.Record
		hit, err := s.cache.GetJSON(ctx, CacheKey(sessionID), &cached)
		if err != nil {
			s.logger.Warn("read cached snapshot", zap.Stringer("session_id", sessionID), zap.Error(err))
		}
		if hit {
			return cached, nil
		}
	}

	records, err := s.repo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, CacheKey(sessionID), records, s.ttl); err != nil {
			s.logger.Warn("cache snapshot", zap.Stringer("session_id", sessionID), zap.Error(err))
		}
	}
	return records, nil
}

// Invalidate drops the cached copy so the next Load reads Postgres. Used
// after writes that bypass Save, such as the seeder.
func (s *Service) Invalidate(ctx context.Context, sessionID uuid.UUID) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, CacheKey(sessionID)); err != nil {
		return fmt.Errorf("invalidate snapshot: %w", err)
	}
	return nil
}

// Clear deletes a session's rows and its cached copy.
func (s *Service) Clear(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	n, err := s.repo.DeleteBySession(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("clear snapshot: %w", err)
	}
	s.dropCached(ctx, sessionID)
	s.logger.Info("snapshot cleared", zap.Stringer("session_id", sessionID), zap.Int64("records", n))
	return n, nil
}

// InvalidateAll drops every cached snapshot. Called after a schema
// migration so no entry encoded against the old shape is served.
func (s *Service) InvalidateAll(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.DeleteByPattern(ctx, CachePattern); err != nil {
		return fmt.Errorf("invalidate snapshots: %w", err)
	}
	return nil
}

func (s *Service) dropCached(ctx context.Context, sessionID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(context.WithoutCancel(ctx), CacheKey(sessionID)); err != nil {
		s.logger.Warn("drop cached snapshot", zap.Stringer("session_id", sessionID), zap.Error(err))
	}
}

// Disabled is the Store used when no database is configured.
type Disabled struct{}

func (Disabled) Save(context.Context, uuid.UUID, []job.Record) error {
	return ErrPersistenceDisabled
}

func (Disabled) Load(context.Context, uuid.UUID) ([]job.Record, error) {
	return nil, ErrPersistenceDisabled
}
