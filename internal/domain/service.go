// Package domain defines the business logic for the logbook activity service.
package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActivityRepository captures persistence operations. Every method is scoped to
// an owner; records of other owners behave as if they did not exist.
type ActivityRepository interface {
	Create(ctx context.Context, activity Activity) error
	// Get returns nil, nil when the activity is absent or not owned.
	Get(ctx context.Context, ownerID, activityID string) (*Activity, error)
	// Update applies input atomically and returns nil, nil when absent or not owned.
	Update(ctx context.Context, ownerID, activityID string, input UpdateActivityInput, now time.Time) (*Activity, error)
	// Delete reports false when nothing was removed.
	Delete(ctx context.Context, ownerID, activityID string) (bool, error)
	// List returns one page ordered by activity date then id, both descending, plus the total match count.
	List(ctx context.Context, ownerID string, query ListQuery) ([]Activity, int, error)
	ListAll(ctx context.Context, ownerID string) ([]Activity, error)
}

// StatsCache stores computed statistics per owner.
//
// Entries are tagged with the owner's generation. Invalidate advances the
// generation, so a Set carrying the generation observed before a concurrent
// write stores an entry that Get never returns.
type StatsCache interface {
	// Get returns the cached stats (nil on a miss) and the current generation.
	Get(ctx context.Context, ownerID string) (*ActivityStats, int64, error)
	Set(ctx context.Context, ownerID string, generation int64, stats ActivityStats) error
	Invalidate(ctx context.Context, ownerID string) error
}

// NoopStatsCache never hits.
type NoopStatsCache struct{}

// Get always misses.
func (NoopStatsCache) Get(context.Context, string) (*ActivityStats, int64, error) {
	return nil, 0, nil
}

// Set discards the stats.
func (NoopStatsCache) Set(context.Context, string, int64, ActivityStats) error { return nil }

// Invalidate performs no action.
func (NoopStatsCache) Invalidate(context.Context, string) error { return nil }

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithStatsCache enables read-through caching of statistics.
func WithStatsCache(cache StatsCache) Option {
	return func(s *Service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithLogger overrides the logger used to report cache failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service orchestrates activity workflows.
type Service struct {
	repo   ActivityRepository
	cache  StatsCache
	logger *zap.Logger
	now    func() time.Time
}

// NewService constructs a Service.
func NewService(repo ActivityRepository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		cache:  NoopStatsCache{},
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateActivity validates input and persists a new activity for ownerID.
func (s *Service) CreateActivity(ctx context.Context, ownerID string, input CreateActivityInput) (*Activity, error) {
	input, err := input.Normalize()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	activityDate := input.ActivityDate.UTC()
	if input.ActivityDate.IsZero() {
		activityDate = now
	}

	activity := Activity{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Title:        input.Title,
		Type:         input.Type,
		Report:       input.Report,
		ActivityDate: activityDate,
		LastModified: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, activity); err != nil {
		return nil, err
	}
	s.invalidate(ctx, ownerID)
	return &activity, nil
}

// GetActivity fetches by ID.
func (s *Service) GetActivity(ctx context.Context, ownerID, activityID string) (*Activity, error) {
	activity, err := s.repo.Get(ctx, ownerID, activityID)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, ErrActivityNotFound
	}
	return activity, nil
}

// GetActivities fetches each id in order and fails on the first missing one.
func (s *Service) GetActivities(ctx context.Context, ownerID string, activityIDs []string) ([]Activity, error) {
	out := make([]Activity, 0, len(activityIDs))
	for _, id := range activityIDs {
		activity, err := s.GetActivity(ctx, ownerID, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *activity)
	}
	return out, nil
}

// UpdateActivity applies the supplied fields of input. Concurrent updates of
// the same record resolve as last write wins.
func (s *Service) UpdateActivity(ctx context.Context, ownerID, activityID string, input UpdateActivityInput) (*Activity, error) {
	existing, err := s.repo.Get(ctx, ownerID, activityID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrActivityNotFound
	}

	input, err = input.Normalize()
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, ownerID, activityID, input, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrActivityNotFound
	}
	s.invalidate(ctx, ownerID)
	return updated, nil
}

// DeleteActivity permanently removes an activity.
func (s *Service) DeleteActivity(ctx context.Context, ownerID, activityID string) error {
	deleted, err := s.repo.Delete(ctx, ownerID, activityID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrActivityNotFound
	}
	s.invalidate(ctx, ownerID)
	return nil
}

// ListActivities returns one page of matching activities and the total match count.
func (s *Service) ListActivities(ctx context.Context, ownerID string, query ListQuery) (Page, error) {
	query = query.Normalized()
	items, total, err := s.repo.List(ctx, ownerID, query)
	if err != nil {
		return Page{}, err
	}
	return Page{Items: items, Page: query.Page, Limit: query.Limit, Total: total}, nil
}

// Stats summarizes the owner's whole collection.
func (s *Service) Stats(ctx context.Context, ownerID string) (ActivityStats, error) {
	cached, generation, cacheErr := s.cache.Get(ctx, ownerID)
	if cacheErr != nil {
		s.logger.Warn("stats cache read failed", zap.String("owner_id", ownerID), zap.Error(cacheErr))
	} else if cached != nil {
		return *cached, nil
	}

	activities, err := s.repo.ListAll(ctx, ownerID)
	if err != nil {
		return ActivityStats{}, err
	}
	stats := Summarize(activities)

	// generation unknown
	if cacheErr != nil {
		return stats, nil
	}
	if err := s.cache.Set(ctx, ownerID, generation, stats); err != nil {
		s.logger.Warn("stats cache write failed", zap.String("owner_id", ownerID), zap.Error(err))
	}
	return stats, nil
}

func (s *Service) invalidate(ctx context.Context, ownerID string) {
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.String("owner_id", ownerID), zap.Error(err))
	}
}
