// Package memory keeps activities in process memory for local development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/drjagan/e-logbook/internal/domain"
)

// Repository stores activities in a map guarded by a read/write lock.
type Repository struct {
	mu         sync.RWMutex
	activities map[string]domain.Activity
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{activities: make(map[string]domain.Activity)}
}

// Create implements domain.ActivityRepository.
func (r *Repository) Create(ctx context.Context, activity domain.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.activities[activity.ID] = activity
	return nil
}

// Get implements domain.ActivityRepository.
func (r *Repository) Get(ctx context.Context, ownerID, activityID string) (*domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	activity, ok := r.activities[activityID]
	if !ok || activity.OwnerID != ownerID {
		return nil, nil
	}
	return &activity, nil
}

// Update implements domain.ActivityRepository.
func (r *Repository) Update(ctx context.Context, ownerID, activityID string, input domain.UpdateActivityInput, now time.Time) (*domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	activity, ok := r.activities[activityID]
	if !ok || activity.OwnerID != ownerID {
		return nil, nil
	}
	activity = input.Apply(activity, now)
	r.activities[activityID] = activity
	return &activity, nil
}

// Delete implements domain.ActivityRepository.
func (r *Repository) Delete(ctx context.Context, ownerID, activityID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	activity, ok := r.activities[activityID]
	if !ok || activity.OwnerID != ownerID {
		return false, nil
	}
	delete(r.activities, activityID)
	return true, nil
}

// List implements domain.ActivityRepository.
func (r *Repository) List(ctx context.Context, ownerID string, query domain.ListQuery) ([]domain.Activity, int, error) {
	query = query.Normalized()

	r.mu.RLock()
	matches := make([]domain.Activity, 0)
	for _, activity := range r.activities {
		if activity.OwnerID == ownerID && query.Matches(activity) {
			matches = append(matches, activity)
		}
	}
	r.mu.RUnlock()

	sortNewestFirst(matches)

	total := len(matches)
	offset := query.Offset()
	if offset >= total {
		return []domain.Activity{}, total, nil
	}
	end := offset + query.Limit
	if end > total {
		end = total
	}
	page := make([]domain.Activity, end-offset)
	copy(page, matches[offset:end])
	return page, total, nil
}

// ListAll implements domain.ActivityRepository.
func (r *Repository) ListAll(ctx context.Context, ownerID string) ([]domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Activity, 0)
	for _, activity := range r.activities {
		if activity.OwnerID == ownerID {
			out = append(out, activity)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(activities []domain.Activity) {
	sort.Slice(activities, func(i, j int) bool {
		a, b := activities[i], activities[j]
		if !a.ActivityDate.Equal(b.ActivityDate) {
			return a.ActivityDate.After(b.ActivityDate)
		}
		return a.ID > b.ID
	})
}
