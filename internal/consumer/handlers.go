package consumer

import (
	"context"
	"errors"

	"github.com/drjagan/e-logbook/internal/domain"
)

// Chain runs every handler in order and stops at the first failure.
type Chain []Handler

// Handle implements Handler.
func (c Chain) Handle(ctx context.Context, msg Message) error {
	for _, h := range c {
		if err := h.Handle(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// StatsInvalidator retires the cached statistics of the event's owner so that
// replicas serving the owner recompute on the next read.
type StatsInvalidator struct {
	cache domain.StatsCache
}

// NewStatsInvalidator constructs a StatsInvalidator.
func NewStatsInvalidator(cache domain.StatsCache) *StatsInvalidator {
	return &StatsInvalidator{cache: cache}
}

// Handle implements Handler.
func (s *StatsInvalidator) Handle(ctx context.Context, msg Message) error {
	if msg.OwnerID == "" {
		return errors.New("event without owner_id header")
	}
	return s.cache.Invalidate(ctx, msg.OwnerID)
}
