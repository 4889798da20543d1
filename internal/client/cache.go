package client

import (
	"context"
	"sync"

	"github.com/drjagan/e-logbook/internal/api"
)

// ResultCache holds what a caller last fetched: one page of activities, the
// statistics and the selected activity. It is owned by the caller and safe
// for concurrent use.
type ResultCache struct {
	mu       sync.RWMutex
	page     *api.ListActivitiesResponse
	stats    *api.StatsView
	selected *api.ActivityView
}

// NewResultCache returns an empty cache.
func NewResultCache() *ResultCache {
	return &ResultCache{}
}

// Page returns the last fetched page, or nil.
func (c *ResultCache) Page() *api.ListActivitiesResponse {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.page
}

// Stats returns the last fetched statistics, or nil.
func (c *ResultCache) Stats() *api.StatsView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Selected returns the selected activity, or nil.
func (c *ResultCache) Selected() *api.ActivityView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected
}

// Select marks the activity with id from the cached page as selected and
// reports whether it was found there.
func (c *ResultCache) Select(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page == nil {
		return false
	}
	for i := range c.page.Data {
		if c.page.Data[i].ID == id {
			item := c.page.Data[i]
			c.selected = &item
			return true
		}
	}
	return false
}

// Clear forgets everything.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page, c.stats, c.selected = nil, nil, nil
}

// Put replaces a cached copy of a after it was created or updated. Stats are
// dropped since they no longer reflect the collection.
func (c *ResultCache) Put(a api.ActivityView) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page != nil {
		for i := range c.page.Data {
			if c.page.Data[i].ID == a.ID {
				c.page.Data[i] = a
			}
		}
	}
	if c.selected != nil && c.selected.ID == a.ID {
		c.selected = &a
	}
	c.stats = nil
}

// Remove drops the activity with id from the cached page and selection.
func (c *ResultCache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page != nil {
		kept := c.page.Data[:0]
		removed := 0
		for _, item := range c.page.Data {
			if item.ID == id {
				removed++
				continue
			}
			kept = append(kept, item)
		}
		c.page.Data = kept
		c.page.Pagination.Total -= removed
	}
	if c.selected != nil && c.selected.ID == id {
		c.selected = nil
	}
	c.stats = nil
}

// Session pairs a Client with a ResultCache so that every call keeps the
// cache current.
type Session struct {
	Client *Client
	Cache  *ResultCache
}

// NewSession wires client to a fresh cache.
func NewSession(client *Client) *Session {
	return &Session{Client: client, Cache: NewResultCache()}
}

// LoadPage fetches a page and stores it. The selection survives only if the
// selected activity is still on the page.
func (s *Session) LoadPage(ctx context.Context, params ListParams) (*api.ListActivitiesResponse, error) {
	page, err := s.Client.ListActivities(ctx, params)
	if err != nil {
		return nil, err
	}
	c := s.Cache
	c.mu.Lock()
	c.page = page
	if c.selected != nil {
		still := false
		for _, item := range page.Data {
			if item.ID == c.selected.ID {
				c.selected = &item
				still = true
				break
			}
		}
		if !still {
			c.selected = nil
		}
	}
	c.mu.Unlock()
	return page, nil
}

// LoadStats fetches and stores the statistics.
func (s *Session) LoadStats(ctx context.Context) (*api.StatsView, error) {
	stats, err := s.Client.Stats(ctx)
	if err != nil {
		return nil, err
	}
	s.Cache.mu.Lock()
	s.Cache.stats = stats
	s.Cache.mu.Unlock()
	return stats, nil
}

// Open fetches an activity and selects it.
func (s *Session) Open(ctx context.Context, id string) (*api.ActivityView, error) {
	activity, err := s.Client.GetActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Cache.mu.Lock()
	s.Cache.selected = activity
	s.Cache.mu.Unlock()
	return activity, nil
}

// Create logs an activity and invalidates cached stats.
func (s *Session) Create(ctx context.Context, fields ActivityFields) (*api.ActivityView, error) {
	activity, err := s.Client.CreateActivity(ctx, fields)
	if err != nil {
		return nil, err
	}
	s.Cache.Put(*activity)
	return activity, nil
}

// Update edits an activity and refreshes cached copies.
func (s *Session) Update(ctx context.Context, id string, fields ActivityFields) (*api.ActivityView, error) {
	activity, err := s.Client.UpdateActivity(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	s.Cache.Put(*activity)
	return activity, nil
}

// Delete removes an activity and drops cached copies.
func (s *Session) Delete(ctx context.Context, id string) error {
	if err := s.Client.DeleteActivity(ctx, id); err != nil {
		return err
	}
	s.Cache.Remove(id)
	return nil
}
