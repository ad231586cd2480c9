package tui

import (
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/sciencetwins/twins/internal/analytics"
)

var errAnalyticsUnavailable = errors.New("statistics are unavailable: the database could not be opened")

// AnalyticsState holds the statistics overlay
type AnalyticsState struct {
	mu sync.RWMutex

	manager  *analytics.Manager
	stats    []analytics.Stats
	loadedAt time.Time
	view     viewport.Model
}

// NewAnalyticsState creates a new analytics state. manager may be nil.
func NewAnalyticsState(manager *analytics.Manager) *AnalyticsState {
	return &AnalyticsState{
		manager: manager,
		view:    viewport.New(80, 20),
	}
}

// Refresh reloads the per-mode statistics
func (s *AnalyticsState) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.manager == nil {
		return errAnalyticsUnavailable
	}
	stats, err := s.manager.GetStatsPerMode()
	if err != nil {
		return err
	}
	s.stats = stats
	s.loadedAt = time.Now()
	return nil
}

// Clear deletes every recorded call
func (s *AnalyticsState) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.manager == nil {
		return errAnalyticsUnavailable
	}
	if err := s.manager.Clear(); err != nil {
		return err
	}
	s.stats = nil
	return nil
}

// GetStats returns a copy of the stats slice
func (s *AnalyticsState) GetStats() []analytics.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]analytics.Stats, len(s.stats))
	copy(result, s.stats)
	return result
}

// LoadedAt returns when the stats were last read
func (s *AnalyticsState) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// GetView returns a copy of the viewport
func (s *AnalyticsState) GetView() viewport.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// SetView sets the viewport
func (s *AnalyticsState) SetView(v viewport.Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
}
