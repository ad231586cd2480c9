package tui

import (
	"sync"

	"github.com/sciencetwins/twins/internal/history"
	"github.com/sciencetwins/twins/internal/types"
)

// HistoryState holds the history browser: the loaded entries, the fuzzy
// search over them, and the selection
type HistoryState struct {
	mu sync.RWMutex

	entries    []types.HistoryEntry // visible, possibly filtered
	allEntries []types.HistoryEntry // as loaded, newest first
	index      int

	previewVisible bool
	searchActive   bool
	searchQuery    string
}

// NewHistoryState creates a new history state
func NewHistoryState() *HistoryState {
	return &HistoryState{previewVisible: true}
}

// Load replaces the entries and drops any search
func (s *HistoryState) Load(entries []types.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allEntries = entries
	s.entries = entries
	s.searchQuery = ""
	s.searchActive = false
	s.clampIndex()
}

// GetEntries returns a copy of the visible entries
func (s *HistoryState) GetEntries() []types.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]types.HistoryEntry, len(s.entries))
	copy(result, s.entries)
	return result
}

// Total returns the number of loaded entries, ignoring the search
func (s *HistoryState) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.allEntries)
}

// GetIndex returns the current index
func (s *HistoryState) GetIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Navigate moves the selection by delta, wrapping at both ends
func (s *HistoryState) Navigate(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 {
		return
	}

	s.index += delta
	if s.index < 0 {
		s.index = len(s.entries) - 1
	} else if s.index >= len(s.entries) {
		s.index = 0
	}
}

// SetIndex moves the selection, clamped to the visible entries
func (s *HistoryState) SetIndex(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = index
	s.clampIndex()
}

func (s *HistoryState) clampIndex() {
	if s.index >= len(s.entries) {
		s.index = len(s.entries) - 1
	}
	if s.index < 0 {
		s.index = 0
	}
}

// GetCurrentEntry returns the currently selected history entry
func (s *HistoryState) GetCurrentEntry() *types.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 || s.index < 0 || s.index >= len(s.entries) {
		return nil
	}
	entry := s.entries[s.index]
	return &entry
}

// GetPreviewVisible returns the preview visibility state
func (s *HistoryState) GetPreviewVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.previewVisible
}

// TogglePreview toggles the preview visibility
func (s *HistoryState) TogglePreview() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previewVisible = !s.previewVisible
}

// GetSearchActive returns the search active state
func (s *HistoryState) GetSearchActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchActive
}

// ActivateSearch starts typing a search query
func (s *HistoryState) ActivateSearch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchActive = true
}

// DeactivateSearch stops typing but keeps the filter
func (s *HistoryState) DeactivateSearch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchActive = false
}

// GetSearchQuery returns the search query
func (s *HistoryState) GetSearchQuery() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchQuery
}

// SetSearchQuery filters the entries with a fuzzy match on mode, file name
// and excerpt
func (s *HistoryState) SetSearchQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchQuery = query
	s.entries = history.Search(s.allEntries, query)
	s.index = 0
}

// ClearSearch restores the unfiltered entries and deactivates search
func (s *HistoryState) ClearSearch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchQuery = ""
	s.searchActive = false
	s.entries = s.allEntries
	s.clampIndex()
}
