package tui

import (
	"context"
	"sync"
)

// RequestState holds the cancel function of the in-flight analysis. The
// submit command runs on its own goroutine, so access is locked.
type RequestState struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

// SetCancel stores the cancel function
func (r *RequestState) SetCancel(cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancel = cancel
}

// Cancel cancels the request if active and reports whether one was
func (r *RequestState) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel == nil {
		return false
	}
	r.cancel()
	r.cancel = nil
	return true
}

// Clear releases the context of a finished request
func (r *RequestState) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// Active reports whether a cancel function is held
func (r *RequestState) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}
