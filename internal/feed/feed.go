// Package feed holds the latest match snapshot for remote spectators and
// wakes long-polling clients when the game moves on.
package feed

import (
	"context"
	"sync"
	"time"

	"chessmatch/internal/match"
)

const (
	// WaitTimeout is the maximum time a client can wait for notifications
	WaitTimeout = 25 * time.Second

	// WaitChannelBuffer size for notification channels
	WaitChannelBuffer = 1
)

// Feed implements match.Observer
type Feed struct {
	mu       sync.RWMutex
	latest   match.Snapshot
	have     bool
	waiters  []*WaitRequest
	timeout  time.Duration
	shutdown chan struct{}
	closed   bool
}

// WaitRequest represents a single client waiting for the next move
type WaitRequest struct {
	MoveCount int           // Last known move count
	Notify    chan struct{} // Buffered channel for notifications
}

// New creates a feed with the given long-poll timeout, WaitTimeout if zero
func New(timeout time.Duration) *Feed {
	if timeout <= 0 {
		timeout = WaitTimeout
	}
	return &Feed{
		timeout:  timeout,
		shutdown: make(chan struct{}),
	}
}

// Update stores s and wakes every waiter whose move count is stale, or all
// of them once the match is over
func (f *Feed) Update(s match.Snapshot) {
	f.mu.Lock()
	f.latest = s
	f.have = true
	waitList := append([]*WaitRequest(nil), f.waiters...)
	f.mu.Unlock()

	for _, req := range waitList {
		if stale(req.MoveCount, s) {
			notify(req)
		}
	}
}

// Latest returns the most recent snapshot, false before the first update
func (f *Feed) Latest() (match.Snapshot, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.latest, f.have
}

// Wait blocks until the move count differs from moveCount, the match ends,
// the timeout elapses, ctx is done or the feed shuts down, then returns the
// latest snapshot. It returns at once if the feed is already past moveCount.
func (f *Feed) Wait(ctx context.Context, moveCount int) (match.Snapshot, bool) {
	f.mu.Lock()
	if f.closed || (f.have && stale(moveCount, f.latest)) {
		s, ok := f.latest, f.have
		f.mu.Unlock()
		return s, ok
	}

	req := &WaitRequest{
		MoveCount: moveCount,
		Notify:    make(chan struct{}, WaitChannelBuffer),
	}
	f.waiters = append(f.waiters, req)
	timeout := f.timeout
	f.mu.Unlock()

	defer f.removeWaiter(req)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-req.Notify:
	case <-timer.C:
	case <-ctx.Done():
	case <-f.shutdown:
	}

	return f.Latest()
}

// Waiters reports how many clients are currently parked
func (f *Feed) Waiters() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.waiters)
}

// Shutdown releases every waiter; later waits return immediately
func (f *Feed) Shutdown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.shutdown)
	}
}

func stale(moveCount int, s match.Snapshot) bool {
	return s.MoveCount != moveCount || !s.Running
}

func notify(req *WaitRequest) {
	select {
	case req.Notify <- struct{}{}:
	default:
		// Already pending
	}
}

func (f *Feed) removeWaiter(req *WaitRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, waiter := range f.waiters {
		if waiter == req {
			f.waiters = append(f.waiters[:i], f.waiters[i+1:]...)
			break
		}
	}
}
