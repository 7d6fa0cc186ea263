package ledger

import (
	"sort"
	"sync"
	"time"

	apperrors "fintrack/internal/errors"
)

// LockManager serializes mutating operations per account. Each account gets a
// one-slot semaphore; multi-account operations acquire their semaphores in
// sorted ID order so that two transfers moving money in opposite directions
// between the same pair of accounts cannot deadlock.
type LockManager struct {
	mu      sync.Mutex
	sems    map[string]chan struct{}
	timeout time.Duration
}

// NewLockManager creates a LockManager with the given acquisition timeout.
func NewLockManager(timeout time.Duration) *LockManager {
	return &LockManager{
		sems:    make(map[string]chan struct{}),
		timeout: timeout,
	}
}

func (m *LockManager) sem(id string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sems[id]
	if !ok {
		s = make(chan struct{}, 1)
		m.sems[id] = s
	}
	return s
}

// Acquire takes the locks for every given account ID, deduplicated and in
// sorted order. It returns a release function, or ErrConcurrentModification
// if any lock cannot be taken within the manager's timeout; in that case any
// locks already taken are released before returning.
func (m *LockManager) Acquire(accountIDs ...string) (func(), error) {
	ids := dedupeSorted(accountIDs)

	acquired := make([]chan struct{}, 0, len(ids))
	release := func() {
		// Release in reverse acquisition order.
		for i := len(acquired) - 1; i >= 0; i-- {
			<-acquired[i]
		}
	}

	deadline := time.NewTimer(m.timeout)
	defer deadline.Stop()

	for _, id := range ids {
		s := m.sem(id)
		select {
		case s <- struct{}{}:
			acquired = append(acquired, s)
		case <-deadline.C:
			release()
			return nil, apperrors.ErrConcurrentModification
		}
	}
	return release, nil
}

func dedupeSorted(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
