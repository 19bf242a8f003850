package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Store is the keyed registry of live sessions and the single source of
// truth for "does this user have a live session". It provides per-user
// mutual exclusion: messages for one user are serialized in arrival order,
// different users proceed fully in parallel. There is no global lock held
// across a user operation.
type Store struct {
	mu       sync.Mutex
	entries  map[string]*entry
	timeout  time.Duration
	onExpire func(*Session)
	logger   *slog.Logger
}

type entry struct {
	mu   sync.Mutex
	sess *Session
}

func NewStore(timeout time.Duration, logger *slog.Logger) *Store {
	return &Store{
		entries: make(map[string]*entry),
		timeout: timeout,
		logger:  logger,
	}
}

// Timeout returns the configured idle timeout.
func (st *Store) Timeout() time.Duration { return st.timeout }

// OnExpire registers a callback invoked, under the user's lock, for each
// session destroyed by timeout. Call before any traffic arrives.
func (st *Store) OnExpire(fn func(*Session)) { st.onExpire = fn }

func (st *Store) entryFor(userID string) *entry {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.entries[userID]
	if !ok {
		e = &entry{}
		st.entries[userID] = e
	}
	return e
}

// Lock acquires the user's exclusive session lock and returns the unlock
// function. The registry lock is never held while waiting on a user lock.
func (st *Store) Lock(userID string) func() {
	e := st.entryFor(userID)
	e.mu.Lock()
	return e.mu.Unlock
}

// Get returns the user's live session. A session idle past the timeout is
// destroyed here and reported via expired so the caller can acknowledge it.
// Callers must hold the user's lock.
func (st *Store) Get(userID string, now time.Time) (sess *Session, expired bool) {
	e := st.entryFor(userID)
	if e.sess == nil {
		return nil, false
	}
	if e.sess.Expired(now, st.timeout) {
		st.logger.Info("Session expired", "user_id", userID,
			"idle", now.Sub(e.sess.LastActivity).String())
		if st.onExpire != nil {
			st.onExpire(e.sess)
		}
		e.sess = nil
		return nil, true
	}
	return e.sess, false
}

// CreateOrReplace installs a fresh session for the user, discarding any
// existing one. Callers must hold the user's lock.
func (st *Store) CreateOrReplace(userID string, now time.Time) *Session {
	e := st.entryFor(userID)
	e.sess = NewSession(userID, now)
	return e.sess
}

// Delete destroys the user's session. Callers must hold the user's lock.
func (st *Store) Delete(userID string) {
	e := st.entryFor(userID)
	e.sess = nil
}

// ActiveCount reports how many users currently have a live session.
func (st *Store) ActiveCount() int {
	st.mu.Lock()
	entries := make([]*entry, 0, len(st.entries))
	for _, e := range st.entries {
		entries = append(entries, e)
	}
	st.mu.Unlock()

	n := 0
	for _, e := range entries {
		e.mu.Lock()
		if e.sess != nil {
			n++
		}
		e.mu.Unlock()
	}
	return n
}

// Sweep evicts sessions idle past the timeout. A session whose lock cannot
// be acquired immediately is in-flight and is skipped; the next sweep
// revisits it. Returns the number of sessions evicted.
func (st *Store) Sweep(now time.Time) int {
	st.mu.Lock()
	users := make([]string, 0, len(st.entries))
	entries := make([]*entry, 0, len(st.entries))
	for userID, e := range st.entries {
		users = append(users, userID)
		entries = append(entries, e)
	}
	st.mu.Unlock()

	evicted := 0
	for i, e := range entries {
		if !e.mu.TryLock() {
			continue
		}
		empty := false
		if e.sess != nil && e.sess.Expired(now, st.timeout) {
			if st.onExpire != nil {
				st.onExpire(e.sess)
			}
			e.sess = nil
			evicted++
		}
		empty = e.sess == nil
		e.mu.Unlock()

		// Drop empty entries so the registry does not grow without
		// bound over one-off users.
		if empty {
			st.mu.Lock()
			if current, ok := st.entries[users[i]]; ok && current == e && current.mu.TryLock() {
				if current.sess == nil {
					delete(st.entries, users[i])
				}
				current.mu.Unlock()
			}
			st.mu.Unlock()
		}
	}

	if evicted > 0 {
		st.logger.Info("Swept idle sessions", "evicted", evicted)
	}
	return evicted
}

// Run sweeps on a fixed cadence until ctx is cancelled. Intended to be
// started once as a background goroutine.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			st.Sweep(now)
		}
	}
}
