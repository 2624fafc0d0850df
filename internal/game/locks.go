package game

import (
	"sync"
	"time"

	util "memorludo/internal/util"
)

type lockEntry struct {
	mu         sync.Mutex
	lastAccess time.Time
}

// LockTable hands out one mutex per game id so flip requests against the
// same game resolve strictly one at a time. Entries for idle games are
// dropped by the cleanup routine.
type LockTable struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

func NewLockTable() *LockTable {
	return &LockTable{locks: make(map[string]*lockEntry)}
}

// Acquire blocks until the caller holds the game's lock and returns the
// release func.
func (t *LockTable) Acquire(gameID string) func() {
	for {
		t.mu.Lock()
		entry, ok := t.locks[gameID]
		if !ok {
			entry = &lockEntry{}
			t.locks[gameID] = entry
		}
		entry.lastAccess = time.Now()
		t.mu.Unlock()

		entry.mu.Lock()

		// Cleanup may have evicted the entry while we were blocked on it,
		// in which case this mutex no longer guards the game. Start over
		// on the current entry.
		t.mu.Lock()
		current, ok := t.locks[gameID]
		t.mu.Unlock()
		if ok && current == entry {
			return entry.mu.Unlock
		}
		entry.mu.Unlock()
	}
}

// Cleanup drops lock entries idle for longer than ttl. Held locks are left
// alone regardless of age.
func (t *LockTable) Cleanup(ttl time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	removed := 0
	for id, entry := range t.locks {
		if entry.lastAccess.After(cutoff) {
			continue
		}
		if !entry.mu.TryLock() {
			continue
		}
		entry.mu.Unlock()
		delete(t.locks, id)
		removed++
	}
	if removed > 0 {
		util.LogInfo("Cleaned up %d idle game locks", removed)
	}
	return removed
}

// Size reports the number of tracked locks, for the health endpoint.
func (t *LockTable) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}
