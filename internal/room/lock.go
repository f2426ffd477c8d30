package room

import (
	"time"

	"github.com/nkern/swarmhub/internal/store"
)

// LockResult is the outcome of a lock attempt. A conflict with another
// agent's live lock is a business result, not a transport error: OK is
// false and LockedBy names the current holder.
type LockResult struct {
	OK       bool   `json:"ok"`
	LockedBy string `json:"lockedBy,omitempty"`
}

// LockFile grants agent a TTL-bounded lock on path. A live lock is a
// conflict, reported in the result rather than as an error, whenever it
// is held exclusively by another agent or the caller itself asks for
// exclusive access over any other live holder. An expired lock, an
// absent lock, or re-locking by the current holder all grant. ttl of
// zero uses the room's configured default.
func (r *Room) LockFile(agent, path string, exclusive bool, ttl time.Duration) (LockResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := r.clock.next()
	existing, ok, err := store.Get[FileLock](r.st, keyFileLock(r.project, path))
	if err != nil {
		return LockResult{}, err
	}
	live := ok && existing.Exp > ts
	if live && existing.Agent != agent && (existing.Exclusive || exclusive) {
		return LockResult{OK: false, LockedBy: existing.Agent}, nil
	}

	if ttl <= 0 {
		ttl = r.cfg.DefaultLockTTL
	}
	lock := FileLock{Path: path, Agent: agent, Exclusive: exclusive, Exp: ts + ttl.Milliseconds()}
	if err := store.Put(r.st, keyFileLock(r.project, path), lock); err != nil {
		return LockResult{}, err
	}
	if _, err := r.appendEvent(ts, "file_locked", lock); err != nil {
		return LockResult{}, err
	}
	r.broadcast(Frame("file_locked", ts, map[string]any{"path": path, "agent": agent, "exclusive": exclusive}))
	return LockResult{OK: true}, nil
}

// UnlockFile releases agent's lock on path. A no-op if agent does not
// hold it, so a late unlock after expiry or takeover is harmless.
func (r *Room) UnlockFile(agent, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok, err := store.Get[FileLock](r.st, keyFileLock(r.project, path))
	if err != nil || !ok || existing.Agent != agent {
		return err
	}

	ts := r.clock.next()
	if err := r.st.Delete(keyFileLock(r.project, path)); err != nil {
		return err
	}
	if _, err := r.appendEvent(ts, "file_unlocked", FileLock{Path: path, Agent: agent}); err != nil {
		return err
	}
	r.broadcast(Frame("file_unlocked", ts, map[string]any{"path": path, "agent": agent}))
	return nil
}
