package room

import (
	"testing"
	"time"
)

func TestLockFileGrantsWhenFree(t *testing.T) {
	r := newTestRoom(t)

	result, err := r.LockFile("alice", "src/main.go", true, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OK {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestLockFileConflict(t *testing.T) {
	r := newTestRoom(t)

	if _, err := r.LockFile("alice", "src/main.go", true, 0); err != nil {
		t.Fatalf("setup: %v", err)
	}
	result, err := r.LockFile("bob", "src/main.go", true, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OK || result.LockedBy != "alice" {
		t.Fatalf("expected bob's lock to conflict with alice's live lock, got %+v", result)
	}
}

func TestLockFileNonExclusiveSharesALiveNonExclusiveLock(t *testing.T) {
	r := newTestRoom(t)

	if _, err := r.LockFile("alice", "src/main.go", false, 0); err != nil {
		t.Fatalf("setup: %v", err)
	}
	result, err := r.LockFile("bob", "src/main.go", false, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OK {
		t.Errorf("expected a non-exclusive lock request to share with another non-exclusive holder, got %+v", result)
	}
}

func TestLockFileGrantsAfterExpiry(t *testing.T) {
	r := newTestRoom(t)

	if _, err := r.LockFile("alice", "src/main.go", true, time.Millisecond); err != nil {
		t.Fatalf("setup: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	result, err := r.LockFile("bob", "src/main.go", true, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OK {
		t.Errorf("expected bob to acquire an expired lock, got %+v", result)
	}
}

func TestUnlockFileThenReacquire(t *testing.T) {
	r := newTestRoom(t)

	if _, err := r.LockFile("alice", "src/main.go", true, 0); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := r.UnlockFile("alice", "src/main.go"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	result, err := r.LockFile("bob", "src/main.go", true, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OK {
		t.Errorf("expected bob to acquire after unlock, got %+v", result)
	}
}

func TestUnlockFileByNonHolderIsNoop(t *testing.T) {
	r := newTestRoom(t)

	if _, err := r.LockFile("alice", "src/main.go", true, 0); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := r.UnlockFile("bob", "src/main.go"); err != nil {
		t.Fatalf("expected no-op, got error: %v", err)
	}
	result, err := r.LockFile("carol", "src/main.go", true, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OK || result.LockedBy != "alice" {
		t.Fatalf("expected alice's lock to still be held, got %+v", result)
	}
}
