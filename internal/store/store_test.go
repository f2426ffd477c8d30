package store

import (
	"path/filepath"
	"testing"

	"github.com/nkern/swarmhub/internal/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := New(config.StoreConfig{Path: filepath.Join(dir, "test.db")})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type testRecord struct {
	Name string `json:"name"`
	N    int    `json:"n"`
}

func TestPutGetDelete(t *testing.T) {
	s := newTestStore(t)

	if err := Put(s, "foo:1", testRecord{Name: "a", N: 1}); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := Get[testRecord](s, "foo:1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("expected record to exist")
	}
	if got.Name != "a" || got.N != 1 {
		t.Errorf("unexpected record: %+v", got)
	}

	if err := Put(s, "foo:1", testRecord{Name: "b", N: 2}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, ok, _ = Get[testRecord](s, "foo:1")
	if !ok || got.Name != "b" {
		t.Errorf("expected overwrite to take effect, got %+v", got)
	}

	if err := s.Delete("foo:1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, ok, _ = Get[testRecord](s, "foo:1")
	if ok {
		t.Error("expected record to be gone after delete")
	}

	// Deleting an absent key is not an error.
	if err := s.Delete("foo:1"); err != nil {
		t.Errorf("delete of absent key should not error: %v", err)
	}
}

func TestGetMissingKey(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := Get[testRecord](s, "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected ok=false for missing key")
	}
}

func TestListByPrefix(t *testing.T) {
	s := newTestStore(t)

	_ = Put(s, "event:100:aaa", testRecord{Name: "e1", N: 100})
	_ = Put(s, "event:200:bbb", testRecord{Name: "e2", N: 200})
	_ = Put(s, "task_claim:T1", testRecord{Name: "claim", N: 0})

	entries, err := List[testRecord](s, "event:")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 events, got %d", len(entries))
	}
	if entries[0].Key != "event:100:aaa" || entries[1].Key != "event:200:bbb" {
		t.Errorf("expected ascending key order, got %v, %v", entries[0].Key, entries[1].Key)
	}
}

func TestListPrefixEscapesWildcards(t *testing.T) {
	s := newTestStore(t)

	_ = Put(s, "file_lock:src/a_b.rs", testRecord{Name: "lock", N: 1})
	_ = Put(s, "file_lock:src/aXb.rs", testRecord{Name: "other", N: 2})

	entries, err := List[testRecord](s, "file_lock:src/a_b.rs")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly 1 match for the literal underscore, got %d", len(entries))
	}
}

func TestListSkipsMalformedRows(t *testing.T) {
	s := newTestStore(t)

	if err := s.PutRaw("bad:1", []byte(`not json`)); err != nil {
		t.Fatalf("putraw: %v", err)
	}
	_ = Put(s, "bad:2", testRecord{Name: "ok", N: 1})

	entries, err := List[testRecord](s, "bad:")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected malformed row to be skipped, got %d entries", len(entries))
	}
}
