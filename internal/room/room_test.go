package room

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/nkern/swarmhub/internal/config"
	"github.com/nkern/swarmhub/internal/store"
)

func newTestRoom(t *testing.T) *Room {
	t.Helper()
	dir := t.TempDir()
	st, err := store.New(config.StoreConfig{Path: filepath.Join(dir, "test.db")})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.RoomConfig{
		LeaderLeaseTTL:    30 * time.Second,
		DefaultLockTTL:    60 * time.Second,
		PulseStaleAfter:   10 * time.Minute,
		ActivityWindow:    5 * time.Minute,
		ActivityThreshold: 200,
		EventLogMax:       500,
		TimelineMax:       200,
		KnowledgeMax:      50,
	}
	return New("proj", st, nil, cfg)
}
