// Package gateway is the HTTP front door: authentication, project
// resolution, lazy per-project Room creation, and the REST mirror of
// every Room command alongside the /ws upgrade path.
package gateway

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/nkern/swarmhub/internal/config"
	"github.com/nkern/swarmhub/internal/natsbus"
	"github.com/nkern/swarmhub/internal/room"
	"github.com/nkern/swarmhub/internal/store"
)

const defaultProject = "default"

// Gateway owns the room registry and the HTTP mux. One Gateway serves
// every project the process has ever been asked for; each project's Room
// is created lazily on first use and kept for the life of the process.
type Gateway struct {
	cfg  *config.Config
	st   *store.Store
	nats *natsbus.Client
	mux  *http.ServeMux

	mu    sync.Mutex
	rooms map[string]*room.Room
}

func New(cfg *config.Config, st *store.Store, nc *natsbus.Client) *Gateway {
	g := &Gateway{
		cfg:   cfg,
		st:    st,
		nats:  nc,
		mux:   http.NewServeMux(),
		rooms: make(map[string]*room.Room),
	}
	g.routes()
	return g
}

func (g *Gateway) Handler() http.Handler {
	return withLogging(g.mux)
}

// SetRoomConfig swaps the RoomConfig applied to new commands in every
// live room, used for SIGHUP-triggered hot reload. Existing leases/locks
// keep whatever TTL they were granted with; only future grants change.
func (g *Gateway) SetRoomConfig(cfg config.RoomConfig) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cfg.Room = cfg
	for _, rm := range g.rooms {
		rm.UpdateConfig(cfg)
	}
}

// SetAuthToken swaps the bearer token requireAuth checks against, without
// requiring a restart.
func (g *Gateway) SetAuthToken(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cfg.HTTP.Token = token
}

// roomFor returns the named project's Room, creating it on first use.
func (g *Gateway) roomFor(project string) *room.Room {
	if project == "" {
		project = defaultProject
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if rm, ok := g.rooms[project]; ok {
		return rm
	}
	rm := room.New(project, g.st, g.nats, g.cfg.Room)
	g.rooms[project] = rm
	slog.Info("gateway: room created", "project", project)
	return rm
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("gateway: request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
