package gateway

import (
	"net/http"
	"strings"
)

// requireAuth rejects requests that don't carry the configured bearer
// token, either as an Authorization header or a ?token= query parameter.
// An empty configured token disables auth entirely, for local
// development.
func (g *Gateway) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		want := g.cfg.HTTP.Token
		g.mu.Unlock()

		if want != "" && tokenFromRequest(r) != want {
			jsonError(w, http.StatusUnauthorized, "invalid or missing token")
			return
		}
		next(w, r)
	}
}

func tokenFromRequest(r *http.Request) string {
	if v := r.URL.Query().Get("token"); v != "" {
		return v
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// agentFromRequest resolves the caller's agent identity for REST calls
// that act on behalf of one agent (?agent=name), distinct from the
// per-socket identity asserted at WebSocket upgrade time.
func agentFromRequest(r *http.Request) string {
	return r.URL.Query().Get("agent")
}

func projectFromRequest(r *http.Request) string {
	return r.URL.Query().Get("project")
}
