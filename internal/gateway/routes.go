package gateway

import "net/http"

func (g *Gateway) routes() {
	g.mux.HandleFunc("GET /health", g.handleHealth)
	g.mux.HandleFunc("GET /{$}", g.handleRoot)
	g.mux.HandleFunc("GET /ws", g.requireAuth(g.handleWS))
	g.mux.HandleFunc("POST /github/webhook", g.handleGithubWebhook)

	g.mux.HandleFunc("GET /api/tasks", g.requireAuth(g.handleTasks))
	g.mux.HandleFunc("GET /api/stats", g.requireAuth(g.handleStats))
	g.mux.HandleFunc("GET /api/state", g.requireAuth(g.handleState))
	g.mux.HandleFunc("GET /api/timeline", g.requireAuth(g.handleTimeline))
	g.mux.HandleFunc("GET /api/events", g.requireAuth(g.handleEvents))
	g.mux.HandleFunc("GET /api/agents", g.requireAuth(g.handleAgents))
	g.mux.HandleFunc("POST /api/broadcast", g.requireAuth(g.handleBroadcast))
	g.mux.HandleFunc("POST /api/report_activity", g.requireAuth(g.handleReportActivity))
	g.mux.HandleFunc("GET /api/check_frozen", g.requireAuth(g.handleCheckFrozen))

	g.mux.HandleFunc("GET /api/leader", g.requireAuth(g.handleLeaderGet))
	g.mux.HandleFunc("POST /api/leader/claim", g.requireAuth(g.handleLeaderClaim))

	g.mux.HandleFunc("POST /api/claim", g.requireAuth(g.handleClaim))
	g.mux.HandleFunc("POST /api/release", g.requireAuth(g.handleRelease))

	g.mux.HandleFunc("POST /api/lock", g.requireAuth(g.handleLock))
	g.mux.HandleFunc("POST /api/unlock", g.requireAuth(g.handleUnlock))

	g.mux.HandleFunc("GET /api/auctions", g.requireAuth(g.handleAuctionsList))
	g.mux.HandleFunc("POST /api/auction", g.requireAuth(g.handleAuctionAnnounce))
	g.mux.HandleFunc("POST /api/auction/bid", g.requireAuth(g.handleAuctionBid))
	g.mux.HandleFunc("POST /api/auction/resolve", g.requireAuth(g.handleAuctionResolve))

	g.mux.HandleFunc("GET /api/urgent", g.requireAuth(g.handleUrgentGet))
	g.mux.HandleFunc("POST /api/urgent", g.requireAuth(g.handleUrgentTrigger))
	g.mux.HandleFunc("POST /api/urgent/resolve", g.requireAuth(g.handleUrgentResolve))

	g.mux.HandleFunc("POST /api/freeze", g.requireAuth(g.handleFreeze))
	g.mux.HandleFunc("POST /api/unfreeze", g.requireAuth(g.handleUnfreeze))

	g.mux.HandleFunc("GET /api/pulses", g.requireAuth(g.handlePulsesList))
	g.mux.HandleFunc("POST /api/pulse", g.requireAuth(g.handlePulseUpdate))

	g.mux.HandleFunc("GET /api/knowledge", g.requireAuth(g.handleKnowledgeSearch))
	g.mux.HandleFunc("POST /api/knowledge", g.requireAuth(g.handleKnowledgeAdd))

	g.mux.HandleFunc("GET /api/mcps", g.requireAuth(g.handleMcpsGet))
	g.mux.HandleFunc("POST /api/mcps", g.requireAuth(g.handleMcpsSet))

	g.mux.HandleFunc("POST /api/stop", g.requireAuth(g.handleSwarmStop))
	g.mux.HandleFunc("POST /api/resume", g.requireAuth(g.handleSwarmResume))
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (g *Gateway) handleRoot(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"service": "swarmhub"})
}
