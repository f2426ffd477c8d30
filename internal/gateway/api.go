package gateway

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nkern/swarmhub/internal/room"
	"github.com/nkern/swarmhub/internal/wsroom"
)

func (g *Gateway) handleWS(w http.ResponseWriter, r *http.Request) {
	rm := g.roomFor(projectFromRequest(r))
	agent := agentFromRequest(r)
	if agent == "" {
		jsonError(w, http.StatusBadRequest, "?agent= is required")
		return
	}
	wsroom.Serve(w, r, rm, agent)
}

func (g *Gateway) handleTasks(w http.ResponseWriter, r *http.Request) {
	rm := g.roomFor(projectFromRequest(r))
	tasks, err := rm.GetTaskList()
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, tasks)
}

func (g *Gateway) handleStats(w http.ResponseWriter, r *http.Request) {
	rm := g.roomFor(projectFromRequest(r))
	stats, err := rm.GetSwarmStats()
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}

func (g *Gateway) handleTimeline(w http.ResponseWriter, r *http.Request) {
	rm := g.roomFor(projectFromRequest(r))
	timeline, err := rm.GetTimeline()
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, timeline)
}

func (g *Gateway) handleEvents(w http.ResponseWriter, r *http.Request) {
	rm := g.roomFor(projectFromRequest(r))
	var since int64
	if v := r.URL.Query().Get("since"); v != "" {
		since, _ = strconv.ParseInt(v, 10, 64)
	}
	events, err := rm.GetEventsSince(since)
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, events)
}

func (g *Gateway) handleLeaderGet(w http.ResponseWriter, r *http.Request) {
	rm := g.roomFor(projectFromRequest(r))
	lease, ok, err := rm.CurrentLeader()
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	if !ok {
		jsonResponse(w, http.StatusOK, map[string]any{"leader": nil})
		return
	}
	jsonResponse(w, http.StatusOK, lease)
}

func (g *Gateway) handleLeaderClaim(w http.ResponseWriter, r *http.Request) {
	rm := g.roomFor(projectFromRequest(r))
	agent := agentFromRequest(r)
	granted, lease, err := rm.TryBecomeLeader(agent)
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"granted": granted, "lease": lease})
}

type claimBody struct {
	TaskID string `json:"taskId"`
}

func (g *Gateway) handleClaim(w http.ResponseWriter, r *http.Request) {
	var body claimBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid body")
		return
	}
	rm := g.roomFor(projectFromRequest(r))
	result, err := rm.ClaimTask(agentFromRequest(r), body.TaskID)
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, result)
}

func (g *Gateway) handleRelease(w http.ResponseWriter, r *http.Request) {
	var body claimBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid body")
		return
	}
	rm := g.roomFor(projectFromRequest(r))
	if err := rm.ReleaseTask(agentFromRequest(r), body.TaskID); err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, nil)
}

type lockBody struct {
	Path      string `json:"path"`
	Exclusive bool   `json:"exclusive"`
}

func (g *Gateway) handleLock(w http.ResponseWriter, r *http.Request) {
	var body lockBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid body")
		return
	}
	rm := g.roomFor(projectFromRequest(r))
	result, err := rm.LockFile(agentFromRequest(r), body.Path, body.Exclusive, 0)
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, result)
}

func (g *Gateway) handleUnlock(w http.ResponseWriter, r *http.Request) {
	var body lockBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid body")
		return
	}
	rm := g.roomFor(projectFromRequest(r))
	if err := rm.UnlockFile(agentFromRequest(r), body.Path); err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, nil)
}

func (g *Gateway) handleAuctionsList(w http.ResponseWriter, r *http.Request) {
	rm := g.roomFor(projectFromRequest(r))
	auctions, err := rm.ListAuctions()
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, auctions)
}

type announceBody struct {
	TaskID               string   `json:"taskId"`
	Title                string   `json:"title"`
	RequiredCapabilities []string `json:"requiredCapabilities"`
}

func (g *Gateway) handleAuctionAnnounce(w http.ResponseWriter, r *http.Request) {
	var body announceBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid body")
		return
	}
	rm := g.roomFor(projectFromRequest(r))
	auction, err := rm.AnnounceTask(body.TaskID, body.Title, body.RequiredCapabilities)
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, auction)
}

type bidBody struct {
	TaskID       string   `json:"taskId"`
	Capabilities []string `json:"capabilities"`
}

func (g *Gateway) handleAuctionBid(w http.ResponseWriter, r *http.Request) {
	var body bidBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid body")
		return
	}
	rm := g.roomFor(projectFromRequest(r))
	auction, err := rm.BidTask(body.TaskID, agentFromRequest(r), body.Capabilities)
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, auction)
}

func (g *Gateway) handleAuctionResolve(w http.ResponseWriter, r *http.Request) {
	var body claimBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid body")
		return
	}
	rm := g.roomFor(projectFromRequest(r))
	winner, ok, err := rm.ResolveAuction(body.TaskID)
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"winner": winner, "resolved": ok})
}

func (g *Gateway) handleUrgentGet(w http.ResponseWriter, r *http.Request) {
	rm := g.roomFor(projectFromRequest(r))
	u, ok, err := rm.GetActiveUrgent()
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	if !ok {
		jsonResponse(w, http.StatusOK, map[string]any{"active": false})
		return
	}
	jsonResponse(w, http.StatusOK, u)
}

type urgentBody struct {
	TaskID        string   `json:"taskId"`
	Title         string   `json:"title"`
	Reason        string   `json:"reason"`
	AffectedFiles []string `json:"affectedFiles"`
}

func (g *Gateway) handleUrgentTrigger(w http.ResponseWriter, r *http.Request) {
	var body urgentBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid body")
		return
	}
	rm := g.roomFor(projectFromRequest(r))
	u, err := rm.TriggerUrgent(room.UrgentInput{
		TaskID:        body.TaskID,
		Title:         body.Title,
		Reason:        body.Reason,
		Initiator:     agentFromRequest(r),
		AffectedFiles: body.AffectedFiles,
	})
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, u)
}

func (g *Gateway) handleUrgentResolve(w http.ResponseWriter, r *http.Request) {
	rm := g.roomFor(projectFromRequest(r))
	if err := rm.ResolveUrgent(); err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, nil)
}

type freezeBody struct {
	Agent  string `json:"agent"`
	Reason string `json:"reason"`
}

func (g *Gateway) handleFreeze(w http.ResponseWriter, r *http.Request) {
	var body freezeBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid body")
		return
	}
	rm := g.roomFor(projectFromRequest(r))
	marker, err := rm.FreezeAgent(body.Agent, body.Reason)
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, marker)
}

func (g *Gateway) handleUnfreeze(w http.ResponseWriter, r *http.Request) {
	var body freezeBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid body")
		return
	}
	rm := g.roomFor(projectFromRequest(r))
	if err := rm.UnfreezeAgent(body.Agent); err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, nil)
}

func (g *Gateway) handlePulsesList(w http.ResponseWriter, r *http.Request) {
	rm := g.roomFor(projectFromRequest(r))
	pulses, err := rm.ListPulses()
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, pulses)
}

type pulseBody struct {
	Platform    string `json:"platform"`
	Branch      string `json:"branch"`
	CurrentFile string `json:"currentFile"`
	CurrentTask string `json:"currentTask"`
	Status      string `json:"status"`
}

func (g *Gateway) handlePulseUpdate(w http.ResponseWriter, r *http.Request) {
	var body pulseBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid body")
		return
	}
	rm := g.roomFor(projectFromRequest(r))
	p := room.Pulse{
		Agent:       agentFromRequest(r),
		Platform:    body.Platform,
		Branch:      body.Branch,
		CurrentFile: body.CurrentFile,
		CurrentTask: body.CurrentTask,
		Status:      body.Status,
		LastUpdate:  time.Now().UnixMilli(),
	}
	if err := rm.UpdatePulse(p); err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, p)
}

func (g *Gateway) handleKnowledgeSearch(w http.ResponseWriter, r *http.Request) {
	rm := g.roomFor(projectFromRequest(r))
	entries, err := rm.SearchKnowledge(r.URL.Query().Get("q"))
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, entries)
}

type knowledgeBody struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Solution    string `json:"solution"`
}

func (g *Gateway) handleKnowledgeAdd(w http.ResponseWriter, r *http.Request) {
	var body knowledgeBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid body")
		return
	}
	rm := g.roomFor(projectFromRequest(r))
	entry, err := rm.AddKnowledge(agentFromRequest(r), body.Category, body.Title, body.Description, body.Solution)
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, entry)
}

func (g *Gateway) handleMcpsGet(w http.ResponseWriter, r *http.Request) {
	rm := g.roomFor(projectFromRequest(r))
	names, err := rm.GetAuthorizedMcps()
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"names": names})
}

type mcpsBody struct {
	Names []string `json:"names"`
}

func (g *Gateway) handleMcpsSet(w http.ResponseWriter, r *http.Request) {
	var body mcpsBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid body")
		return
	}
	rm := g.roomFor(projectFromRequest(r))
	if err := rm.AuthorizeMcps(body.Names); err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, nil)
}

func (g *Gateway) handleSwarmStop(w http.ResponseWriter, r *http.Request) {
	rm := g.roomFor(projectFromRequest(r))
	if err := rm.SetSwarmStopped(true); err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, nil)
}

func (g *Gateway) handleSwarmResume(w http.ResponseWriter, r *http.Request) {
	rm := g.roomFor(projectFromRequest(r))
	if err := rm.SetSwarmStopped(false); err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, nil)
}

// handleState returns the small slice of room state a client needs
// before it decides whether to keep going: who currently leads, and
// which MCP servers are authorized.
func (g *Gateway) handleState(w http.ResponseWriter, r *http.Request) {
	rm := g.roomFor(projectFromRequest(r))
	lease, ok, err := rm.CurrentLeader()
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	var leader any
	if ok {
		leader = lease.Agent
	}
	mcps, err := rm.GetAuthorizedMcps()
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"leader": leader, "authorizedMcps": mcps})
}

type reportActivityBody struct {
	Agent   string `json:"agent"`
	Actions int    `json:"actions"`
}

func (g *Gateway) handleReportActivity(w http.ResponseWriter, r *http.Request) {
	var body reportActivityBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid body")
		return
	}
	agent := body.Agent
	if agent == "" {
		agent = agentFromRequest(r)
	}
	rm := g.roomFor(projectFromRequest(r))
	anomaly, err := rm.ReportActivity(agent, body.Actions)
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"anomaly": anomaly})
}

func (g *Gateway) handleCheckFrozen(w http.ResponseWriter, r *http.Request) {
	rm := g.roomFor(projectFromRequest(r))
	frozen, err := rm.IsFrozen(agentFromRequest(r))
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"frozen": frozen})
}

// handleAgents lists every agent the room currently has presence data
// for, by their latest pulse.
func (g *Gateway) handleAgents(w http.ResponseWriter, r *http.Request) {
	rm := g.roomFor(projectFromRequest(r))
	pulses, err := rm.ListPulses()
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, pulses)
}

type broadcastBody struct {
	Message string `json:"message"`
	Channel string `json:"channel"`
}

func (g *Gateway) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var body broadcastBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid body")
		return
	}
	rm := g.roomFor(projectFromRequest(r))
	ev, err := rm.BroadcastChat(agentFromRequest(r), body.Message, body.Channel)
	if err != nil {
		status, msg := roomErrStatus(err)
		jsonError(w, status, msg)
		return
	}
	jsonResponse(w, http.StatusOK, ev)
}
