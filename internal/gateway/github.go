package gateway

import (
	"io"
	"log/slog"
	"net/http"
)

// githubEvent is the small subset of a GitHub webhook delivery this
// gateway cares about: which repository, what happened, and (for status
// checks) whether it failed. The full payload is still recorded verbatim
// in the room's event log for anyone who wants the rest.
type githubEvent struct {
	Action     string `json:"action,omitempty"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	WorkflowRun struct {
		Conclusion string `json:"conclusion"`
	} `json:"workflow_run"`
}

// handleGithubWebhook records every delivery into the named project's
// event log. It never rejects a delivery for being unrecognized — GitHub
// retries on non-2xx, and an unfamiliar event type is still worth
// keeping in the timeline.
func (g *Gateway) handleGithubWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	r.Body.Close()
	if err != nil {
		jsonError(w, http.StatusBadRequest, "could not read body")
		return
	}

	var ev githubEvent
	_ = decodeJSONBytes(body, &ev)

	rm := g.roomFor(projectFromRequest(r))
	eventType := r.Header.Get("X-GitHub-Event")
	if eventType == "" {
		eventType = "webhook"
	}

	if _, err := rm.RecordExternal("github."+eventType, map[string]any{
		"action":     ev.Action,
		"repository": ev.Repository.FullName,
		"conclusion": ev.WorkflowRun.Conclusion,
		"raw":        string(body),
	}); err != nil {
		slog.Error("gateway: record github event failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "could not record event")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "recorded"})
}
