package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/nkern/swarmhub/internal/config"
	"github.com/nkern/swarmhub/internal/store"
)

func newTestGateway(t *testing.T, token string) *Gateway {
	t.Helper()
	dir := t.TempDir()
	st, err := store.New(config.StoreConfig{Path: filepath.Join(dir, "test.db")})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := &config.Config{
		HTTP: config.HTTPConfig{Token: token},
		Room: config.RoomConfig{
			LeaderLeaseTTL:  30 * time.Second,
			DefaultLockTTL:  60 * time.Second,
			PulseStaleAfter: 10 * time.Minute,
			EventLogMax:     500,
			TimelineMax:     200,
			KnowledgeMax:    50,
		},
	}
	return New(cfg, st, nil)
}

func doJSON(t *testing.T, gw *Gateway, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	gw.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthNeedsNoAuth(t *testing.T) {
	gw := newTestGateway(t, "secret")
	rec := doJSON(t, gw, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestApiRejectsMissingToken(t *testing.T) {
	gw := newTestGateway(t, "secret")
	rec := doJSON(t, gw, http.MethodGet, "/api/stats?project=p1", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestApiAcceptsValidToken(t *testing.T) {
	gw := newTestGateway(t, "secret")
	rec := doJSON(t, gw, http.MethodGet, "/api/stats?project=p1&token=secret", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestClaimTaskEndToEnd(t *testing.T) {
	gw := newTestGateway(t, "")

	rec := doJSON(t, gw, http.MethodPost, "/api/claim?project=p1&agent=alice", map[string]string{"taskId": "T1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, gw, http.MethodPost, "/api/claim?project=p1&agent=bob", map[string]string{"taskId": "T1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a conflicting claim (conflict is a body, not a status), got %d", rec.Code)
	}
	var conflict map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &conflict); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if conflict["ok"] != false || conflict["claimedBy"] != "alice" {
		t.Fatalf("expected a conflict result naming alice, got %+v", conflict)
	}

	rec = doJSON(t, gw, http.MethodGet, "/api/tasks?project=p1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var tasks []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
}

func TestHandleStateReportsLeaderAndAuthorizedMcps(t *testing.T) {
	gw := newTestGateway(t, "")

	rec := doJSON(t, gw, http.MethodPost, "/api/mcps?project=p1", map[string]any{"names": []string{"filesystem"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("setup: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, gw, http.MethodPost, "/api/leader/claim?project=p1&agent=alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("setup: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, gw, http.MethodGet, "/api/state?project=p1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var state map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state["leader"] != "alice" {
		t.Errorf("expected leader=alice, got %+v", state)
	}
	mcps, _ := state["authorizedMcps"].([]any)
	if len(mcps) != 1 || mcps[0] != "filesystem" {
		t.Errorf("expected authorizedMcps=[filesystem], got %+v", state)
	}
}

func TestHandleReportActivityReturnsAnomalyFlag(t *testing.T) {
	gw := newTestGateway(t, "")

	rec := doJSON(t, gw, http.MethodPost, "/api/report_activity?project=p1&agent=alice", map[string]any{"actions": 3})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var result map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result["anomaly"] != false {
		t.Errorf("expected anomaly=false for a small action count, got %+v", result)
	}
}

func TestHandleCheckFrozenReflectsFreezeState(t *testing.T) {
	gw := newTestGateway(t, "")

	rec := doJSON(t, gw, http.MethodGet, "/api/check_frozen?project=p1&agent=alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var result map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result["frozen"] != false {
		t.Fatalf("expected frozen=false before any freeze, got %+v", result)
	}

	rec = doJSON(t, gw, http.MethodPost, "/api/freeze?project=p1", map[string]string{"agent": "bob", "reason": "manual test"})
	if rec.Code != http.StatusOK {
		t.Fatalf("setup: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, gw, http.MethodGet, "/api/check_frozen?project=p1&agent=bob", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result["frozen"] != true {
		t.Fatalf("expected frozen=true after a freeze, got %+v", result)
	}
}

func TestHandleAgentsListsPulses(t *testing.T) {
	gw := newTestGateway(t, "")

	rec := doJSON(t, gw, http.MethodPost, "/api/pulse?project=p1&agent=alice", map[string]string{"status": "working"})
	if rec.Code != http.StatusOK {
		t.Fatalf("setup: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, gw, http.MethodGet, "/api/agents?project=p1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var pulses []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &pulses); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(pulses) != 1 || pulses[0]["agent"] != "alice" {
		t.Fatalf("expected one pulse for alice, got %+v", pulses)
	}
}

func TestHandleBroadcastRecordsChatEvent(t *testing.T) {
	gw := newTestGateway(t, "")

	rec := doJSON(t, gw, http.MethodPost, "/api/broadcast?project=p1&agent=alice", map[string]string{"message": "status?", "channel": "general"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, gw, http.MethodGet, "/api/events?project=p1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var events []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 1 || events[0]["type"] != "chat" {
		t.Fatalf("expected 1 chat event, got %+v", events)
	}
}

func TestHandleStopAndResumeToggleSwarmStoppedFlag(t *testing.T) {
	gw := newTestGateway(t, "")

	rec := doJSON(t, gw, http.MethodPost, "/api/stop?project=p1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for stop, got %d body=%s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, gw, http.MethodPost, "/api/resume?project=p1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for resume, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestGithubWebhookIsRecordedInEventLog(t *testing.T) {
	gw := newTestGateway(t, "")

	payload := map[string]any{"action": "completed", "repository": map[string]string{"full_name": "acme/widgets"}}
	rec := doJSON(t, gw, http.MethodPost, "/github/webhook?project=p1", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, gw, http.MethodGet, "/api/events?project=p1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var events []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 recorded event, got %d", len(events))
	}
}
