package room

import "testing"

func TestClaimTaskGrantsWhenUnclaimed(t *testing.T) {
	r := newTestRoom(t)

	result, err := r.ClaimTask("alice", "T1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OK {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestClaimTaskConflictsWithOtherAgent(t *testing.T) {
	r := newTestRoom(t)

	if _, err := r.ClaimTask("alice", "T1"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	result, err := r.ClaimTask("bob", "T1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OK || result.ClaimedBy != "alice" {
		t.Fatalf("expected bob's claim to conflict with alice's, got %+v", result)
	}
}

func TestClaimTaskIdempotentForOwner(t *testing.T) {
	r := newTestRoom(t)

	if _, err := r.ClaimTask("alice", "T1"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	result, err := r.ClaimTask("alice", "T1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OK {
		t.Errorf("re-claim by owner should grant, got %+v", result)
	}
}

func TestReleaseTaskThenReclaimByAnotherAgent(t *testing.T) {
	r := newTestRoom(t)

	if _, err := r.ClaimTask("alice", "T1"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := r.ReleaseTask("alice", "T1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	result, err := r.ClaimTask("bob", "T1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OK {
		t.Errorf("expected bob to claim after release, got %+v", result)
	}
}

func TestReleaseTaskByNonOwnerIsNoop(t *testing.T) {
	r := newTestRoom(t)

	if _, err := r.ClaimTask("alice", "T1"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := r.ReleaseTask("bob", "T1"); err != nil {
		t.Fatalf("expected no-op, got error: %v", err)
	}
	result, err := r.ClaimTask("carol", "T1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OK || result.ClaimedBy != "alice" {
		t.Fatalf("expected alice to still hold the claim, got %+v", result)
	}
}

func TestListClaims(t *testing.T) {
	r := newTestRoom(t)

	if _, err := r.ClaimTask("alice", "T1"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, err := r.ClaimTask("bob", "T2"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	claims, err := r.ListClaims()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(claims) != 2 {
		t.Fatalf("expected 2 claims, got %d", len(claims))
	}
}
