package room

import "fmt"

// Every room's keys are scoped by project so many rooms can share one
// underlying store.Store without colliding.

// keyEvent zero-pads ts so lexicographic key order (what List relies
// on) matches chronological order, since events must replay in the
// order they happened.
func keyEvent(project string, ts int64, id string) string {
	return fmt.Sprintf("%s/event:%020d:%s", project, ts, id)
}

func keyEventPrefix(project string) string {
	return project + "/event:"
}

func keyLeaderLease(project string) string {
	return project + "/leader_lease"
}

func keyLeader(project string) string {
	return project + "/leader"
}

func keyTaskClaim(project, taskID string) string {
	return project + "/task_claim:" + taskID
}

func keyTaskClaimPrefix(project string) string {
	return project + "/task_claim:"
}

func keyFileLock(project, path string) string {
	return project + "/file_lock:" + path
}

func keyAuction(project, taskID string) string {
	return project + "/auction:" + taskID
}

func keyAuctionPrefix(project string) string {
	return project + "/auction:"
}

func keyFrozen(project, agent string) string {
	return project + "/frozen:" + agent
}

func keyFrozenPrefix(project string) string {
	return project + "/frozen:"
}

func keyPulse(project, agent string) string {
	return project + "/pulse:" + agent
}

func keyPulsePrefix(project string) string {
	return project + "/pulse:"
}

func keyUrgentActive(project string) string {
	return project + "/urgent_active"
}

func keyKnowledge(project, id string) string {
	return project + "/knowledge:" + id
}

func keyKnowledgePrefix(project string) string {
	return project + "/knowledge:"
}

func keyAuthorizedMcps(project string) string {
	return project + "/authorized_mcps"
}

func keySwarmStopped(project string) string {
	return project + "/swarm_stopped"
}
