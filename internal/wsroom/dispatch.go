package wsroom

import (
	"fmt"
	"time"

	"github.com/nkern/swarmhub/internal/room"
)

// dispatch maps one decoded inbound frame to exactly one Room command.
// It returns a frame to send back directly to the caller, or nil when
// the command's result (if any) only reaches the caller through the
// room's broadcast. An unrecognized kind is a bad request, not a silent
// no-op.
func dispatch(rm *room.Room, agent string, in inbound) (map[string]any, error) {
	switch in.Kind {
	case "ping":
		return room.Frame("pong", time.Now().UnixMilli(), nil), nil

	case "try_become_leader":
		granted, lease, err := rm.TryBecomeLeader(agent)
		if err != nil {
			return nil, err
		}
		return room.Frame("leader_result", time.Now().UnixMilli(), map[string]any{
			"ok": granted, "agent": lease.Agent, "exp": lease.Exp,
		}), nil

	case "claim_task":
		result, err := rm.ClaimTask(agent, in.TaskID)
		if err != nil {
			return nil, err
		}
		return room.Frame("claim_result", time.Now().UnixMilli(), map[string]any{
			"ok": result.OK, "claimedBy": result.ClaimedBy,
		}), nil

	case "release_task":
		err := rm.ReleaseTask(agent, in.TaskID)
		return room.Frame("release_result", time.Now().UnixMilli(), map[string]any{"ok": err == nil}), err

	case "lock_file":
		result, err := rm.LockFile(agent, in.Path, in.Exclusive, 0)
		if err != nil {
			return nil, err
		}
		return room.Frame("lock_result", time.Now().UnixMilli(), map[string]any{
			"ok": result.OK, "lockedBy": result.LockedBy,
		}), nil

	case "unlock_file":
		err := rm.UnlockFile(agent, in.Path)
		return room.Frame("unlock_result", time.Now().UnixMilli(), map[string]any{"ok": err == nil}), err

	case "announce_task":
		_, err := rm.AnnounceTask(in.TaskID, in.Title, in.RequiredCapabilities)
		return nil, err

	case "bid_task":
		_, err := rm.BidTask(in.TaskID, agent, in.Capabilities)
		return nil, err

	case "resolve_auction":
		_, _, err := rm.ResolveAuction(in.TaskID)
		return nil, err

	case "broadcast":
		_, err := rm.BroadcastChat(agent, in.Message, in.Channel)
		return nil, err

	case "event":
		_, err := rm.RecordExternal(in.Type, in.Payload)
		return nil, err

	case "trigger_urgent":
		_, err := rm.TriggerUrgent(room.UrgentInput{
			TaskID:        in.TaskID,
			Title:         in.Title,
			Reason:        in.Reason,
			Initiator:     agent,
			AffectedFiles: in.AffectedFiles,
		})
		return nil, err

	case "resolve_urgent":
		return nil, rm.ResolveUrgent()

	case "freeze_agent":
		target := in.TargetAgent
		if target == "" {
			target = agent
		}
		_, err := rm.FreezeAgent(target, in.Reason)
		return nil, err

	case "unfreeze_agent":
		target := in.TargetAgent
		if target == "" {
			target = agent
		}
		return nil, rm.UnfreezeAgent(target)

	case "report_activity":
		_, err := rm.ReportActivity(agent, in.Actions)
		return nil, err

	case "update_pulse":
		return nil, rm.UpdatePulse(room.Pulse{
			Agent:       agent,
			Platform:    in.Platform,
			Branch:      in.Branch,
			CurrentFile: in.CurrentFile,
			CurrentTask: in.CurrentTask,
			Status:      in.Status,
			LastUpdate:  time.Now().UnixMilli(),
		})

	case "add_knowledge":
		_, err := rm.AddKnowledge(agent, in.Category, in.Title, in.Description, in.Solution)
		return nil, err

	case "authorize_mcps":
		return nil, rm.AuthorizeMcps(in.Names)

	case "set_swarm_stopped":
		return nil, rm.SetSwarmStopped(in.Stopped)

	default:
		return nil, fmt.Errorf("unknown frame kind %q", in.Kind)
	}
}
