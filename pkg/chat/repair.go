package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"chatsync/pkg/logger"
	"chatsync/pkg/store"
)

// The repair sweep closes the non-transactional send window: a participant's
// marker must be at least their own latest message ID (auto-acknowledge). A
// failed advance after an append leaves that invariant broken until the next
// sweep re-derives the cursor from the log itself.

var (
	repairMu    sync.Mutex
	repairQueue = map[int64]struct{}{}
)

// enqueueRepair marks a conversation for priority repair on the next sweep.
func enqueueRepair(conversationID int64) {
	repairMu.Lock()
	repairQueue[conversationID] = struct{}{}
	repairMu.Unlock()
}

// PendingRepairs returns the conversations queued for repair.
func PendingRepairs() []int64 {
	repairMu.Lock()
	defer repairMu.Unlock()
	out := make([]int64, 0, len(repairQueue))
	for id := range repairQueue {
		out = append(out, id)
	}
	return out
}

// RepairConversation re-derives each participant's minimum correct marker
// from the conversation log and advances lagging cursors. Returns the number
// of markers moved.
func RepairConversation(conversationID int64) (int, error) {
	conv, err := store.GetConversation(conversationID)
	if err != nil {
		return 0, err
	}
	msgs, err := store.ListMessages(conversationID, 0)
	if err != nil {
		return 0, err
	}
	latestOwn := map[int64]int64{}
	for _, m := range msgs {
		if m.ID > latestOwn[m.SenderID] {
			latestOwn[m.SenderID] = m.ID
		}
	}
	repaired := 0
	for _, p := range conv.Participants {
		want := latestOwn[p]
		if want == 0 {
			continue
		}
		_, advanced, err := store.AdvanceMarker(conversationID, p, want)
		if err != nil {
			return repaired, err
		}
		if advanced {
			repaired++
			markersRepaired.Inc()
			logger.Warn("marker_repaired", "conversation", conversationID, "user", p, "to", want)
		}
	}
	repairMu.Lock()
	delete(repairQueue, conversationID)
	repairMu.Unlock()
	return repaired, nil
}

// RunRepairOnce sweeps every conversation.
func RunRepairOnce() (int, error) {
	convs, err := store.ListConversations()
	if err != nil {
		return 0, err
	}
	total := 0
	for _, c := range convs {
		n, err := RepairConversation(c.ID)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// StartRepair starts the scheduled repair sweep if enabled and returns a
// cancel func. An empty cron defaults to every minute.
func StartRepair(ctx context.Context, enabled bool, cronExpr string) (context.CancelFunc, error) {
	if !enabled {
		logger.Info("repair_disabled")
		return func() {}, nil
	}
	if cronExpr == "" {
		cronExpr = "* * * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("repair_invalid_cron", "cron", cronExpr)
		return nil, fmt.Errorf("invalid repair cron expression: %s", cronExpr)
	}
	logger.Info("repair_enabled", "cron", cronExpr)
	ctx2, cancel := context.WithCancel(ctx)
	go runRepairScheduler(ctx2, cronExpr)
	return cancel, nil
}

// runRepairScheduler computes the next tick with gronx and sleeps until then.
func runRepairScheduler(ctx context.Context, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("repair_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("repair_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
		case <-ctx.Done():
			logger.Info("repair_scheduler_stopping")
			return
		}

		if n, err := RunRepairOnce(); err != nil {
			logger.Error("repair_run_error", "error", err)
		} else if n > 0 {
			logger.Info("repair_run_complete", "markers_repaired", n)
		}
	}
}
