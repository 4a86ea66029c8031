package tasks

import (
	"context"

	"github.com/edgard/cityguide/internal/metrics"
)

// newConversationSweepTask drops expired conversations even for users who
// never come back, and publishes the number still held.
func newConversationSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", ConversationSweep)

	return func(ctx context.Context) error {
		removed := deps.Conversations.Sweep()
		active := deps.Conversations.Len()
		metrics.ActiveConversations.Set(float64(active))

		log.DebugContext(ctx, "Conversation sweep completed", "removed", removed, "active", active)
		return nil
	}
}
