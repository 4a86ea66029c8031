package tasks

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// ScheduledTaskFunc defines the standard signature for all scheduled tasks.
// The context provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// Task names as used in the scheduler configuration.
const (
	ConversationSweep  = "conversation_sweep"
	JournalMaintenance = "journal_maintenance"
)

// RegisterAllTasks returns every available task keyed by its configuration name.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	tasks := make(map[string]ScheduledTaskFunc)

	if deps.Conversations != nil {
		tasks[ConversationSweep] = newConversationSweepTask(deps)
	}
	if deps.Journal != nil {
		tasks[JournalMaintenance] = newJournalMaintenanceTask(deps)
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
