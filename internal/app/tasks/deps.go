// Package tasks implements the scheduled maintenance tasks of the city guide.
package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/edgard/cityguide/internal/config"
)

// ConversationSweeper removes expired conversations.
type ConversationSweeper interface {
	Sweep() int
	Len() int
}

// JournalMaintainer prunes and compacts the query journal.
type JournalMaintainer interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
	RunSQLMaintenance(ctx context.Context) error
}

// TaskDeps contains all dependencies required by scheduled tasks. Journal
// may be nil when the journal is disabled.
type TaskDeps struct {
	Logger        *slog.Logger
	Conversations ConversationSweeper
	Journal       JournalMaintainer
	Config        *config.Config
	// Now defaults to time.Now.
	Now func() time.Time
}
