package tasks

import (
	"context"
	"fmt"
	"time"
)

// newJournalMaintenanceTask prunes journal entries past the retention period
// and then vacuums the database.
func newJournalMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", JournalMaintenance)

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled journal maintenance task...")
		startTime := time.Now()

		retention := deps.Config.Database.Retention
		cutoff := deps.Now().Add(-retention)
		removed, err := deps.Journal.PruneBefore(ctx, cutoff)
		if err != nil {
			log.ErrorContext(ctx, "Journal pruning failed", "error", err)
			return fmt.Errorf("journal pruning failed: %w", err)
		}

		if err := deps.Journal.RunSQLMaintenance(ctx); err != nil {
			log.ErrorContext(ctx, "SQL maintenance failed", "error", err, "duration", time.Since(startTime))
			return fmt.Errorf("sql maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "Scheduled journal maintenance task completed successfully",
			"removed", removed, "retention", retention, "duration", time.Since(startTime))
		return nil
	}
}
