package tasks

import (
	"context"
	"fmt"
	"time"
)

// newHistoryPruneTask drops history older than database.retention.
func newHistoryPruneTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", HistoryPruneTask)

	return func(ctx context.Context) error {
		cutoff := time.Now().Add(-deps.Config.Database.Retention)

		deleted, err := deps.Store.PruneMessages(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("history prune failed: %w", err)
		}

		log.InfoContext(ctx, "Pruned message history", "cutoff", cutoff, "deleted", deleted)
		return nil
	}
}
