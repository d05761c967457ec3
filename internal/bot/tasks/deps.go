// Package tasks implements the scheduled maintenance jobs of the history store.
package tasks

import (
	"context"
	"log/slog"

	"github.com/edgard/sedbot/internal/config"
	"github.com/edgard/sedbot/internal/database"
)

// ScheduledTaskFunc is the signature of every scheduled task. Tasks must respect ctx.
type ScheduledTaskFunc func(ctx context.Context) error

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}

// Task names, matching the keys under scheduler.tasks in the configuration.
const (
	HistoryPruneTask   = "history_prune"
	SQLMaintenanceTask = "sql_maintenance"
)

// RegisterAllTasks returns every task keyed by its configuration name.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := map[string]ScheduledTaskFunc{
		HistoryPruneTask:   newHistoryPruneTask(deps),
		SQLMaintenanceTask: newSQLMaintenanceTask(deps),
	}
	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
