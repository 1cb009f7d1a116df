package tasks

import "context"

// ScheduledTaskFunc defines the standard signature for all scheduled tasks.
// The context provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// Task names, matching the keys of the scheduler.tasks config section.
const (
	ArchiveReloadTask  = "archive_reload"
	SQLMaintenanceTask = "sql_maintenance"
)

// RegisterAllTasks initializes and returns a map of all registered scheduled tasks.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := map[string]ScheduledTaskFunc{
		ArchiveReloadTask:  newArchiveReloadTask(deps),
		SQLMaintenanceTask: newSQLMaintenanceTask(deps),
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
