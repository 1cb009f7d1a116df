package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/edgard/finmatbot/internal/metrics"
)

// newArchiveReloadTask re-reads the archive CSV. A failed reload keeps the
// previous snapshot in service.
func newArchiveReloadTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", ArchiveReloadTask)

	return func(ctx context.Context) error {
		path := deps.Config.Archive.Path
		startTime := time.Now()

		n, err := deps.Archive.LoadFile(path)
		if err != nil {
			log.ErrorContext(ctx, "Archive reload failed, keeping previous snapshot", "path", path, "error", err)
			return fmt.Errorf("archive reload failed: %w", err)
		}

		metrics.ArchiveRecords.Set(float64(n))
		log.InfoContext(ctx, "Archive reloaded", "path", path, "records", n, "duration", time.Since(startTime))
		return nil
	}
}
