// Package tasks implements the bot's scheduled maintenance tasks and their registry.
package tasks

import (
	"log/slog"

	"github.com/edgard/finmatbot/internal/config"
	"github.com/edgard/finmatbot/internal/database"
)

// ArchiveLoader reloads the archive table from disk.
type ArchiveLoader interface {
	LoadFile(path string) (int, error)
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger  *slog.Logger
	Store   database.Store
	Archive ArchiveLoader
	Config  *config.Config
}
