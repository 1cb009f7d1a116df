package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/finmatbot/internal/archive"
	"github.com/edgard/finmatbot/internal/config"
	"github.com/edgard/finmatbot/internal/database"
	"github.com/edgard/finmatbot/internal/logger"
)

type maintenanceStore struct {
	database.Store
	calls int
	err   error
}

func (s *maintenanceStore) RunSQLMaintenance(context.Context) error {
	s.calls++
	return s.err
}

func newDeps(t *testing.T, archivePath string, store database.Store) (TaskDeps, *archive.Store) {
	t.Helper()
	arch := archive.NewStore(logger.Discard())
	return TaskDeps{
		Logger:  logger.Discard(),
		Store:   store,
		Archive: arch,
		Config:  &config.Config{Archive: config.ArchiveConfig{Path: archivePath}},
	}, arch
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()
	deps, _ := newDeps(t, "archive.csv", &maintenanceStore{})

	registered := RegisterAllTasks(deps)
	assert.Len(t, registered, 2)
	assert.Contains(t, registered, ArchiveReloadTask)
	assert.Contains(t, registered, SQLMaintenanceTask)
	for name := range config.DefaultTasks {
		assert.Contains(t, registered, name, "every default task must have an implementation")
	}
}

func TestSQLMaintenanceTask(t *testing.T) {
	t.Parallel()

	store := &maintenanceStore{}
	deps, _ := newDeps(t, "", store)
	require.NoError(t, newSQLMaintenanceTask(deps)(context.Background()))
	assert.Equal(t, 1, store.calls)

	store.err = errors.New("database is locked")
	err := newSQLMaintenanceTask(deps)(context.Background())
	require.ErrorIs(t, err, store.err)
}

func TestArchiveReloadTask(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "archive.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,exercise,result_short\n2024-06-10,3,42\n"), 0o600))

	deps, arch := newDeps(t, path, &maintenanceStore{})
	task := newArchiveReloadTask(deps)

	require.NoError(t, task(context.Background()))
	rec, ok := arch.Lookup("2024-06-10", 3)
	require.True(t, ok)
	assert.Equal(t, "42", rec.ResultShort)

	require.NoError(t, os.WriteFile(path, []byte("date,exercise,result_short\n2024-06-10,3,43\n2024-06-10,4,44\n"), 0o600))
	require.NoError(t, task(context.Background()))
	assert.Equal(t, 2, arch.Len())
	rec, _ = arch.Lookup("2024-06-10", 3)
	assert.Equal(t, "43", rec.ResultShort)

	require.NoError(t, os.Remove(path))
	require.Error(t, task(context.Background()))
	assert.Equal(t, 2, arch.Len(), "failed reload keeps the previous snapshot")
}
