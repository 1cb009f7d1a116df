package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrUserNotFound is returned when an operation targets an unknown user id.
	ErrUserNotFound = errors.New("user not found")
	// ErrQuotaExceeded is returned by ConsumeQuota when the user is at or above the ceiling.
	ErrQuotaExceeded = errors.New("quota exceeded")
)

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// GetOrCreateUser returns the user with profile.ID, creating it unverified
	// with zero usage if absent. Existing users are returned unchanged.
	GetOrCreateUser(ctx context.Context, profile Profile) (*User, error)

	// GetUser returns the user or ErrUserNotFound.
	GetUser(ctx context.Context, userID int64) (*User, error)

	// MarkVerified flags the user as verified. Repeated calls are no-ops.
	MarkVerified(ctx context.Context, userID int64) error

	// ConsumeQuota atomically increments total_used if it is below ceiling and
	// appends entry (when non-nil) in the same transaction. It returns the new
	// total, or ErrQuotaExceeded without side effects.
	ConsumeQuota(ctx context.Context, userID int64, ceiling int, entry *MessageLog) (int, error)

	// AppendLog inserts a message log entry.
	AppendLog(ctx context.Context, entry *MessageLog) error

	// ListLogs returns up to limit entries for the user, newest first.
	ListLogs(ctx context.Context, userID int64, limit int) ([]MessageLog, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// withTx runs fn inside a transaction that is committed when fn returns nil
// and rolled back on every other exit path.
func (s *sqlxStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) GetOrCreateUser(ctx context.Context, profile Profile) (*User, error) {
	if profile.ID == 0 {
		return nil, fmt.Errorf("user id cannot be zero")
	}

	var user User
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()
		res, err := tx.ExecContext(ctx, `
            INSERT INTO users (id, username, first_name, last_name, is_verified, total_used, created_at, updated_at)
            VALUES (?, ?, ?, ?, 0, 0, ?, ?)
            ON CONFLICT (id) DO NOTHING;
        `, profile.ID, nullString(profile.Username), nullString(profile.FirstName), nullString(profile.LastName), now, now)
		if err != nil {
			return fmt.Errorf("failed to insert user %d: %w", profile.ID, err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 1 {
			s.logger.InfoContext(ctx, "Created user", "user_id", profile.ID, "username", profile.Username)
		}

		if err := tx.GetContext(ctx, &user, selectUser, profile.ID); err != nil {
			return fmt.Errorf("failed to load user %d: %w", profile.ID, err)
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting or creating user", "user_id", profile.ID, "error", err)
		return nil, err
	}
	return &user, nil
}

const selectUser = `
    SELECT id, username, first_name, last_name, is_verified, total_used, created_at, updated_at
    FROM users
    WHERE id = ?;
`

func (s *sqlxStore) GetUser(ctx context.Context, userID int64) (*User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, selectUser, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return &user, nil
}

func (s *sqlxStore) MarkVerified(ctx context.Context, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET is_verified = 1, updated_at = ? WHERE id = ?;`,
		time.Now().UTC(), userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error marking user verified", "user_id", userID, "error", err)
		return fmt.Errorf("failed to verify user %d: %w", userID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrUserNotFound
	}
	s.logger.InfoContext(ctx, "User verified", "user_id", userID)
	return nil
}

func (s *sqlxStore) ConsumeQuota(ctx context.Context, userID int64, ceiling int, entry *MessageLog) (int, error) {
	var total int
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
            UPDATE users
            SET total_used = total_used + 1, updated_at = ?
            WHERE id = ? AND total_used < ?;
        `, time.Now().UTC(), userID, ceiling)
		if err != nil {
			return fmt.Errorf("failed to increment usage for user %d: %w", userID, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			var exists int
			if err := tx.GetContext(ctx, &exists, `SELECT COUNT(1) FROM users WHERE id = ?;`, userID); err != nil {
				return fmt.Errorf("failed to check user %d: %w", userID, err)
			}
			if exists == 0 {
				return ErrUserNotFound
			}
			return ErrQuotaExceeded
		}

		if entry != nil {
			if err := insertLog(ctx, tx, entry); err != nil {
				return err
			}
		}

		return tx.GetContext(ctx, &total, `SELECT total_used FROM users WHERE id = ?;`, userID)
	})
	if err != nil {
		if !errors.Is(err, ErrQuotaExceeded) {
			s.logger.ErrorContext(ctx, "Error consuming quota", "user_id", userID, "error", err)
		}
		return 0, err
	}

	s.logger.DebugContext(ctx, "Quota consumed", "user_id", userID, "total_used", total, "ceiling", ceiling)
	return total, nil
}

func (s *sqlxStore) AppendLog(ctx context.Context, entry *MessageLog) error {
	if entry == nil {
		return fmt.Errorf("cannot append nil log entry")
	}
	if err := insertLog(ctx, s.db, entry); err != nil {
		s.logger.ErrorContext(ctx, "Error appending message log", "user_id", entry.UserID, "kind", entry.Kind, "error", err)
		return err
	}
	return nil
}

func insertLog(ctx context.Context, ext sqlx.ExtContext, entry *MessageLog) error {
	if entry.UserID == 0 {
		return fmt.Errorf("log entry must have a non-zero user_id")
	}
	if entry.Kind == "" {
		entry.Kind = LogKindReply
	}
	entry.CreatedAt = time.Now().UTC()

	res, err := sqlx.NamedExecContext(ctx, ext, `
        INSERT INTO message_logs (user_id, text, kind, meta, created_at)
        VALUES (:user_id, :text, :kind, :meta, :created_at);
    `, entry)
	if err != nil {
		return fmt.Errorf("failed to insert message log for user %d: %w", entry.UserID, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

func (s *sqlxStore) ListLogs(ctx context.Context, userID int64, limit int) ([]MessageLog, error) {
	if limit <= 0 {
		limit = 20
	}
	var logs []MessageLog
	err := s.db.SelectContext(ctx, &logs, `
        SELECT id, user_id, text, kind, meta, created_at
        FROM message_logs
        WHERE user_id = ?
        ORDER BY id DESC
        LIMIT ?;
    `, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs for user %d: %w", userID, err)
	}
	return logs, nil
}

// RunSQLMaintenance executes VACUUM and lets SQLite refresh its statistics.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")
	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
		s.logger.WarnContext(ctx, "PRAGMA optimize failed", "error", err)
	}
	s.logger.InfoContext(ctx, "Database maintenance completed")
	return nil
}
