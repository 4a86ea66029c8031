package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the query journal operations.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveQuery inserts a journal entry. CreatedAt defaults to now.
	SaveQuery(ctx context.Context, entry *JournalEntry) error

	// RecentQueries returns up to limit entries, newest first. An empty
	// userID selects every user.
	RecentQueries(ctx context.Context, userID string, limit int) ([]JournalEntry, error)

	// PruneBefore deletes entries created before cutoff and returns how many
	// were removed.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by a connected sqlx.DB.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) SaveQuery(ctx context.Context, entry *JournalEntry) error {
	if entry == nil {
		return fmt.Errorf("cannot save nil journal entry")
	}
	if entry.UserID == "" {
		return fmt.Errorf("journal entry must have a user_id")
	}
	if entry.ResultType == "" {
		return fmt.Errorf("journal entry must have a result_type")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO query_journal (user_id, input, intent, confidence, result_type, clarified, created_at)
        VALUES (:user_id, :input, :intent, :confidence, :result_type, :clarified, :created_at);
    `

	result, err := s.db.NamedExecContext(ctx, query, entry)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving journal entry", "user_id", entry.UserID, "error", err)
		return fmt.Errorf("failed to save journal entry (user %s): %w", entry.UserID, err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		entry.ID = uint(id)
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving journal entry", "user_id", entry.UserID, "error", err)
	}

	s.logger.DebugContext(ctx, "Journal entry saved", "user_id", entry.UserID, "entry_id", entry.ID, "intent", entry.Intent)
	return nil
}

func (s *sqlxStore) RecentQueries(ctx context.Context, userID string, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = 20
	} else if limit > 500 {
		limit = 500
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var (
		entries []JournalEntry
		err     error
	)
	if userID == "" {
		err = s.db.SelectContext(ctx, &entries, `
            SELECT id, user_id, input, intent, confidence, result_type, clarified, created_at
            FROM query_journal
            ORDER BY created_at DESC, id DESC
            LIMIT ?;`, limit)
	} else {
		err = s.db.SelectContext(ctx, &entries, `
            SELECT id, user_id, input, intent, confidence, result_type, clarified, created_at
            FROM query_journal
            WHERE user_id = ?
            ORDER BY created_at DESC, id DESC
            LIMIT ?;`, userID, limit)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error fetching recent journal entries", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to fetch recent journal entries: %w", err)
	}

	return entries, nil
}

func (s *sqlxStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM query_journal WHERE created_at < ?;", cutoff.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error pruning journal", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to prune journal: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read pruned row count: %w", err)
	}

	s.logger.InfoContext(ctx, "Journal pruned", "cutoff", cutoff, "removed", removed)
	return removed, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		s.logger.WarnContext(ctx, "Failed to set busy timeout", "error", err)
	}

	// VACUUM must run outside a transaction.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
