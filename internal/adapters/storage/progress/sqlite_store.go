package progress

import (
	"context"
	"time"

	"voidsyn/internal/adapters/storage"
	domain "voidsyn/internal/domain/progress"
)

// SQLiteStore implements Store with one row per completed lesson.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetCompleted retrieves the user's completed slugs in sorted order.
// PRE: userID is non-empty
func (s *SQLiteStore) GetCompleted(ctx context.Context, userID string) ([]string, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT slug FROM lesson_completion WHERE user_id = ? ORDER BY slug", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	completed := []string{}
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, err
		}
		completed = append(completed, slug)
	}
	return completed, rows.Err()
}

// SetCompleted inserts or deletes the completion row and returns the new set
// read inside the same transaction.
// POST: repeated calls with the same arguments leave the table unchanged
func (s *SQLiteStore) SetCompleted(ctx context.Context, userID, slug string, completed bool) ([]string, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if completed {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO lesson_completion (user_id, slug, completed_at) VALUES (?, ?, ?) ON CONFLICT(user_id, slug) DO NOTHING",
			userID, slug, time.Now().UTC().Format(time.RFC3339Nano))
	} else {
		_, err = tx.ExecContext(ctx,
			"DELETE FROM lesson_completion WHERE user_id = ? AND slug = ?", userID, slug)
	}
	if err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx,
		"SELECT slug FROM lesson_completion WHERE user_id = ? ORDER BY slug", userID)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, tx.Commit()
}
