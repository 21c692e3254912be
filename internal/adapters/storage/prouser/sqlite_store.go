package prouser

import (
	"context"
	"database/sql"
	"time"

	"voidsyn/internal/adapters/storage"
	"voidsyn/internal/domain/progress"
)

// SQLiteStore implements Store using the pro_user table.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// IsRegistered reports whether a pro_user row exists for userID.
func (s *SQLiteStore) IsRegistered(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM pro_user WHERE user_id = ?", userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Register inserts userID, keeping the first registration time and source.
// PRE: userID passes progress.ValidateUserID
func (s *SQLiteStore) Register(ctx context.Context, userID, source string) (bool, error) {
	if err := progress.ValidateUserID(userID); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO pro_user (user_id, registered_at, source) VALUES (?, ?, ?) ON CONFLICT(user_id) DO NOTHING",
		userID, time.Now().UTC().Format(time.RFC3339Nano), source)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns all registered user ids ordered by id.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT user_id FROM pro_user ORDER BY user_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
