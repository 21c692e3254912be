package progress

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"voidsyn/internal/adapters/storage"
	domain "voidsyn/internal/domain/progress"
)

// record is the on-disk layout of progress_<uid>.json.
type record struct {
	Completed []string `json:"completed"`
}

// FileStore keeps one JSON document per user under dir.
// Writes for the same user are serialised and replace the file atomically.
type FileStore struct {
	dir   string
	locks storage.KeyedMutex
}

// NewFileStore creates a FileStore rooted at dir. The directory is created
// on first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// GetCompleted returns the user's completed slugs.
// PRE: userID passes domain.ValidateUserID
func (s *FileStore) GetCompleted(ctx context.Context, userID string) ([]string, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(userID)
	defer unlock()
	rec, err := s.read(userID)
	if err != nil {
		return nil, err
	}
	return domain.Normalize(rec.Completed), nil
}

// SetCompleted applies the change under the user's lock and persists it.
// POST: the file holds the sorted, deduplicated set that is returned
func (s *FileStore) SetCompleted(ctx context.Context, userID, slug string, completed bool) ([]string, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	rec, err := s.read(userID)
	if err != nil {
		return nil, err
	}
	rec.Completed = domain.Apply(rec.Completed, slug, completed)
	if err := storage.WriteJSONAtomic(s.path(userID), rec); err != nil {
		return nil, fmt.Errorf("save progress: %w", err)
	}
	return rec.Completed, nil
}

// read loads the user's record. An undecodable file counts as no progress;
// the next SetCompleted replaces it.
func (s *FileStore) read(userID string) (record, error) {
	rec := record{Completed: []string{}}
	found, err := storage.ReadJSON(s.path(userID), &rec)
	if err != nil && found {
		slog.Warn("progress_file_corrupt", "uid", userID, "error", err)
		return record{Completed: []string{}}, nil
	}
	if err != nil {
		return record{}, fmt.Errorf("load progress: %w", err)
	}
	return rec, nil
}

func (s *FileStore) path(userID string) string {
	return filepath.Join(s.dir, "progress_"+userID+".json")
}
