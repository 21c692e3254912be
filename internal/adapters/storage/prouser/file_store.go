package prouser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"voidsyn/internal/adapters/storage"
	"voidsyn/internal/domain/progress"
)

type document struct {
	ProUsers []string `json:"pro_users"`
}

// FileStore keeps the registry in a single JSON file. The file is re-read
// when its modification time changes so edits made by hand are picked up.
type FileStore struct {
	path string

	mu      sync.Mutex
	users   []string
	modTime time.Time
	loaded  bool
}

// NewFileStore creates a FileStore backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// IsRegistered reports whether userID is in the registry.
func (s *FileStore) IsRegistered(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(); err != nil {
		return false, err
	}
	_, found := slices.BinarySearch(s.users, userID)
	return found, nil
}

// Register adds userID and rewrites the file.
// PRE: userID passes progress.ValidateUserID
// POST: IsRegistered(userID) is true
func (s *FileStore) Register(ctx context.Context, userID, source string) (bool, error) {
	if err := progress.ValidateUserID(userID); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(); err != nil {
		return false, err
	}
	i, found := slices.BinarySearch(s.users, userID)
	if found {
		return false, nil
	}
	users := slices.Insert(slices.Clone(s.users), i, userID)
	if err := storage.WriteJSONAtomic(s.path, document{ProUsers: users}); err != nil {
		return false, fmt.Errorf("save pro users: %w", err)
	}
	s.users = users
	if info, err := os.Stat(s.path); err == nil {
		s.modTime = info.ModTime()
	}
	return true, nil
}

// List returns every registered user id, sorted.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(); err != nil {
		return nil, err
	}
	return slices.Clone(s.users), nil
}

// refresh reloads the cached list when the file changed on disk.
// Caller holds s.mu.
func (s *FileStore) refresh() error {
	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.users, s.modTime, s.loaded = nil, time.Time{}, true
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat pro users: %w", err)
	}
	if s.loaded && info.ModTime().Equal(s.modTime) {
		return nil
	}
	var doc document
	if _, err := storage.ReadJSON(s.path, &doc); err != nil {
		return fmt.Errorf("load pro users: %w", err)
	}
	s.users = progress.Normalize(doc.ProUsers)
	s.modTime = info.ModTime()
	s.loaded = true
	return nil
}
