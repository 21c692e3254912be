package content

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"voidsyn/internal/domain/lesson"
)

// DefaultTTL bounds how long a built index is served before a rebuild.
const DefaultTTL = 5 * time.Minute

// ErrLessonNotFound is returned by Load for slugs with no lesson file.
var ErrLessonNotFound = errors.New("lesson not found")

// SearchResult is an index entry with its relevance score.
type SearchResult struct {
	lesson.Entry
	Score int
}

// Index is the in-memory lesson catalogue built from the content directory.
// It is safe for concurrent use. A built index is reused until it is
// invalidated explicitly, by the watcher, or by its TTL expiring.
type Index struct {
	root string
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	entries []lesson.Entry
	slugs   []string
	builtAt time.Time
	valid   bool
}

// NewIndex creates an index over root. A ttl <= 0 disables expiry.
func NewIndex(root string, ttl time.Duration) *Index {
	return &Index{root: root, ttl: ttl, now: time.Now}
}

// Root returns the content directory the index reads from.
func (x *Index) Root() string {
	return x.root
}

// Invalidate marks the index stale; the next read rebuilds it.
func (x *Index) Invalidate() {
	x.mu.Lock()
	x.valid = false
	x.mu.Unlock()
}

// Rebuild walks the content root and replaces the cached index.
// Unreadable or malformed files are skipped and never surface as errors.
// POST: the index is valid and stamped with the current time
func (x *Index) Rebuild() []lesson.Entry {
	start := x.now()
	var entries []lesson.Entry
	var slugs []string
	skipped := 0

	err := filepath.WalkDir(x.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// An unreadable subdirectory is skipped, the rest of the tree still indexes.
			if d != nil && d.IsDir() && p != x.root {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != x.root && hiddenDir(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if !isLessonFile(p) {
			return nil
		}
		slug, err := slugFromPath(x.root, p)
		if err != nil {
			return nil
		}
		slugs = append(slugs, slug)

		doc, err := readDocument(p, slug)
		if err != nil {
			skipped++
			slog.Debug("lesson_skipped", "slug", slug, "error", err.Error())
			return nil
		}
		entries = append(entries, doc.Entry())
		return nil
	})
	if err != nil {
		slog.Warn("content_walk_failed", "root", x.root, "error", err.Error())
	}
	sort.Strings(slugs)

	x.mu.Lock()
	x.entries = entries
	x.slugs = slugs
	x.builtAt = x.now()
	x.valid = true
	x.mu.Unlock()

	slog.Info("content_index_rebuilt",
		"root", x.root,
		"lessons", len(entries),
		"skipped", skipped,
		"duration_ms", float64(x.now().Sub(start).Microseconds())/1000.0,
	)
	return entries
}

// Entries returns the cached index, rebuilding it when stale.
func (x *Index) Entries() []lesson.Entry {
	x.mu.RLock()
	fresh := x.fresh()
	entries := x.entries
	x.mu.RUnlock()
	if fresh {
		return entries
	}
	return x.Rebuild()
}

// Slugs returns every lesson file's slug in sorted order, including files
// that failed to parse.
func (x *Index) Slugs() []string {
	x.mu.RLock()
	fresh := x.fresh()
	slugs := x.slugs
	x.mu.RUnlock()
	if !fresh {
		x.Rebuild()
		x.mu.RLock()
		slugs = x.slugs
		x.mu.RUnlock()
	}
	return append([]string(nil), slugs...)
}

// Featured returns the first n entries in index order.
func (x *Index) Featured(n int) []lesson.Entry {
	entries := x.Entries()
	if n < len(entries) {
		entries = entries[:n]
	}
	return append([]lesson.Entry(nil), entries...)
}

// Courses returns all entries sorted by lowercase display title.
func (x *Index) Courses() []lesson.Entry {
	entries := append([]lesson.Entry(nil), x.Entries()...)
	sort.SliceStable(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].DisplayTitle()) < strings.ToLower(entries[j].DisplayTitle())
	})
	return entries
}

// ProLessons returns the entries tagged pro, in index order.
func (x *Index) ProLessons() []lesson.Entry {
	var out []lesson.Entry
	for _, e := range x.Entries() {
		if e.IsPro() {
			out = append(out, e)
		}
	}
	return out
}

// Search scores every entry against query: title +3, summary +2, any tag +2,
// body text +1. Zero scores are dropped and ties keep index order.
// POST: results are sorted by descending score; a blank query yields none
func (x *Index) Search(query string) []SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var results []SearchResult
	for _, e := range x.Entries() {
		score := 0
		if strings.Contains(strings.ToLower(e.Title), q) {
			score += 3
		}
		if strings.Contains(strings.ToLower(e.Summary), q) {
			score += 2
		}
		for _, tag := range e.Tags {
			if strings.Contains(strings.ToLower(tag), q) {
				score += 2
				break
			}
		}
		if strings.Contains(e.Text, q) {
			score++
		}
		if score > 0 {
			results = append(results, SearchResult{Entry: e, Score: score})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// Load reads and parses a single lesson by slug.
// Slugs resolving outside the content root are reported as not found.
func (x *Index) Load(slug string) (lesson.Document, error) {
	p, ok := x.pathFor(slug)
	if !ok {
		return lesson.Document{}, ErrLessonNotFound
	}
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		return lesson.Document{}, ErrLessonNotFound
	}
	doc, err := readDocument(p, slug)
	if err != nil {
		return lesson.Document{}, fmt.Errorf("load lesson %q: %w", slug, err)
	}
	return doc, nil
}

// fresh must be called with mu held.
func (x *Index) fresh() bool {
	if !x.valid {
		return false
	}
	return x.ttl <= 0 || x.now().Sub(x.builtAt) < x.ttl
}

func (x *Index) pathFor(slug string) (string, bool) {
	if slug == "" || strings.ContainsRune(slug, 0) || strings.Contains(slug, `\`) {
		return "", false
	}
	segs := strings.Split(slug, "/")
	for _, dir := range segs[:len(segs)-1] {
		if hiddenDir(dir) {
			return "", false
		}
	}
	p := filepath.Join(x.root, filepath.FromSlash(slug)+".json")
	rel, err := filepath.Rel(x.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return p, true
}

func readDocument(p, slug string) (lesson.Document, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return lesson.Document{}, err
	}
	return lesson.Parse(slug, data)
}

// hiddenDir reports whether a directory name is excluded from the index and
// the watcher, e.g. .git or .drafts.
func hiddenDir(name string) bool {
	return strings.HasPrefix(name, ".")
}

func isLessonFile(p string) bool {
	return strings.EqualFold(filepath.Ext(p), ".json")
}

// slugFromPath converts an absolute lesson path to its slug.
func slugFromPath(root, p string) (string, error) {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	return rel[:len(rel)-len(".json")], nil
}
