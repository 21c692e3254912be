package progress

import (
	"errors"
	"math"
	"sort"
	"strings"
)

// Domain errors
var (
	ErrMissingSlug   = errors.New("missing slug")
	ErrInvalidUserID = errors.New("invalid user id")
)

// Summary is the progress view returned to clients.
type Summary struct {
	Completed []string `json:"completed"`
	Total     int      `json:"total"`
	Percent   int      `json:"percent"`
}

// Summarize builds the progress view for a completed set against the number
// of known lessons. Completed slugs are deduplicated and sorted.
// PRE: total >= 0
// POST: Percent is 0 when total is 0, otherwise round(len/total*100) capped at 100
func Summarize(completed []string, total int) Summary {
	set := Normalize(completed)
	return Summary{
		Completed: set,
		Total:     total,
		Percent:   Percent(len(set), total),
	}
}

// Percent returns done/total as a whole percentage, rounding half away from zero.
func Percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(float64(done) / float64(total) * 100))
	if p > 100 {
		p = 100
	}
	return p
}

// Apply adds or removes slug from the completed set.
// INVARIANT: the result is sorted and has no duplicates; repeated calls are no-ops
func Apply(completed []string, slug string, done bool) []string {
	set := make(map[string]struct{}, len(completed)+1)
	for _, s := range completed {
		set[s] = struct{}{}
	}
	if done {
		set[slug] = struct{}{}
	} else {
		delete(set, slug)
	}
	return sortedKeys(set)
}

// Normalize deduplicates, drops blanks and sorts a completed list.
func Normalize(completed []string) []string {
	set := make(map[string]struct{}, len(completed))
	for _, s := range completed {
		if strings.TrimSpace(s) == "" {
			continue
		}
		set[s] = struct{}{}
	}
	return sortedKeys(set)
}

// ValidateUserID rejects ids that could escape a per-user file name.
func ValidateUserID(uid string) error {
	if uid == "" || uid == "." || uid == ".." || strings.ContainsAny(uid, `/\`) || strings.ContainsRune(uid, 0) {
		return ErrInvalidUserID
	}
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
