package orchestrators

import (
	"context"
	"fmt"
	"strings"

	"voidsyn/internal/domain/progress"
)

// ProgressWriter persists lesson completion for a user.
type ProgressWriter interface {
	SetCompleted(ctx context.Context, userID, slug string, completed bool) ([]string, error)
}

// LessonCatalog reports the slugs of every lesson file on disk.
type LessonCatalog interface {
	Slugs() []string
}

// UpdateProgressInput carries a completion toggle. Completed defaults to
// true when nil.
type UpdateProgressInput struct {
	UserID    string
	Slug      string
	Completed *bool
}

// UpdateProgressDeps holds dependencies for UpdateProgress.
type UpdateProgressDeps struct {
	Progress ProgressWriter
	Lessons  LessonCatalog
}

// ExecuteUpdateProgress marks a lesson complete or incomplete and returns
// the refreshed summary.
// PRE: UserID identifies an authenticated user
// POST: the stored set reflects the toggle; repeating the call changes nothing
func ExecuteUpdateProgress(ctx context.Context, input UpdateProgressInput, deps UpdateProgressDeps) (progress.Summary, error) {
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		return progress.Summary{}, progress.ErrMissingSlug
	}
	done := true
	if input.Completed != nil {
		done = *input.Completed
	}

	completed, err := deps.Progress.SetCompleted(ctx, input.UserID, slug, done)
	if err != nil {
		return progress.Summary{}, fmt.Errorf("update progress: %w", err)
	}
	return progress.Summarize(completed, len(deps.Lessons.Slugs())), nil
}
