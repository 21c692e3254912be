package projections

import (
	"context"
	"fmt"

	"voidsyn/internal/domain/progress"
)

// ProgressReader loads a user's completed lesson slugs.
type ProgressReader interface {
	GetCompleted(ctx context.Context, userID string) ([]string, error)
}

// LessonSlugs lists every lesson file on disk, parseable or not.
type LessonSlugs interface {
	Slugs() []string
}

// GetProgressDeps holds dependencies for the progress projection.
type GetProgressDeps struct {
	Progress ProgressReader
	Lessons  LessonSlugs
}

// QueryProgress returns the user's completion summary against the current
// lesson count.
// PRE: userID identifies an authenticated user
// POST: Percent is 0 when there are no lessons
func QueryProgress(ctx context.Context, userID string, deps GetProgressDeps) (progress.Summary, error) {
	completed, err := deps.Progress.GetCompleted(ctx, userID)
	if err != nil {
		return progress.Summary{}, fmt.Errorf("load progress: %w", err)
	}
	return progress.Summarize(completed, len(deps.Lessons.Slugs())), nil
}
