package projections

import (
	"context"
	"errors"

	"voidsyn/internal/adapters/content"
	"voidsyn/internal/application/render"
	"voidsyn/internal/domain/lesson"
	"voidsyn/internal/domain/user"
)

// ErrProRequired means the lesson is tagged pro and the viewer lacks access.
var ErrProRequired = errors.New("pro access required")

// LessonLoader reads one lesson document by slug.
type LessonLoader interface {
	Load(slug string) (lesson.Document, error)
}

// GetLessonInput identifies the lesson and the viewer, who may be nil.
type GetLessonInput struct {
	Slug string
	User *user.User
}

// GetLessonDeps holds dependencies for the lesson page projection.
type GetLessonDeps struct {
	Lessons  LessonLoader
	Registry ProRegistry
}

// LessonView is a lesson ready for the page template. Body and TOC are
// sanitized HTML fragments.
type LessonView struct {
	Slug    string
	Title   string
	Summary string
	Tags    []string
	Body    string
	TOC     string
}

// QueryLesson loads, gates and renders a lesson.
// PRE: Slug is the path captured after /lesson/
// POST: returns content.ErrLessonNotFound for unknown slugs and
// ErrProRequired when a pro lesson is requested without access
func QueryLesson(ctx context.Context, input GetLessonInput, deps GetLessonDeps) (LessonView, error) {
	doc, err := deps.Lessons.Load(input.Slug)
	if err != nil {
		return LessonView{}, err
	}
	if doc.IsPro() {
		ok, err := QueryProAccess(ctx, input.User, deps.Registry)
		if err != nil {
			return LessonView{}, err
		}
		if !ok {
			return LessonView{}, ErrProRequired
		}
	}

	body, toc := render.Blocks(doc.Blocks)
	title := doc.Title
	if title == "" {
		title = "Lesson"
	}
	return LessonView{
		Slug:    doc.Slug,
		Title:   title,
		Summary: doc.Summary,
		Tags:    doc.Tags,
		Body:    render.Sanitize(body),
		TOC:     render.Sanitize(toc),
	}, nil
}

// IsNotFound reports whether err means the lesson does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, content.ErrLessonNotFound)
}
