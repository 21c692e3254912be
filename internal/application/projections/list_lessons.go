package projections

import (
	"context"
	"sort"
	"strings"

	"voidsyn/internal/adapters/content"
	"voidsyn/internal/application/listutil"
	"voidsyn/internal/domain/lesson"
	"voidsyn/internal/domain/user"
)

// LessonSearcher scores lessons against a query.
type LessonSearcher interface {
	Search(query string) []content.SearchResult
}

// SearchView is the search page model.
type SearchView struct {
	Query   string
	Results []content.SearchResult
	Page    listutil.PageInfo
}

// QuerySearch runs the query against the index and slices out one page.
// POST: a blank query yields no results
func QuerySearch(params listutil.ListParams, index LessonSearcher) SearchView {
	q := strings.TrimSpace(params.Search)
	all := index.Search(q)
	page := listutil.NewPageInfo(params.Page, params.PerPage, len(all)).WithParams(params.Query())
	return SearchView{Query: q, Results: listutil.Paginate(all, page), Page: page}
}

// CourseLister lists lessons in catalog order.
type CourseLister interface {
	Courses() []lesson.Entry
}

// CoursesView is the catalog page model.
type CoursesView struct {
	Tag     string
	Tags    []string // every tag in the catalog, sorted
	Lessons []lesson.Entry
	Page    listutil.PageInfo
}

// QueryCourses filters the catalog by tag and slices out one page.
// POST: Tags is computed over the unfiltered catalog
func QueryCourses(params listutil.ListParams, lessons CourseLister) CoursesView {
	all := lessons.Courses()
	seen := make(map[string]bool)
	var tags []string
	filtered := all[:0:0]
	for _, e := range all {
		match := params.Tag == ""
		for _, t := range e.Tags {
			t = strings.ToLower(t)
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
			if t == params.Tag {
				match = true
			}
		}
		if match {
			filtered = append(filtered, e)
		}
	}
	sort.Strings(tags)

	page := listutil.NewPageInfo(params.Page, params.PerPage, len(filtered)).WithParams(params.Query())
	return CoursesView{
		Tag:     params.Tag,
		Tags:    tags,
		Lessons: listutil.Paginate(filtered, page),
		Page:    page,
	}
}

// ProLessonLister lists lessons tagged pro.
type ProLessonLister interface {
	ProLessons() []lesson.Entry
}

// ProDashboardDeps holds dependencies for the Pro dashboard projection.
type ProDashboardDeps struct {
	Lessons  ProLessonLister
	Registry ProRegistry
}

// QueryProDashboard lists Pro lessons for an entitled user.
// POST: returns ErrProRequired when u lacks Pro access
func QueryProDashboard(ctx context.Context, u *user.User, deps ProDashboardDeps) ([]lesson.Entry, error) {
	ok, err := QueryProAccess(ctx, u, deps.Registry)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProRequired
	}
	return deps.Lessons.ProLessons(), nil
}
