package web

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"voidsyn/internal/adapters/http/middleware"
	"voidsyn/internal/application/listutil"
	"voidsyn/internal/application/projections"
)

// featuredCount is how many lessons the home page and dashboard recommend.
const featuredCount = 6

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, r, "index.html", map[string]any{
		"Lessons": s.Index.Featured(featuredCount),
	})
}

func (s *server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	next := middleware.LocalPath(r.URL.Query().Get("next"), "/dashboard")
	if _, ok := middleware.GetUserFromContext(r.Context()); ok {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	s.renderTemplate(w, r, "login.html", map[string]any{
		"Next": next,
	})
}

func (s *server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUserFromContext(r.Context())
	summary, err := projections.QueryProgress(r.Context(), u.UID, projections.GetProgressDeps{
		Progress: s.Progress,
		Lessons:  s.Index,
	})
	if err != nil {
		s.pageError(w, r, err)
		return
	}
	hasPro, err := projections.QueryProAccess(r.Context(), u, s.ProUsers)
	if err != nil {
		s.pageError(w, r, err)
		return
	}
	s.renderTemplate(w, r, "dashboard.html", map[string]any{
		"User":     u,
		"Lessons":  s.Index.Featured(featuredCount),
		"Progress": summary,
		"HasPro":   hasPro,
	})
}

func (s *server) handleCourses(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, r, "courses.html", projections.QueryCourses(listutil.ParseListParams(r.URL.Query()), s.Index))
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, r, "search.html", projections.QuerySearch(listutil.ParseListParams(r.URL.Query()), s.Index))
}

func (s *server) handleLesson(w http.ResponseWriter, r *http.Request) {
	slug := strings.Trim(r.PathValue("slug"), "/")
	if slug == "" {
		s.notFound(w, r)
		return
	}
	u, _ := middleware.GetUserFromContext(r.Context())
	view, err := projections.QueryLesson(r.Context(), projections.GetLessonInput{Slug: slug, User: u},
		projections.GetLessonDeps{Lessons: s.Index, Registry: s.ProUsers})
	switch {
	case err == nil:
	case projections.IsNotFound(err):
		s.notFound(w, r)
		return
	case errors.Is(err, projections.ErrProRequired):
		http.Redirect(w, r, "/pricing", http.StatusFound)
		return
	default:
		s.pageError(w, r, err)
		return
	}

	completed := false
	if u != nil {
		summary, err := projections.QueryProgress(r.Context(), u.UID, projections.GetProgressDeps{
			Progress: s.Progress,
			Lessons:  s.Index,
		})
		if err != nil {
			s.pageError(w, r, err)
			return
		}
		for _, c := range summary.Completed {
			if c == view.Slug {
				completed = true
				break
			}
		}
	}

	// Body and TOC have been through the sanitizer pass.
	s.renderTemplate(w, r, "lesson.html", map[string]any{
		"Lesson":    view,
		"Body":      template.HTML(view.Body),
		"TOC":       template.HTML(view.TOC),
		"Completed": completed,
	})
}

func (s *server) handlePricing(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, r, "pricing.html", map[string]any{
		"Offer":          s.Offer,
		"PublishableKey": s.StripePublishableKey,
		"PaymentsReady":  s.Payments != nil,
	})
}

func (s *server) handleProDashboard(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUserFromContext(r.Context())
	lessons, err := projections.QueryProDashboard(r.Context(), u, projections.ProDashboardDeps{
		Lessons:  s.Index,
		Registry: s.ProUsers,
	})
	if errors.Is(err, projections.ErrProRequired) {
		http.Redirect(w, r, "/pricing", http.StatusFound)
		return
	}
	if err != nil {
		s.pageError(w, r, err)
		return
	}
	s.renderTemplate(w, r, "pro_dashboard.html", map[string]any{
		"Lessons": lessons,
	})
}

func (s *server) handleSupport(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, r, "support.html", nil)
}

type proLessonJSON struct {
	Slug    string   `json:"slug"`
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// handleProLessonsAPI lists Pro lessons for clients holding the pro claim.
func (s *server) handleProLessonsAPI(w http.ResponseWriter, r *http.Request) {
	entries := s.Index.ProLessons()
	out := make([]proLessonJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, proLessonJSON{Slug: e.Slug, Title: e.DisplayTitle(), Summary: e.Summary, Tags: e.Tags})
	}
	writeJSON(w, http.StatusOK, map[string]any{"lessons": out})
}
