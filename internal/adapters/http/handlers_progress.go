package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"voidsyn/internal/adapters/http/middleware"
	"voidsyn/internal/application/orchestrators"
	"voidsyn/internal/application/projections"
	"voidsyn/internal/domain/lesson"
	"voidsyn/internal/domain/progress"
)

type progressUpdateRequest struct {
	Slug      string          `json:"slug" validate:"max=512"`
	Completed json.RawMessage `json:"completed"`
}

// completed reads the flag by JSON truthiness. Absent means true; null,
// false, 0 and "" mean false.
func (req progressUpdateRequest) completed() (*bool, error) {
	if len(req.Completed) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(req.Completed, &v); err != nil {
		return nil, err
	}
	done := lesson.Truthy(v)
	return &done, nil
}

// handleGetProgress returns the signed-in user's progress summary.
func (s *server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUserFromContext(r.Context())
	summary, err := projections.QueryProgress(r.Context(), u.UID, projections.GetProgressDeps{
		Progress: s.Progress,
		Lessons:  s.Index,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleUpdateProgress toggles one lesson's completion. The body is
// {"slug": "...", "completed": true|false}; completed defaults to true.
func (s *server) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUserFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req progressUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	completed, err := req.completed()
	if err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid slug")
		return
	}

	summary, err := orchestrators.ExecuteUpdateProgress(r.Context(), orchestrators.UpdateProgressInput{
		UserID:    u.UID,
		Slug:      req.Slug,
		Completed: completed,
	}, orchestrators.UpdateProgressDeps{
		Progress: s.Progress,
		Lessons:  s.Index,
	})
	if errors.Is(err, progress.ErrMissingSlug) {
		jsonError(w, http.StatusBadRequest, "Missing slug")
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
