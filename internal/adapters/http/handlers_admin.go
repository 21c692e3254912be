package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	auditStore "voidsyn/internal/adapters/storage/audit"
	"voidsyn/internal/application/orchestrators"
	"voidsyn/internal/domain/audit"
	"voidsyn/internal/domain/progress"
)

// handleRegisterPro grants Pro access by hand for support cases.
func (s *server) handleRegisterPro(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	err := orchestrators.ExecuteRegisterPro(r.Context(), orchestrators.RegisterProInput{UserID: uid},
		orchestrators.RegisterProDeps{Registry: s.ProUsers, Claims: s.Identity, Audit: s.Audit})
	if errors.Is(err, progress.ErrInvalidUserID) {
		jsonError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"uid":     uid,
		"message": "User registered as Pro",
	})
}

// handleListPro lists the locally registered Pro users.
func (s *server) handleListPro(w http.ResponseWriter, r *http.Request) {
	uids, err := s.ProUsers.List(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pro_users": uids, "count": len(uids)})
}

// maxAuditLimit caps ?limit= on the audit listing.
const maxAuditLimit = 1000

// handleAudit lists entitlement ledger entries, newest first.
// ?uid= and ?action= filter; ?limit= caps the result (default 100).
func (s *server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if s.Audit == nil {
		jsonError(w, http.StatusServiceUnavailable, "Audit log not configured")
		return
	}
	q := r.URL.Query()
	filter := auditStore.Filter{SubjectID: q.Get("uid"), Action: audit.Action(q.Get("action"))}
	events, err := s.Audit.List(r.Context(), filter, min(queryInt(r, "limit", auditStore.DefaultLimit), maxAuditLimit))
	if err != nil {
		internalError(w, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

// handlePerf returns the timing snapshot. ?minutes= narrows the window
// (default 60) and ?top= caps each list (default 10).
func (s *server) handlePerf(w http.ResponseWriter, r *http.Request) {
	minutes := queryInt(r, "minutes", 60)
	top := queryInt(r, "top", 10)
	since := time.Now().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, s.Perf.Snapshot(since, top))
}

func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
