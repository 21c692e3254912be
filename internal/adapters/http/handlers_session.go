package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"voidsyn/internal/adapters/http/middleware"
	"voidsyn/internal/application/orchestrators"
	"voidsyn/internal/config"
)

type sessionLoginRequest struct {
	IDToken string `json:"idToken"`
}

// handleSessionLogin exchanges a client ID token for the session cookie.
// Accepts a JSON body or a form field named idToken.
func (s *server) handleSessionLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var token string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req sessionLoginRequest
		// Unknown fields are tolerated; Firebase clients sometimes send extras.
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			token = req.IDToken
		}
	} else if err := r.ParseForm(); err == nil {
		token = r.PostFormValue("idToken")
	}

	if s.Identity == nil {
		if strings.TrimSpace(token) == "" {
			jsonError(w, http.StatusBadRequest, "Missing idToken")
			return
		}
		jsonError(w, http.StatusUnauthorized, "Failed to create session cookie")
		return
	}

	res, err := orchestrators.ExecuteSessionLogin(r.Context(), orchestrators.SessionLoginInput{
		IDToken: token,
		TTL:     config.SessionTTL,
	}, orchestrators.SessionLoginDeps{Identity: s.Identity})
	switch {
	case errors.Is(err, orchestrators.ErrMissingIDToken):
		jsonError(w, http.StatusBadRequest, "Missing idToken")
		return
	case err != nil:
		jsonError(w, http.StatusUnauthorized, "Failed to create session cookie")
		return
	}

	cookie := s.Cookie
	cookie.MaxAge = res.MaxAge
	middleware.SetSessionCookie(w, cookie, res.Cookie)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleSessionLogout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSessionCookie(w, s.Cookie)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleConfigJS serves the public Firebase web config to the client SDK.
func (s *server) handleConfigJS(w http.ResponseWriter, r *http.Request) {
	body, err := json.Marshal(s.FirebaseWeb)
	if err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "no-cache")
	fmt.Fprintf(w, "window.FIREBASE_CONFIG = %s;\n", body)
}
