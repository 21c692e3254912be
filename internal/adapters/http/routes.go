package web

import (
	"io/fs"
	"net/http"

	"voidsyn/internal/adapters/http/middleware"
)

func (s *server) registerRoutes(mux *http.ServeMux) {
	login := func(h http.HandlerFunc) http.Handler { return middleware.RequireLogin(h) }
	admin := middleware.RequireAdminKey(s.AdminKeyHash)

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	// Pages
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.Handle("GET /dashboard", login(s.handleDashboard))
	mux.HandleFunc("GET /courses", s.handleCourses)
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /lesson/{slug...}", s.handleLesson)
	mux.HandleFunc("GET /pricing", s.handlePricing)
	mux.Handle("GET /pro", login(s.handleProDashboard))
	mux.HandleFunc("GET /support", s.handleSupport)

	// Session
	mux.HandleFunc("POST /sessionLogin", s.handleSessionLogin)
	mux.HandleFunc("POST /sessionLogout", s.handleSessionLogout)
	mux.HandleFunc("GET /config.js", s.handleConfigJS)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	// Progress API
	mux.Handle("GET /api/progress", login(s.handleGetProgress))
	mux.Handle("POST /api/progress", login(s.handleUpdateProgress))
	mux.Handle("GET /api/pro/lessons", middleware.RequireProClaim(http.HandlerFunc(s.handleProLessonsAPI)))

	// Payments
	mux.Handle("POST /create-checkout-session", login(s.handleCreateCheckout))
	mux.Handle("GET /payment/success", login(s.handlePaymentSuccess))
	mux.HandleFunc("POST /stripe/webhook", s.handleStripeWebhook)

	// Operator endpoints
	mux.Handle("POST /admin/register-pro/{uid}", admin(http.HandlerFunc(s.handleRegisterPro)))
	mux.Handle("GET /admin/pro-users", admin(http.HandlerFunc(s.handleListPro)))
	mux.Handle("GET /admin/audit", admin(http.HandlerFunc(s.handleAudit)))
	mux.Handle("GET /admin/perf", admin(http.HandlerFunc(s.handlePerf)))

	mux.HandleFunc("/", s.notFound)
}
