package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"voidsyn/internal/adapters/content"
	"voidsyn/internal/adapters/email"
	"voidsyn/internal/adapters/http/middleware"
	"voidsyn/internal/adapters/http/perf"
	"voidsyn/internal/adapters/identity"
	"voidsyn/internal/adapters/payment"
	auditStore "voidsyn/internal/adapters/storage/audit"
	progressStore "voidsyn/internal/adapters/storage/progress"
	proUserStore "voidsyn/internal/adapters/storage/prouser"
	"voidsyn/internal/domain/entitlement"
)

// FirebaseWebConfig is the public client config served at /config.js.
type FirebaseWebConfig struct {
	APIKey            string `json:"apiKey"`
	AuthDomain        string `json:"authDomain"`
	ProjectID         string `json:"projectId"`
	AppID             string `json:"appId"`
	MessagingSenderID string `json:"messagingSenderId"`
}

// Deps holds everything the HTTP layer needs. Identity, Payments, Email and
// Audit may be nil when the corresponding backend is not configured.
type Deps struct {
	Cookie               middleware.CookieConfig
	BaseURL              string
	Offer                entitlement.Offer
	FirebaseWeb          FirebaseWebConfig
	StripePublishableKey string
	CSRF                 middleware.CSRFConfig
	AdminKeyHash         string
	RateLimitRPS         float64
	TrustProxy           bool
	SlowRequest          time.Duration

	Index    *content.Index
	Progress progressStore.Store
	ProUsers proUserStore.Store
	Audit    auditStore.Store
	Identity identity.Provider
	Payments payment.Provider
	Email    email.Sender
	Perf     *perf.Collector
}

// server carries the wired dependencies into the handlers.
type server struct {
	Deps
	validate *validator.Validate
}

// NewMux wires HTTP handlers for the app.
func NewMux(deps Deps) http.Handler {
	s := &server{Deps: deps, validate: validator.New(validator.WithRequiredStructEnabled())}
	if s.Offer.Name == "" {
		s.Offer = entitlement.DefaultOffer()
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	// Stripe signs and retries webhooks from shared egress addresses.
	const webhookPath = "/stripe/webhook"
	csrfCfg := deps.CSRF
	csrfCfg.ExemptPaths = append(csrfCfg.ExemptPaths, webhookPath)
	if deps.BaseURL != "" {
		csrfCfg.TrustedOrigins = append(csrfCfg.TrustedOrigins, trimScheme(deps.BaseURL))
	}

	limiter := middleware.NewRateLimiter(deps.RateLimitRPS, burstFor(deps.RateLimitRPS))

	// Request flow: RequestID -> Timing -> Recover -> SecurityHeaders ->
	// RateLimit -> CSRF -> Auth -> mux
	return middleware.Chain(mux,
		middleware.Auth(deps.Identity, deps.Cookie.Name),
		middleware.CSRF(csrfCfg),
		middleware.RateLimit(limiter, middleware.RateLimitConfig{
			ExemptPaths: []string{webhookPath},
			TrustProxy:  deps.TrustProxy,
		}),
		middleware.SecurityHeaders(deps.Cookie.Secure),
		middleware.Recover(s.serverError),
		middleware.Timing(deps.Perf, deps.SlowRequest),
		middleware.RequestID,
	)
}

func burstFor(rps float64) int {
	if rps < 1 {
		return 5
	}
	return int(rps) * 2
}

func trimScheme(u string) string {
	u = strings.TrimPrefix(u, "https://")
	return strings.TrimPrefix(u, "http://")
}
