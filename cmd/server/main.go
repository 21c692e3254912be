package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"voidsyn/internal/adapters/content"
	"voidsyn/internal/adapters/email"
	web "voidsyn/internal/adapters/http"
	"voidsyn/internal/adapters/http/middleware"
	"voidsyn/internal/adapters/http/perf"
	"voidsyn/internal/adapters/identity"
	"voidsyn/internal/adapters/payment"
	"voidsyn/internal/adapters/retry"
	"voidsyn/internal/adapters/storage"
	auditStore "voidsyn/internal/adapters/storage/audit"
	progressStore "voidsyn/internal/adapters/storage/progress"
	proUserStore "voidsyn/internal/adapters/storage/prouser"
	"voidsyn/internal/config"
	"voidsyn/internal/domain/entitlement"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("server_exit", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := perf.NewCollector(perf.DefaultRingSize)

	st, err := openStores(cfg, collector)
	if err != nil {
		return err
	}
	defer st.close()

	index := content.NewIndex(cfg.ContentDir, cfg.ContentIndexTTL)
	if len(index.Rebuild()) == 0 {
		slog.Warn("content_index_empty", "dir", cfg.ContentDir)
	}

	if watcher, err := content.NewWatcher(index, content.DefaultSettleDelay); err != nil {
		slog.Warn("content_watch_disabled", "dir", cfg.ContentDir, "error", err)
	} else {
		go func() {
			if err := watcher.Run(ctx); err != nil {
				slog.Warn("content_watch_stopped", "error", err)
			}
		}()
	}

	maxRetries := cfg.ProviderMaxRetries
	if maxRetries == 0 {
		maxRetries = -1
	}
	policy := retry.Policy{
		Timeout:    cfg.ProviderTimeout,
		MaxRetries: maxRetries,
		Collector:  collector,
	}

	offer := entitlement.Offer{
		Name:        cfg.Stripe.ProductName,
		Description: entitlement.DefaultOffer().Description,
		AmountMinor: cfg.Stripe.PricePence,
		Currency:    cfg.Stripe.Currency,
	}

	deps := web.Deps{
		Cookie: middleware.CookieConfig{
			Name:   cfg.Cookie.Name,
			Secure: cfg.Cookie.Secure,
			Domain: cfg.Cookie.Domain,
			MaxAge: config.SessionTTL,
		},
		BaseURL: cfg.BaseURL,
		Offer:   offer,
		FirebaseWeb: web.FirebaseWebConfig{
			APIKey:            cfg.Firebase.WebAPIKey,
			AuthDomain:        cfg.Firebase.WebAuthDomain,
			ProjectID:         cfg.Firebase.ProjectID,
			AppID:             cfg.Firebase.WebAppID,
			MessagingSenderID: cfg.Firebase.WebMessagingSenderID,
		},
		StripePublishableKey: cfg.Stripe.PublishableKey,
		CSRF:                 middleware.CSRFConfig{Key: cfg.CSRFKey, Secure: cfg.Cookie.Secure},
		AdminKeyHash:         cfg.AdminKeyHash,
		RateLimitRPS:         cfg.RateLimitRPS,
		TrustProxy:           cfg.TrustProxy,
		SlowRequest:          cfg.SlowRequest,
		Index:                index,
		Progress:             st.progress,
		ProUsers:             st.proUsers,
		Audit:                st.audit,
		Perf:                 collector,
	}

	// Providers stay as untyped nil interfaces when unconfigured so the
	// handlers can tell them apart from a configured client.
	if cfg.Firebase.ProjectID != "" || cfg.Firebase.CredentialsFile != "" {
		fb, err := identity.NewFirebaseProvider(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile, policy)
		if err != nil {
			return fmt.Errorf("init firebase: %w", err)
		}
		deps.Identity = fb
		slog.Info("provider_configured", "provider", "firebase", "project", cfg.Firebase.ProjectID)
	} else {
		slog.Warn("provider_disabled", "provider", "firebase", "reason", "FIREBASE_PROJECT_ID not set; sign-in is unavailable")
	}

	if cfg.Stripe.SecretKey != "" {
		deps.Payments = payment.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, policy)
		slog.Info("provider_configured", "provider", "stripe")
		if cfg.Stripe.WebhookSecret == "" {
			slog.Warn("stripe_webhook_unverifiable", "reason", "STRIPE_WEBHOOK_SECRET not set; every delivery will be rejected")
		}
	} else {
		slog.Warn("provider_disabled", "provider", "stripe", "reason", "STRIPE_SECRET_KEY not set; checkout is unavailable")
	}

	if cfg.ResendAPIKey != "" {
		deps.Email = email.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom, policy)
		slog.Info("provider_configured", "provider", "resend")
	} else {
		deps.Email = email.NewNoopSender()
		if cfg.IsProduction() {
			slog.Warn("provider_disabled", "provider", "resend", "reason", "RESEND_API_KEY not set; receipts are logged only")
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           web.NewMux(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_start", "version", version, "addr", cfg.Addr, "env", cfg.Env,
			"storage", cfg.StorageBackend, "schema", storage.LatestSchemaVersion())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server_shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupLogging(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

// stores bundles the persistence backends selected at startup.
type stores struct {
	progress progressStore.Store
	proUsers proUserStore.Store
	audit    auditStore.Store
	close    func()
}

// openStores selects the progress, Pro registration and audit backends.
func openStores(cfg config.Config, collector *perf.Collector) (stores, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return stores{}, fmt.Errorf("create data dir: %w", err)
	}
	if cfg.StorageBackend == config.BackendSQLite {
		db, err := storage.OpenSQLite(filepath.Join(cfg.DataDir, "voidsyn.db"))
		if err != nil {
			return stores{}, err
		}
		if err := storage.MigrateDB(db); err != nil {
			db.Close()
			return stores{}, fmt.Errorf("migrate database: %w", err)
		}
		timed := storage.NewTimedDB(db, collector, cfg.SlowQuery)
		return stores{
			progress: progressStore.NewSQLiteStore(timed),
			proUsers: proUserStore.NewSQLiteStore(timed),
			audit:    auditStore.NewSQLiteStore(timed),
			close:    func() { db.Close() },
		}, nil
	}
	return stores{
		progress: progressStore.NewFileStore(cfg.DataDir),
		proUsers: proUserStore.NewFileStore(filepath.Join(cfg.DataDir, "pro_users.json")),
		audit:    auditStore.NewFileStore(filepath.Join(cfg.DataDir, "audit.jsonl")),
		close:    func() {},
	}, nil
}
