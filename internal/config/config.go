// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Cookie holds session cookie attributes.
type Cookie struct {
	Name   string `validate:"required"`
	Secure bool
	Domain string
}

// Firebase holds Admin SDK settings and the public web config served at /config.js.
type Firebase struct {
	CredentialsFile      string
	ProjectID            string
	WebAPIKey            string
	WebAuthDomain        string
	WebAppID             string
	WebMessagingSenderID string
}

// Stripe holds payment settings. PricePence is in minor units of Currency.
type Stripe struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
	PricePence     int64  `validate:"gt=0"`
	Currency       string `validate:"len=3"`
	ProductName    string `validate:"required"`
}

// Config is the full application configuration.
type Config struct {
	Env             string
	Addr            string `validate:"required"`
	LogLevel        slog.Level
	BaseURL         string `validate:"omitempty,url"`
	ContentDir      string `validate:"required"`
	DataDir         string `validate:"required"`
	ContentIndexTTL time.Duration
	StorageBackend  string `validate:"oneof=file sqlite"`
	Cookie          Cookie
	CSRFKey         []byte `validate:"len=32"`
	Firebase        Firebase
	Stripe          Stripe
	ResendAPIKey    string
	EmailFrom       string
	AdminKeyHash    string
	// ProviderTimeout bounds each outbound provider attempt.
	ProviderTimeout    time.Duration `validate:"gt=0"`
	ProviderMaxRetries int           `validate:"gte=0,lte=10"`
	RateLimitRPS       float64       `validate:"gte=0"`
	TrustProxy         bool
	SlowRequest        time.Duration
	SlowQuery          time.Duration
}

// IsProduction reports whether ENV=production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// SessionTTL is the lifetime of the session cookie.
const SessionTTL = 5 * 24 * time.Hour

// Load reads .env (when present) and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds and validates a Config from the process environment.
func FromEnv() (Config, error) {
	var errs []error
	p := parser{errs: &errs}

	cfg := Config{
		Env:             getEnv("ENV", "development"),
		Addr:            getEnv("ADDR", ":8080"),
		LogLevel:        p.level("LOG_LEVEL", slog.LevelInfo),
		BaseURL:         strings.TrimRight(getEnv("BASE_URL", ""), "/"),
		ContentDir:      resolveContentDir(getEnv("CONTENT_DIR", "")),
		DataDir:         getEnv("DATA_DIR", "data"),
		ContentIndexTTL: p.duration("CONTENT_INDEX_TTL", 5*time.Minute),
		StorageBackend:  strings.ToLower(getEnv("STORAGE_BACKEND", BackendFile)),
		Cookie: Cookie{
			Name:   getEnv("SESSION_COOKIE_NAME", "vs_session"),
			Secure: p.boolean("SESSION_COOKIE_SECURE", false),
			Domain: getEnv("SESSION_COOKIE_DOMAIN", ""),
		},
		Firebase: Firebase{
			CredentialsFile:      getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			ProjectID:            getEnv("FIREBASE_PROJECT_ID", ""),
			WebAPIKey:            getEnv("FIREBASE_WEB_API_KEY", ""),
			WebAuthDomain:        getEnv("FIREBASE_WEB_AUTH_DOMAIN", ""),
			WebAppID:             getEnv("FIREBASE_WEB_APP_ID", ""),
			WebMessagingSenderID: getEnv("FIREBASE_WEB_MESSAGING_SENDER_ID", ""),
		},
		Stripe: Stripe{
			SecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			PublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			WebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),
			PricePence:     p.integer("PRO_PRICE_PENCE", 999),
			Currency:       strings.ToLower(getEnv("PRO_CURRENCY", "gbp")),
			ProductName:    getEnv("PRO_PRODUCT_NAME", "INFRA+- Pro Access"),
		},
		ResendAPIKey:       getEnv("RESEND_API_KEY", ""),
		EmailFrom:          getEnv("EMAIL_FROM", "INFRA+- <noreply@localhost>"),
		AdminKeyHash:       getEnv("ADMIN_KEY_HASH", ""),
		ProviderTimeout:    p.duration("PROVIDER_TIMEOUT", 10*time.Second),
		ProviderMaxRetries: int(p.integer("PROVIDER_MAX_RETRIES", 2)),
		RateLimitRPS:       p.number("RATE_LIMIT_RPS", 10),
		TrustProxy:         p.boolean("TRUST_PROXY", false),
		SlowRequest:        time.Duration(p.integer("SLOW_REQUEST_MS", 200)) * time.Millisecond,
		SlowQuery:          time.Duration(p.integer("SLOW_QUERY_MS", 50)) * time.Millisecond,
	}

	key, err := csrfKey(getEnv("CSRF_KEY", ""), cfg.IsProduction())
	if err != nil {
		errs = append(errs, err)
	}
	cfg.CSRFKey = key

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.IsProduction() && cfg.BaseURL == "" {
		return Config{}, errors.New("BASE_URL is required in production")
	}
	return cfg, nil
}

// csrfKey accepts 64 hex characters as a raw key; any other value is hashed
// down to 32 bytes. Outside production an empty value yields a random key.
func csrfKey(v string, production bool) ([]byte, error) {
	if v == "" {
		if production {
			return nil, errors.New("CSRF_KEY is required in production")
		}
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
		return key, nil
	}
	if len(v) == 64 {
		if key, err := hex.DecodeString(v); err == nil {
			return key, nil
		}
	}
	sum := sha256.Sum256([]byte(v))
	return sum[:], nil
}

// resolveContentDir prefers an explicit override that exists, then a
// content directory next to the executable, then ./content.
func resolveContentDir(override string) string {
	if override != "" && isDir(override) {
		return override
	}
	if exe, err := os.Executable(); err == nil {
		if dir := filepath.Join(filepath.Dir(exe), "content"); isDir(dir) {
			return dir
		}
	}
	return "content"
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

// parser collects conversion errors so every bad key is reported at once.
type parser struct {
	errs *[]error
}

func (p parser) fail(key, value string, err error) {
	*p.errs = append(*p.errs, fmt.Errorf("%s=%q: %w", key, value, err))
}

func (p parser) duration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// Bare integers are seconds.
		if n, nerr := strconv.Atoi(v); nerr == nil {
			return time.Duration(n) * time.Second
		}
		p.fail(key, v, err)
		return fallback
	}
	return d
}

func (p parser) integer(key string, fallback int64) int64 {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.fail(key, v, err)
		return fallback
	}
	return n
}

func (p parser) number(key string, fallback float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return fallback
	}
	return f
}

func (p parser) boolean(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return fallback
	}
	return b
}

func (p parser) level(key string, fallback slog.Level) slog.Level {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		p.fail(key, v, err)
		return fallback
	}
	return l
}
