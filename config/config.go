// Package config loads WatchTracker configuration from the environment and
// validates it before anything else starts. Missing or placeholder credentials
// are reported as errors; a production deployment refuses to boot on them.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	// EnvProduction marks a deployment where validation errors are fatal.
	EnvProduction = "production"
	// EnvDevelopment is the default when WATCHTRACK_ENV is unset.
	EnvDevelopment = "development"

	defaultListenAddr   = ":8080"
	defaultDatabasePath = "data/watchtrack.db"
	defaultTMDBBaseURL  = "https://api.themoviedb.org/3"
	defaultImageBaseURL = "https://image.tmdb.org/t/p"
)

// placeholder values shipped in .env templates that must never reach a
// running deployment.
var placeholders = map[string]bool{
	"demo_key":               true,
	"your_tmdb_api_key_here": true,
	"your_jwt_secret_here":   true,
	"your_server_url_here":   true,
	"changeme":               true,
}

// ErrNotConfigured reports a missing or placeholder configuration value.
var ErrNotConfigured = errors.New("not configured")

// Server holds the backend process configuration.
type Server struct {
	ListenAddr   string
	DatabasePath string
	JWTSecret    string
	LogFile      string // empty means stderr only
	Environment  string
}

// TMDB holds the metadata API configuration shared by server and clients.
type TMDB struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
}

// Config is the full resolved configuration.
type Config struct {
	Server Server
	TMDB   TMDB
}

// Load resolves configuration from WATCHTRACK_* and TMDB_API_KEY environment
// variables, applying defaults for everything non-secret.
func Load() Config {
	cfg := Config{
		Server: Server{
			ListenAddr:   envOr("WATCHTRACK_LISTEN_ADDR", defaultListenAddr),
			DatabasePath: envOr("WATCHTRACK_DB_PATH", defaultDatabasePath),
			JWTSecret:    os.Getenv("WATCHTRACK_JWT_SECRET"),
			LogFile:      os.Getenv("WATCHTRACK_LOG_FILE"),
			Environment:  envOr("WATCHTRACK_ENV", EnvDevelopment),
		},
		TMDB: TMDB{
			APIKey:       os.Getenv("TMDB_API_KEY"),
			BaseURL:      envOr("TMDB_BASE_URL", defaultTMDBBaseURL),
			ImageBaseURL: envOr("TMDB_IMAGE_BASE_URL", defaultImageBaseURL),
		},
	}
	return cfg
}

// Validate returns one error per unusable value. In production the caller
// must treat a non-empty result as fatal.
func (c Config) Validate() []error {
	var errs []error
	if !ValidCredential(c.TMDB.APIKey) {
		errs = append(errs, fmt.Errorf("TMDB_API_KEY is %w", ErrNotConfigured))
	}
	if c.Server.JWTSecret == "" || placeholders[c.Server.JWTSecret] {
		errs = append(errs, fmt.Errorf("WATCHTRACK_JWT_SECRET is %w", ErrNotConfigured))
	}
	return errs
}

// IsProduction reports whether validation errors must abort startup.
func (c Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// ValidCredential checks an API credential by shape: non-empty, not a known
// placeholder literal, and long enough to plausibly be real.
func ValidCredential(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" || placeholders[key] {
		return false
	}
	return len(key) > 10
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
