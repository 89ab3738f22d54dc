// Package config provides configuration loading and management for the explorer service.
// It handles environment variable parsing and provides default values for all settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// init loads environment variables from .env files during package initialization.
// In development, it loads .env and .env.local files if they exist.
// In production, it relies solely on system environment variables.
// The loading order ensures that system environment variables take precedence over .env files.
func init() {
	// godotenv.Load() does not override already-set environment variables,
	// preserving OS env > .env precedence

	// Load .env file if it exists (for shared development config)
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
		}
	}

	// Load .env.local if it exists (for local overrides, gitignored)
	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Load(".env.local"); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env.local file: %v\n", err)
		}
	}
}

// Config captures environment-driven settings for the explorer service.
type Config struct {
	Env          string // Deployment environment (dev, prod)
	Port         string // HTTP server port
	ArchiveDir   string // User-selected archive directory (required)
	FallbackDir  string // Bundled fallback data directory
	RemoteAPIURL string // Remote archive API base URL
	NATSURL      string // NATS server URL for session events
	S3Endpoint   string // S3-compatible storage endpoint
	S3Region     string // S3 region
	S3Bucket     string // S3 bucket name
	S3AccessKey  string // S3 access key
	S3SecretKey  string // S3 secret key

	// Discovery tuning
	SampleSize   int     // Entries probed per discovery sample pass
	HitThreshold float64 // Minimum probe hit rate before extrapolating

	// Behavior flags
	WatchArchive bool // Watch the archive dir and mark the session stale on changes

	// CORS configuration
	CORSAllowedOrigins []string // Allowed origins for the local UI (empty means deny all)
}

// Default configuration values used when environment variables are not set
const (
	defaultPort         = "8080"
	defaultS3Region     = "us-east-1"
	defaultEnv          = "dev"
	defaultSampleSize   = 5
	defaultHitThreshold = 0.4
)

// Load reads environment variables and produces a Config suitable for wiring the service.
// It handles both required and optional configuration parameters, providing defaults where appropriate.
// Returns an error if required parameters are missing or invalid.
func Load() (Config, error) {
	cfg := Config{}

	if env, exists := os.LookupEnv("LENS_ENV"); exists {
		cfg.Env = env
	} else {
		cfg.Env = defaultEnv
	}

	if port, exists := os.LookupEnv("LENS_PORT"); exists {
		cfg.Port = port
	} else {
		cfg.Port = defaultPort
	}

	if dir, exists := os.LookupEnv("LENS_ARCHIVE_DIR"); exists {
		cfg.ArchiveDir = dir
	}

	if dir, exists := os.LookupEnv("LENS_FALLBACK_DIR"); exists {
		cfg.FallbackDir = dir
	}

	if apiURL, exists := os.LookupEnv("LENS_REMOTE_API_URL"); exists {
		cfg.RemoteAPIURL = strings.TrimRight(apiURL, "/")
	}

	if natsURL, exists := os.LookupEnv("LENS_NATS_URL"); exists {
		cfg.NATSURL = natsURL
	}

	if s3Endpoint, exists := os.LookupEnv("LENS_S3_ENDPOINT"); exists {
		cfg.S3Endpoint = s3Endpoint
	}

	if s3Region, exists := os.LookupEnv("LENS_S3_REGION"); exists {
		cfg.S3Region = s3Region
	} else {
		cfg.S3Region = defaultS3Region
	}

	if s3Bucket, exists := os.LookupEnv("LENS_S3_BUCKET"); exists {
		cfg.S3Bucket = s3Bucket
	}

	if s3AccessKey, exists := os.LookupEnv("LENS_S3_ACCESS_KEY"); exists {
		cfg.S3AccessKey = s3AccessKey
	}

	if s3SecretKey, exists := os.LookupEnv("LENS_S3_SECRET_KEY"); exists {
		cfg.S3SecretKey = s3SecretKey
	}

	cfg.SampleSize = defaultSampleSize
	if raw, exists := os.LookupEnv("LENS_DISCOVERY_SAMPLE_SIZE"); exists {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.SampleSize = n
		}
	}

	cfg.HitThreshold = defaultHitThreshold
	if raw, exists := os.LookupEnv("LENS_DISCOVERY_HIT_THRESHOLD"); exists {
		if f, err := strconv.ParseFloat(raw, 64); err == nil && f > 0 && f <= 1 {
			cfg.HitThreshold = f
		}
	}

	if watch, exists := os.LookupEnv("LENS_WATCH_ARCHIVE"); exists {
		cfg.WatchArchive = parseBool(watch)
	}

	if corsOrigins, exists := os.LookupEnv("LENS_CORS_ALLOWED_ORIGINS"); exists {
		cfg.CORSAllowedOrigins = strings.Split(corsOrigins, ",")
		// Trim whitespace from each origin
		for i, origin := range cfg.CORSAllowedOrigins {
			cfg.CORSAllowedOrigins[i] = strings.TrimSpace(origin)
		}
	}

	// Validate required parameters
	if cfg.ArchiveDir == "" {
		return cfg, fmt.Errorf("LENS_ARCHIVE_DIR is required")
	}
	if info, err := os.Stat(cfg.ArchiveDir); err != nil || !info.IsDir() {
		return cfg, fmt.Errorf("LENS_ARCHIVE_DIR %q is not a readable directory", cfg.ArchiveDir)
	}

	return cfg, nil
}

// S3Configured reports whether every setting needed for the S3 source is present.
func (c Config) S3Configured() bool {
	return c.S3Bucket != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// parseBool converts a string to a boolean value, returning false if parsing fails
func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}
