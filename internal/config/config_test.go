// Package config provides tests for the configuration loading and management.
package config

import (
	"os"
	"testing"
)

// setArchiveDir points LENS_ARCHIVE_DIR at a temp directory so Load passes
// the required-parameter validation.
func setArchiveDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("LENS_ARCHIVE_DIR", dir)
	return dir
}

// TestLoad tests the Load function with default values.
func TestLoad(t *testing.T) {
	// Clear environment variables that might affect the test
	for _, key := range []string{
		"LENS_ENV", "LENS_PORT", "LENS_FALLBACK_DIR", "LENS_REMOTE_API_URL",
		"LENS_NATS_URL", "LENS_S3_ENDPOINT", "LENS_S3_REGION", "LENS_S3_BUCKET",
		"LENS_S3_ACCESS_KEY", "LENS_S3_SECRET_KEY", "LENS_DISCOVERY_SAMPLE_SIZE",
		"LENS_DISCOVERY_HIT_THRESHOLD", "LENS_WATCH_ARCHIVE", "LENS_CORS_ALLOWED_ORIGINS",
	} {
		os.Unsetenv(key)
	}
	setArchiveDir(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Check default values
	if cfg.Env != "dev" {
		t.Errorf("Load() Env = %v, want %v", cfg.Env, "dev")
	}
	if cfg.Port != "8080" {
		t.Errorf("Load() Port = %v, want %v", cfg.Port, "8080")
	}
	if cfg.S3Region != "us-east-1" {
		t.Errorf("Load() S3Region = %v, want %v", cfg.S3Region, "us-east-1")
	}
	if cfg.SampleSize != 5 {
		t.Errorf("Load() SampleSize = %v, want %v", cfg.SampleSize, 5)
	}
	if cfg.HitThreshold != 0.4 {
		t.Errorf("Load() HitThreshold = %v, want %v", cfg.HitThreshold, 0.4)
	}
	if cfg.WatchArchive {
		t.Error("Load() WatchArchive should default to false")
	}
	if cfg.S3Configured() {
		t.Error("Load() S3Configured() should be false with no S3 settings")
	}
}

// TestLoadWithEnv tests the Load function with environment variables set.
func TestLoadWithEnv(t *testing.T) {
	dir := setArchiveDir(t)
	t.Setenv("LENS_ENV", "test")
	t.Setenv("LENS_PORT", "9090")
	t.Setenv("LENS_FALLBACK_DIR", dir)
	t.Setenv("LENS_REMOTE_API_URL", "http://localhost:8081/")
	t.Setenv("LENS_NATS_URL", "nats://localhost:4222")
	t.Setenv("LENS_S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("LENS_S3_REGION", "us-west-2")
	t.Setenv("LENS_S3_BUCKET", "test-bucket")
	t.Setenv("LENS_S3_ACCESS_KEY", "test-access-key")
	t.Setenv("LENS_S3_SECRET_KEY", "test-secret-key")
	t.Setenv("LENS_DISCOVERY_SAMPLE_SIZE", "8")
	t.Setenv("LENS_DISCOVERY_HIT_THRESHOLD", "0.6")
	t.Setenv("LENS_WATCH_ARCHIVE", "true")
	t.Setenv("LENS_CORS_ALLOWED_ORIGINS", "http://localhost:3000, http://127.0.0.1:3000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Env != "test" {
		t.Errorf("Load() Env = %v, want %v", cfg.Env, "test")
	}
	if cfg.Port != "9090" {
		t.Errorf("Load() Port = %v, want %v", cfg.Port, "9090")
	}
	if cfg.ArchiveDir != dir {
		t.Errorf("Load() ArchiveDir = %v, want %v", cfg.ArchiveDir, dir)
	}
	if cfg.FallbackDir != dir {
		t.Errorf("Load() FallbackDir = %v, want %v", cfg.FallbackDir, dir)
	}
	if cfg.RemoteAPIURL != "http://localhost:8081" {
		t.Errorf("Load() RemoteAPIURL = %v, want trailing slash trimmed", cfg.RemoteAPIURL)
	}
	if cfg.NATSURL != "nats://localhost:4222" {
		t.Errorf("Load() NATSURL = %v, want %v", cfg.NATSURL, "nats://localhost:4222")
	}
	if cfg.S3Endpoint != "http://localhost:9000" {
		t.Errorf("Load() S3Endpoint = %v, want %v", cfg.S3Endpoint, "http://localhost:9000")
	}
	if cfg.S3Region != "us-west-2" {
		t.Errorf("Load() S3Region = %v, want %v", cfg.S3Region, "us-west-2")
	}
	if !cfg.S3Configured() {
		t.Error("Load() S3Configured() should be true with bucket and keys set")
	}
	if cfg.SampleSize != 8 {
		t.Errorf("Load() SampleSize = %v, want %v", cfg.SampleSize, 8)
	}
	if cfg.HitThreshold != 0.6 {
		t.Errorf("Load() HitThreshold = %v, want %v", cfg.HitThreshold, 0.6)
	}
	if !cfg.WatchArchive {
		t.Error("Load() WatchArchive = false, want true")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://127.0.0.1:3000" {
		t.Errorf("Load() CORSAllowedOrigins = %v, want trimmed two-origin list", cfg.CORSAllowedOrigins)
	}
}

// TestLoadRequiresArchiveDir verifies that a missing or bogus archive
// directory fails validation.
func TestLoadRequiresArchiveDir(t *testing.T) {
	os.Unsetenv("LENS_ARCHIVE_DIR")
	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail without LENS_ARCHIVE_DIR")
	}

	t.Setenv("LENS_ARCHIVE_DIR", "/definitely/not/a/real/path")
	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail when LENS_ARCHIVE_DIR does not exist")
	}
}

// TestLoadIgnoresInvalidTuning verifies garbage discovery tuning keeps the defaults.
func TestLoadIgnoresInvalidTuning(t *testing.T) {
	setArchiveDir(t)
	t.Setenv("LENS_DISCOVERY_SAMPLE_SIZE", "zero")
	t.Setenv("LENS_DISCOVERY_HIT_THRESHOLD", "5.0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SampleSize != 5 || cfg.HitThreshold != 0.4 {
		t.Errorf("invalid tuning must keep defaults, got %d / %v", cfg.SampleSize, cfg.HitThreshold)
	}
}
