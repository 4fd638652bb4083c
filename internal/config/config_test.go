package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("REQUEST_TIMEOUT", "")
	t.Setenv("SESSION_PATH", filepath.Join(t.TempDir(), "session.json"))
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "history.db"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.APIBaseURL != defaultAPIBaseURL {
		t.Errorf("APIBaseURL = %s, want %s", cfg.APIBaseURL, defaultAPIBaseURL)
	}
	if cfg.RequestTimeout != defaultRequestTimeout {
		t.Errorf("RequestTimeout = %v, want %v", cfg.RequestTimeout, defaultRequestTimeout)
	}
	if cfg.DownloadDir == "" {
		t.Error("DownloadDir should have a default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("API_BASE_URL", "http://backend.test:9000")
	t.Setenv("SESSION_PATH", filepath.Join(dir, "s.json"))
	t.Setenv("DATABASE_PATH", filepath.Join(dir, "h.db"))
	t.Setenv("DOWNLOAD_DIR", dir)
	t.Setenv("REQUEST_TIMEOUT", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.APIBaseURL != "http://backend.test:9000" {
		t.Errorf("APIBaseURL = %s", cfg.APIBaseURL)
	}
	if cfg.SessionPath != filepath.Join(dir, "s.json") {
		t.Errorf("SessionPath = %s", cfg.SessionPath)
	}
	if cfg.DownloadDir != dir {
		t.Errorf("DownloadDir = %s", cfg.DownloadDir)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.RequestTimeout)
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "45s")
	if got := getEnvDuration("TEST_DURATION", time.Minute); got != 45*time.Second {
		t.Errorf("duration = %v, want 45s", got)
	}

	// Bare numbers are treated as seconds
	t.Setenv("TEST_DURATION", "90")
	if got := getEnvDuration("TEST_DURATION", time.Minute); got != 90*time.Second {
		t.Errorf("duration = %v, want 90s", got)
	}

	t.Setenv("TEST_DURATION", "not-a-duration")
	if got := getEnvDuration("TEST_DURATION", time.Minute); got != time.Minute {
		t.Errorf("duration = %v, want the default", got)
	}

	t.Setenv("TEST_DURATION", "")
	if got := getEnvDuration("TEST_DURATION", time.Minute); got != time.Minute {
		t.Errorf("duration = %v, want the default", got)
	}
}
