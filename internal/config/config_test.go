package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SCHEDSYNC_CONFIG", "")
	t.Setenv("SCHEDSYNC_STORE", "sqlite")
	t.Setenv("SCHEDSYNC_SQLITE_PATH", "test.db")
	t.Setenv("SCHEDSYNC_OWNER_ID", "owner-1")
	t.Setenv("SCHEDSYNC_BIND_ADDRESS", "127.0.0.1:9999")
	t.Setenv("SCHEDSYNC_REQUIRE_TOKEN", "true")
	t.Setenv("SCHEDSYNC_BEARER_TOKEN", "secret")
	t.Setenv("SCHEDSYNC_REQUEST_TIMEOUT", "5s")
	t.Setenv("SCHEDSYNC_LOG_LEVEL", "debug")
	t.Setenv("SCHEDSYNC_WEEK_START", "monday")
}

func TestLoadSuccess(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StoreBackend != "sqlite" || cfg.SQLitePath != "test.db" {
		t.Fatalf("unexpected store config: %+v", cfg)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("timeout = %v", cfg.RequestTimeout)
	}
	if cfg.WeekStart != "monday" {
		t.Fatalf("week start = %s", cfg.WeekStart)
	}
}

func TestLoadYAMLFileWithEnvOverride(t *testing.T) {
	setBaseEnv(t)

	path := filepath.Join(t.TempDir(), "schedsync.yaml")
	content := "owner_id: from-file\nlog_level: warn\nrequest_timeout: 30s\nweek_start: sunday\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SCHEDSYNC_CONFIG", path)
	t.Setenv("SCHEDSYNC_LOG_LEVEL", "")
	t.Setenv("SCHEDSYNC_REQUEST_TIMEOUT", "")
	t.Setenv("SCHEDSYNC_WEEK_START", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "warn" || cfg.RequestTimeout != 30*time.Second || cfg.WeekStart != "sunday" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	// Env still wins over the file.
	if cfg.OwnerID != "owner-1" {
		t.Fatalf("owner = %s, want env override", cfg.OwnerID)
	}
}

func TestLoadBadDurationInFile(t *testing.T) {
	setBaseEnv(t)
	path := filepath.Join(t.TempDir(), "schedsync.yaml")
	if err := os.WriteFile(path, []byte("request_timeout: soon\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SCHEDSYNC_CONFIG", path)
	if _, err := Load(); err == nil {
		t.Fatal("expected duration parse error")
	}
}

func TestValidateFailures(t *testing.T) {
	cases := map[string]func(*testing.T){
		"unknown backend": func(t *testing.T) { t.Setenv("SCHEDSYNC_STORE", "mongo") },
		"missing owner":   func(t *testing.T) { t.Setenv("SCHEDSYNC_OWNER_ID", "") },
		"missing token":   func(t *testing.T) { t.Setenv("SCHEDSYNC_BEARER_TOKEN", "") },
		"bad log level":   func(t *testing.T) { t.Setenv("SCHEDSYNC_LOG_LEVEL", "loud") },
		"bad week start":  func(t *testing.T) { t.Setenv("SCHEDSYNC_WEEK_START", "friday") },
	}
	for name, tweak := range cases {
		t.Run(name, func(t *testing.T) {
			setBaseEnv(t)
			tweak(t)
			if _, err := Load(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestRESTBackendRequiresTarget(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SCHEDSYNC_STORE", "rest")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without base url or session")
	}
	t.Setenv("SCHEDSYNC_REST_BASE_URL", "https://example.test")
	if _, err := Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}
