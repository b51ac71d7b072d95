package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Database.MaxConnections != 25 {
		t.Errorf("max connections = %d", cfg.Database.MaxConnections)
	}
	if cfg.Services.ScriptTimeoutDuration() != 60*time.Second {
		t.Errorf("script timeout = %s", cfg.Services.ScriptTimeoutDuration())
	}
	if cfg.Services.VideoTimeoutDuration() != 300*time.Second {
		t.Errorf("video timeout = %s", cfg.Services.VideoTimeoutDuration())
	}
	if cfg.Services.HealthTimeoutDuration() != 5*time.Second {
		t.Errorf("health timeout = %s", cfg.Services.HealthTimeoutDuration())
	}
	if len(cfg.Video.Platforms) != 3 || cfg.Video.Style != "entertaining" {
		t.Errorf("video defaults = %+v", cfg.Video)
	}
	if cfg.S3.OutputBucket != "short-factory-output" {
		t.Errorf("output bucket = %q", cfg.S3.OutputBucket)
	}
}

func TestLoadTOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[server]
port = 7070

[services]
ailogic_url = "http://ai:9000"
script_timeout = "90s"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Services.AILogicURL != "http://ai:9000" {
		t.Errorf("ai-logic url = %q", cfg.Services.AILogicURL)
	}
	if cfg.Services.ScriptTimeoutDuration() != 90*time.Second {
		t.Errorf("script timeout = %s", cfg.Services.ScriptTimeoutDuration())
	}
	// Untouched sections keep their defaults.
	if cfg.Services.VideoEngineURL != "http://localhost:8002" {
		t.Errorf("video-engine url = %q", cfg.Services.VideoEngineURL)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[server]\nport = 7070\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SF_SERVER_PORT", "9090")
	t.Setenv("SF_DATABASE_URL", "postgres://localhost/shortfactory")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want env to win", cfg.Server.Port)
	}
	if cfg.Database.URL != "postgres://localhost/shortfactory" {
		t.Errorf("database url = %q", cfg.Database.URL)
	}
}

func TestParseDurationFallback(t *testing.T) {
	svc := ServicesConfig{ScriptTimeout: "not-a-duration", VideoTimeout: "-5s"}
	if svc.ScriptTimeoutDuration() != 60*time.Second {
		t.Errorf("invalid duration did not fall back")
	}
	if svc.VideoTimeoutDuration() != 300*time.Second {
		t.Errorf("negative duration did not fall back")
	}
}
