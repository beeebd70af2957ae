package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"kanban-cli/internal/backend/appsscript"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"API_BASE", "EMAIL_DOMAIN", "POLL_INTERVAL", "HTTP_TIMEOUT", "LOG_LEVEL", "LOG_FILE", "WEB_ADDR", "CONFIG_DIR"} {
		t.Setenv("KANBAN_"+k, "")
		os.Unsetenv("KANBAN_" + k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBase != appsscript.DefaultBaseURL || cfg.EmailDomain != "cloverth.net" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.PollInterval != 60*time.Second || cfg.HTTPTimeout != 0 {
		t.Fatalf("unexpected durations: %+v", cfg)
	}
	if cfg.Dir != dir || cfg.LogPath() != filepath.Join(dir, DefaultLogName) {
		t.Fatalf("dir = %q, log = %q", cfg.Dir, cfg.LogPath())
	}
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	yml := "email_domain: Example.com\npoll_interval: 15s\nweb_addr: 0.0.0.0:9000\n"
	if err := os.WriteFile(Path(dir), []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KANBAN_POLL_INTERVAL", "5s")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.EmailDomain != "example.com" {
		t.Fatalf("EmailDomain = %q (file value should survive unset env)", cfg.EmailDomain)
	}
	if cfg.WebAddr != "0.0.0.0:9000" {
		t.Fatalf("WebAddr = %q", cfg.WebAddr)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Fatalf("PollInterval = %s, want env override", cfg.PollInterval)
	}
}

func TestLoad_BadFileDuration(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(Path(dir), []byte("poll_interval: soon\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected error for bad duration")
	}
}

func TestLoad_RejectsNonPositivePoll(t *testing.T) {
	clearEnv(t)
	t.Setenv("KANBAN_POLL_INTERVAL", "0s")
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "WARN", want: slog.LevelWarn},
		{in: "nonsense", want: slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.in}
		if got := cfg.SlogLevel(); got != tt.want {
			t.Fatalf("SlogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWriteDefault(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path, err := WriteDefault(dir, false)
	if err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}
	if _, err := WriteDefault(dir, false); !errors.Is(err, fs.ErrExist) {
		t.Fatalf("second WriteDefault err = %v, want ErrExist", err)
	}
	if _, err := WriteDefault(dir, true); err != nil {
		t.Fatalf("forced WriteDefault: %v", err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load after WriteDefault (%s): %v", path, err)
	}
	if cfg.PollInterval != 60*time.Second || cfg.EmailDomain != "cloverth.net" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}
