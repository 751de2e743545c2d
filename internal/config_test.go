package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/onepage/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenMode(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}

	cfg.Token = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("token mode with empty token: %v", err)
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
	b := cfg.Canvas.Board()
	if b.Limits.MinWidth != 15 || b.Limits.MinHeight != 10 || b.SessionTTL != 2*time.Hour {
		t.Errorf("board config = %+v", b)
	}
	if o := cfg.Export.Options(); o.MobileBreakpoint != 1024 || o.PageSize != "A3" || o.JPEGQuality != 95 {
		t.Errorf("export options = %+v", o)
	}
	if a := cfg.AnalyzerClientConfig(); a.MaxBytes != 10<<20 || len(a.Extensions) != 7 {
		t.Errorf("analyzer config = %+v", a)
	}
}

func TestConfigValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"port", func(c *Config) { c.App.HTTP.Port = 70000 }},
		{"library", func(c *Config) { c.Library.Path = "" }},
		{"min width", func(c *Config) { c.Canvas.MinWidth = 150 }},
		{"session ttl", func(c *Config) { c.Canvas.SessionTTL = time.Second }},
		{"jpeg quality", func(c *Config) { c.Export.JPEGQuality = 101 }},
		{"page size", func(c *Config) { c.Export.PageSize = "B9" }},
		{"extensions", func(c *Config) { c.Upload.Extensions = []string{".pdf"} }},
		{"analyzer url", func(c *Config) { c.Analyzer.URL = "not a url" }},
		{"auth", func(c *Config) { c.Auth.Mode = "token" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("ONEPAGE_TEST_TOKEN", "s3cret")
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `app:
  log_level: debug
  http:
    port: 9090
auth:
  mode: token
  token: ${ONEPAGE_TEST_TOKEN}
canvas:
  settle_delay: 250ms
analyzer:
  url: http://localhost:8000/api/analyze
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.HTTP.Port != 9090 || cfg.Auth.Token != "s3cret" {
		t.Errorf("loaded = %+v", cfg)
	}
	if cfg.Canvas.SettleDelay != 250*time.Millisecond || cfg.Canvas.HistoryLimit != 50 {
		t.Errorf("canvas = %+v", cfg.Canvas)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("vault:\n  path: ./notes\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := pkgconfig.Load(path, NewDefaultConfig()); err == nil {
		t.Error("expected error for unknown key")
	}
}
