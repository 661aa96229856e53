package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Backend != BackendFile {
		t.Errorf("backend = %q, want file", cfg.Store.Backend)
	}
	if cfg.Store.Key != "zodo" {
		t.Errorf("key = %q, want zodo", cfg.Store.Key)
	}
	if want := filepath.Join(dir, ".zodo", "tree.json"); cfg.Store.Path != want {
		t.Errorf("path = %q, want %q", cfg.Store.Path, want)
	}
	if cfg.Store.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", cfg.Store.Timeout)
	}
	if cfg.HTTP.Addr != "0.0.0.0:8080" {
		t.Errorf("addr = %q", cfg.HTTP.Addr)
	}
	if cfg.RootName != "root" {
		t.Errorf("root name = %q", cfg.RootName)
	}
}

func TestLoad_FileInWorkingDir(t *testing.T) {
	dir := isolate(t)
	content := `store:
  backend: memory
  key: work
  timeout: 2s
log:
  level: debug
  format: json
tree:
  root_name: inbox
`
	if err := os.WriteFile(filepath.Join(dir, ".zodo.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Backend != BackendMemory || cfg.Store.Key != "work" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Store.Timeout != 2*time.Second {
		t.Errorf("timeout = %v", cfg.Store.Timeout)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.RootName != "inbox" {
		t.Errorf("root name = %q", cfg.RootName)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("ZODO_STORE_BACKEND", "postgres")
	t.Setenv("ZODO_POSTGRES_DSN", "postgres://localhost/zodo")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Backend != BackendPostgres {
		t.Errorf("backend = %q", cfg.Store.Backend)
	}
	if cfg.Postgres.DSN != "postgres://localhost/zodo" {
		t.Errorf("dsn = %q", cfg.Postgres.DSN)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	dir := isolate(t)
	if _, err := Load(filepath.Join(dir, "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"unknown backend", func(c *Config) { c.Store.Backend = "redis" }, "unknown store.backend"},
		{"postgres without dsn", func(c *Config) { c.Store.Backend = BackendPostgres }, "postgres.dsn"},
		{"empty key", func(c *Config) { c.Store.Key = "" }, "store.key"},
		{"zero timeout", func(c *Config) { c.Store.Timeout = 0 }, "store.timeout"},
		{"file without path", func(c *Config) { c.Store.Path = "" }, "store.path"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.errSub) {
				t.Errorf("err = %v, want containing %q", err, tc.errSub)
			}
		})
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Format: "logfmt"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "task", "a")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info logged at warn level")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "task=a") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]log.Level{
		"debug":   log.DebugLevel,
		"WARNING": log.WarnLevel,
		"error":   log.ErrorLevel,
		"bogus":   log.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitNeo4j_BadURI(t *testing.T) {
	_, err := InitNeo4j(context.Background(), Neo4jConfig{URI: "http://localhost:7474", Username: "neo4j"})
	if err == nil || !strings.Contains(err.Error(), "initializing neo4j") {
		t.Errorf("err = %v, want initializing neo4j error", err)
	}
}
