package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "intents.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{"assets":{"catalog_path":"assets.yaml"}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Fatalf("unexpected address %s", cfg.Server.Address)
	}
	if cfg.Relay.URL != "https://solver-relay-v2.chaindefuser.com/rpc" || cfg.Relay.MinDeadlineMs != 120000 {
		t.Fatalf("unexpected relay defaults: %+v", cfg.Relay)
	}
	if cfg.Relay.Timeout().Seconds() != 30 {
		t.Fatalf("unexpected relay timeout %v", cfg.Relay.Timeout())
	}
	if cfg.Intents.Contract != "intents.near" || cfg.Intents.StorageDeposit != "0.00125" {
		t.Fatalf("unexpected intents defaults: %+v", cfg.Intents)
	}
	if cfg.Assets.CatalogPath != filepath.Join(filepath.Dir(path), "assets.yaml") {
		t.Fatalf("catalog path should resolve relative to config dir, got %s", cfg.Assets.CatalogPath)
	}
	if !cfg.Metrics.Enabled {
		t.Fatalf("metrics should default to enabled")
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `{
		"server": {"address": "127.0.0.1:9000"},
		"relay": {"url": "http://relay.local/rpc", "min_deadline_ms": 60000, "timeout_seconds": 5},
		"logging": {"level": "debug", "format": "text"},
		"metrics": {"enabled": false}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != "127.0.0.1:9000" || cfg.Relay.URL != "http://relay.local/rpc" {
		t.Fatalf("overrides ignored: %+v", cfg)
	}
	if cfg.Relay.MinDeadlineMs != 60000 || cfg.Relay.TimeoutSeconds != 5 {
		t.Fatalf("relay overrides ignored: %+v", cfg.Relay)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Fatalf("logging overrides ignored: %+v", cfg.Logging)
	}
	if cfg.Metrics.Enabled {
		t.Fatalf("metrics should be disabled")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := Load(writeConfig(t, "{not json")); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := Load(writeConfig(t, `{"relay":{"min_deadline_ms":-1}}`)); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := Load(writeConfig(t, `{"alerting":{"webhooks":[{"kind":"pager","url":"http://x"}]}}`)); err == nil {
		t.Fatalf("expected unsupported webhook kind to fail")
	}
	if _, err := Load(writeConfig(t, `{"alerting":{"webhooks":[{"kind":"slack"}]}}`)); err == nil {
		t.Fatalf("expected webhook without url to fail")
	}
	dup := `{"alerting":{"webhooks":[{"kind":"slack","url":"http://a"},{"kind":"slack","url":"http://b"}]}}`
	if _, err := Load(writeConfig(t, dup)); err == nil {
		t.Fatalf("expected duplicate webhook kind to fail")
	}
	mixed := `{"alerting":{"webhooks":[{"kind":"slack","url":"http://a"},{"kind":"dingtalk","url":"http://b"}]}}`
	if _, err := Load(writeConfig(t, mixed)); err != nil {
		t.Fatalf("one webhook per kind should load: %v", err)
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Fatalf("unexpected default address %s", cfg.Server.Address)
	}
	if _, err := LoadOrDefault(writeConfig(t, "[")); err == nil {
		t.Fatalf("parse errors must not be masked")
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	if got := ResolvePath(""); got != DefaultPath {
		t.Fatalf("unexpected default path %s", got)
	}
	t.Setenv(EnvConfigPath, "/etc/intents.json")
	if got := ResolvePath(""); got != "/etc/intents.json" {
		t.Fatalf("env path ignored, got %s", got)
	}
	if got := ResolvePath("local.json"); got != "local.json" {
		t.Fatalf("explicit path should win, got %s", got)
	}
}
