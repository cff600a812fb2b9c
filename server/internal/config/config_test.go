package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	// Agent-only file: the server section is absent.
	p := writeConfig(t, `agent:
  server_endpoint: "http://localhost:8080"
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != DefaultHTTPPort {
		t.Errorf("http_port: got %d, want %d", cfg.Server.HTTPPort, DefaultHTTPPort)
	}
	if cfg.Server.Report.TTL != DefaultReportTTL {
		t.Errorf("report.ttl: got %v, want %v", cfg.Server.Report.TTL, DefaultReportTTL)
	}
	if cfg.Server.Session.TTL != DefaultSessionTTL {
		t.Errorf("session.ttl: got %v, want %v", cfg.Server.Session.TTL, DefaultSessionTTL)
	}
	if !cfg.Server.Metrics.Enabled || cfg.Server.Metrics.Path != DefaultMetricsPath {
		t.Errorf("metrics: got %+v", cfg.Server.Metrics)
	}
	if cfg.Thresholds.Vibration.TempCritical != 95 {
		t.Errorf("thresholds not defaulted: %+v", cfg.Thresholds.Vibration)
	}
	cat, err := cfg.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if cat.Len() != 4 {
		t.Errorf("default catalog has %d assets, want 4", cat.Len())
	}
}

func TestLoad_FullServer(t *testing.T) {
	p := writeConfig(t, `server:
  http_port: 9091
  auth:
    mode: apikey
    key_env: MY_KEY
    header: X-Plant-Key
  report:
    ttl: 10m
  broadcast_interval: 2s
  metrics:
    enabled: false
  alerts:
    rules:
      - name: pump-critical
        condition: condition == critical
        severity: critical
    webhooks:
      - type: amqp
        url_env: AMQP_URL
assets:
  - tag: p-201
    name: Booster
    power_kw: 11
    rpm: 2900
    rated_voltage: 400
    rated_current: 21
thresholds:
  electrical:
    overload_factor: 1.10
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != 9091 {
		t.Errorf("http_port: got %d, want 9091", cfg.Server.HTTPPort)
	}
	if cfg.Server.Auth.EffectiveHeader() != "X-Plant-Key" {
		t.Errorf("header: got %q", cfg.Server.Auth.EffectiveHeader())
	}
	if cfg.Server.Report.TTL != 10*time.Minute {
		t.Errorf("report.ttl: got %v, want 10m", cfg.Server.Report.TTL)
	}
	if cfg.Server.BroadcastInterval != 2*time.Second {
		t.Errorf("broadcast_interval: got %v", cfg.Server.BroadcastInterval)
	}
	if cfg.Server.Metrics.Enabled {
		t.Error("metrics should be disabled")
	}
	if got := cfg.Server.Alerts.Webhooks[0].RoutingKey; got != DefaultRoutingKey {
		t.Errorf("amqp routing key: got %q, want %q", got, DefaultRoutingKey)
	}
	if cfg.Thresholds.Electrical.OverloadFactor != 1.10 {
		t.Errorf("overload_factor: got %v", cfg.Thresholds.Electrical.OverloadFactor)
	}
	if cfg.Thresholds.Electrical.VoltageUnbalanceCritical != 5 {
		t.Errorf("untouched threshold lost its default: %v", cfg.Thresholds.Electrical.VoltageUnbalanceCritical)
	}
	cat, err := cfg.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if _, err := cat.Get("P-201"); err != nil {
		t.Errorf("normalised tag P-201 not found: %v", err)
	}
}

func TestLoad_KeyEnvResolution(t *testing.T) {
	t.Setenv("TEST_SERVER_KEY", "supersecret")
	p := writeConfig(t, `server:
  auth:
    mode: apikey
    key_env: TEST_SERVER_KEY
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if k := cfg.Server.Auth.Key(); k != "supersecret" {
		t.Errorf("Key(): got %q, want supersecret", k)
	}
	if h := cfg.Server.Auth.EffectiveHeader(); h != "X-API-Key" {
		t.Errorf("EffectiveHeader: got %q, want X-API-Key", h)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown auth mode", "server:\n  auth:\n    mode: oauth2\n"},
		{"port out of range", "server:\n  http_port: 70000\n"},
		{"negative ttl", "server:\n  report:\n    ttl: -1m\n"},
		{"rule without condition", "server:\n  alerts:\n    rules:\n      - name: x\n"},
		{"unknown severity", "server:\n  alerts:\n    rules:\n      - name: x\n        condition: vib_max > 1\n        severity: loud\n"},
		{"unknown webhook", "server:\n  alerts:\n    webhooks:\n      - type: pagerduty\n"},
		{"invalid asset", "assets:\n  - tag: P-1\n    power_kw: -3\n"},
		{"bad log level", "log:\n  level: chatty\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.yaml)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}
