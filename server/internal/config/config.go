package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/reliabilitypro/reliabilitypro/pkg/asset"
	"github.com/reliabilitypro/reliabilitypro/pkg/health"
	"github.com/reliabilitypro/reliabilitypro/pkg/logging"
)

// AlertsConfig holds alerting rules and delivery targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines one threshold-based alert condition.
type AlertRule struct {
	// Name is the human-readable alert identifier, used as the deduplication key.
	Name string `yaml:"name"`

	// Condition is a simple expression: "vib_max > 4.5", "load_pct >= 105",
	// "uptime_pct < 80", "condition == critical".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	// Defaults to 15 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http | amqp.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook
	// URL, or the amqp:// broker URL for type amqp.
	URLEnv string `yaml:"url_env"`

	// Exchange and RoutingKey address amqp deliveries. An empty exchange is
	// the default exchange, where the routing key names the queue.
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Default values for the server configuration.
const (
	DefaultHTTPPort          = 8080
	DefaultReportTTL         = 30 * time.Minute
	DefaultSessionTTL        = 2 * time.Hour
	DefaultBroadcastInterval = 5 * time.Second
	DefaultMetricsPath       = "/metrics"
	DefaultRoutingKey        = "reliabilitypro.alerts"
)

// Config holds the server configuration. The `agent:` key in the same file
// is ignored.
type Config struct {
	Server     ServerConfig   `yaml:"server"`
	Log        logging.Config `yaml:"log"`
	Assets     []asset.Spec   `yaml:"assets"`
	Thresholds health.Config  `yaml:"thresholds"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, receiver and WebSocket hub listen on.
	HTTPPort int `yaml:"http_port"`

	// Auth configures how the server authenticates agents and API clients.
	Auth AuthConfig `yaml:"auth"`

	// Report controls retention of the latest report per asset.
	Report RetentionConfig `yaml:"report"`

	// Session controls retention of interactive diagnosis sessions.
	Session RetentionConfig `yaml:"session"`

	// BroadcastInterval is how often the board snapshot is pushed to
	// WebSocket clients.
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`

	Metrics MetricsConfig `yaml:"metrics"`

	// Alerts holds rule definitions and delivery targets.
	Alerts AlertsConfig `yaml:"alerts"`
}

// AuthConfig controls client authentication on the server side.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header to read the key from. Defaults to "X-API-Key".
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or "X-API-Key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "X-API-Key"
}

// RetentionConfig bounds how long an idle entry is kept in memory.
type RetentionConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Catalog builds the asset catalog, using the built-in plant list when the
// file defines none.
func (c *Config) Catalog() (*asset.Catalog, error) {
	specs := c.Assets
	if len(specs) == 0 {
		specs = asset.DefaultSpecs()
	}
	return asset.NewCatalog(specs)
}

// Load reads and parses the config file at path, returning the server configuration.
// Missing fields are filled with sensible defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	cfg := &Config{
		Server: ServerConfig{
			HTTPPort:          DefaultHTTPPort,
			Report:            RetentionConfig{TTL: DefaultReportTTL},
			Session:           RetentionConfig{TTL: DefaultSessionTTL},
			BroadcastInterval: DefaultBroadcastInterval,
			Metrics:           MetricsConfig{Enabled: true, Path: DefaultMetricsPath},
		},
		Thresholds: health.DefaultConfig(),
	}
	cfg.Log.Defaults()
	return cfg
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	s := &cfg.Server
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", s.HTTPPort)
	}
	switch s.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", s.Auth.Mode)
	}
	if s.Report.TTL < 0 {
		return fmt.Errorf("server.report.ttl must not be negative")
	}
	if s.Session.TTL < 0 {
		return fmt.Errorf("server.session.ttl must not be negative")
	}
	if s.BroadcastInterval <= 0 {
		return fmt.Errorf("server.broadcast_interval must be positive")
	}
	if s.Metrics.Path == "" {
		s.Metrics.Path = DefaultMetricsPath
	}
	for i, r := range s.Alerts.Rules {
		if r.Name == "" {
			return fmt.Errorf("server.alerts.rules[%d]: name is required", i)
		}
		if r.Condition == "" {
			return fmt.Errorf("server.alerts.rules[%d] %q: condition is required", i, r.Name)
		}
		switch r.Severity {
		case "critical", "warning", "info", "":
		default:
			return fmt.Errorf("server.alerts.rules[%d] %q: unknown severity %q", i, r.Name, r.Severity)
		}
	}
	for i := range s.Alerts.Webhooks {
		wh := &s.Alerts.Webhooks[i]
		switch wh.Type {
		case "teams", "slack", "http":
		case "amqp":
			if wh.RoutingKey == "" {
				wh.RoutingKey = DefaultRoutingKey
			}
		default:
			return fmt.Errorf("server.alerts.webhooks[%d]: unknown type %q", i, wh.Type)
		}
	}
	if err := cfg.Log.Validate(); err != nil {
		return err
	}
	if _, err := cfg.Catalog(); err != nil {
		return err
	}
	return nil
}
