package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/reliabilitypro/reliabilitypro/pkg/asset"
	"github.com/reliabilitypro/reliabilitypro/pkg/health"
	"github.com/reliabilitypro/reliabilitypro/pkg/hydraulic"
	"github.com/reliabilitypro/reliabilitypro/pkg/logging"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultInspectInterval = time.Minute
	DefaultShipInterval    = 15 * time.Second
	DefaultBufferSize      = 1000
	DefaultTimeout         = 10 * time.Second
)

// Source types.
const (
	TypeFile       = "file"
	TypePrometheus = "prometheus"
	TypeOPCUA      = "opcua"
)

// Config is the top-level agent configuration.
type Config struct {
	Agent      AgentConfig    `yaml:"agent"`
	Log        logging.Config `yaml:"log"`
	Assets     []asset.Spec   `yaml:"assets"`
	Thresholds health.Config  `yaml:"thresholds"`
}

// AgentConfig holds all agent-side settings.
type AgentConfig struct {
	// ServerEndpoint is the base URL of the diagnostic server.
	ServerEndpoint string `yaml:"server_endpoint"`

	// InspectInterval controls how often each source is collected and analyzed.
	InspectInterval time.Duration `yaml:"inspect_interval"`

	// ShipInterval controls how often buffered reports are sent to the server.
	ShipInterval time.Duration `yaml:"ship_interval"`

	// BufferSize is the maximum number of reports held in memory when
	// the server is unreachable.
	BufferSize int `yaml:"buffer_size"`

	// Sources is the list of measurement sources, one per asset.
	Sources []Source `yaml:"sources"`

	// ServerAuth configures how the agent authenticates to the server.
	ServerAuth AuthConfig `yaml:"server_auth"`
}

// Source describes where one asset's measurements come from.
type Source struct {
	// ID is a unique, human-readable identifier for this source.
	ID string `yaml:"id"`

	// Asset is the catalog tag the measurements belong to.
	Asset string `yaml:"asset"`

	// Type is one of: file | prometheus | opcua.
	Type string `yaml:"type"`

	// Endpoint is the exposition URL (prometheus) or server address (opcua).
	Endpoint string `yaml:"endpoint"`

	// Path is the measurement sheet for type file.
	Path string `yaml:"path"`

	// Points maps canonical point keys (driver_de_h, voltage_l1, flow, ...)
	// to a metric selector or OPC UA node id.
	Points map[string]string `yaml:"points"`

	// Hydraulic is the design point used when suction and discharge
	// pressures are collected.
	Hydraulic *hydraulic.Design `yaml:"hydraulic"`

	// Timeout bounds one collection.
	Timeout time.Duration `yaml:"timeout"`

	Auth  AuthConfig  `yaml:"auth"`
	OPCUA OPCUAConfig `yaml:"opcua"`
}

// OPCUAConfig holds OPC UA session options.
type OPCUAConfig struct {
	// SecurityPolicy is None | Basic256Sha256 | ...
	SecurityPolicy string `yaml:"security_policy"`
	// SecurityMode is None | Sign | SignAndEncrypt.
	SecurityMode string `yaml:"security_mode"`
}

// AuthConfig specifies the authentication mode for a source or the server.
type AuthConfig struct {
	// Mode is one of: apikey | bearer | basic | none.
	Mode string `yaml:"mode"`

	// Header is the HTTP header name carrying the API key.
	Header string `yaml:"header"`
	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`

	// TokenEnv is the name of the environment variable that holds the token.
	TokenEnv string `yaml:"token_env"`

	Username string `yaml:"username"`
	// PasswordEnv is the name of the environment variable that holds the password.
	PasswordEnv string `yaml:"password_env"`
}

// Key returns the API key value resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// Token returns the bearer token value resolved from the environment.
func (a AuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// Password returns the basic-auth password resolved from the environment.
func (a AuthConfig) Password() string {
	if a.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(a.PasswordEnv)
}

// EffectiveHeader returns the configured header name, or "X-API-Key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "X-API-Key"
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

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	cfg := &Config{
		Agent: AgentConfig{
			InspectInterval: DefaultInspectInterval,
			ShipInterval:    DefaultShipInterval,
			BufferSize:      DefaultBufferSize,
		},
		Thresholds: health.DefaultConfig(),
	}
	cfg.Log.Defaults()
	return cfg
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Agent.ServerEndpoint == "" {
		return fmt.Errorf("agent.server_endpoint is required")
	}
	if cfg.Agent.InspectInterval <= 0 {
		return fmt.Errorf("agent.inspect_interval must be positive")
	}
	if cfg.Agent.ShipInterval <= 0 {
		return fmt.Errorf("agent.ship_interval must be positive")
	}
	if cfg.Agent.BufferSize <= 0 {
		return fmt.Errorf("agent.buffer_size must be positive")
	}
	if err := cfg.Log.Validate(); err != nil {
		return err
	}
	switch cfg.Agent.ServerAuth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("agent.server_auth.mode %q unknown: want apikey|none", cfg.Agent.ServerAuth.Mode)
	}

	catalog, err := cfg.Catalog()
	if err != nil {
		return err
	}

	ids := make(map[string]bool)
	for i := range cfg.Agent.Sources {
		src := &cfg.Agent.Sources[i]
		if src.ID == "" {
			return fmt.Errorf("sources[%d]: id is required", i)
		}
		if ids[src.ID] {
			return fmt.Errorf("sources[%d]: duplicate id %q", i, src.ID)
		}
		ids[src.ID] = true
		if _, err := catalog.Get(src.Asset); err != nil {
			return fmt.Errorf("sources[%d] %q: %w", i, src.ID, err)
		}
		switch src.Type {
		case TypeFile:
			if src.Path == "" {
				return fmt.Errorf("sources[%d] %q: path is required", i, src.ID)
			}
		case TypePrometheus, TypeOPCUA:
			if src.Endpoint == "" {
				return fmt.Errorf("sources[%d] %q: endpoint is required", i, src.ID)
			}
			if len(src.Points) == 0 {
				return fmt.Errorf("sources[%d] %q: points are required", i, src.ID)
			}
		default:
			return fmt.Errorf("sources[%d] %q: unknown type %q", i, src.ID, src.Type)
		}
		switch src.Auth.Mode {
		case "apikey", "bearer", "basic", "none", "":
		default:
			return fmt.Errorf("sources[%d] %q: unknown auth mode %q", i, src.ID, src.Auth.Mode)
		}
		if src.Timeout <= 0 {
			src.Timeout = DefaultTimeout
		}
	}
	return nil
}
