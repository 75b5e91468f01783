package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/martinsuchenak/fortimcp/internal/fortigate"
)

// EnvConfigPath is consulted when no config path is given on the command
// line.
const EnvConfigPath = "FORTIMCP_CONFIG"

// Config is the root configuration structure, loaded from YAML once at
// process start. Device records are validated when the registry builds
// clients from them; Validate here only checks the server-level sections.
type Config struct {
	Server  ServerConfig                      `yaml:"server"`
	Devices map[string]fortigate.DeviceConfig `yaml:"devices"`
	Auth    AuthConfig                        `yaml:"auth"`
	Logging LoggingConfig                     `yaml:"logging"`
	Monitor MonitorConfig                     `yaml:"monitor"`
	Audit   AuditConfig                       `yaml:"audit"`
}

// ServerConfig contains the MCP HTTP endpoint settings.
type ServerConfig struct {
	Name       string `yaml:"name"`
	ListenAddr string `yaml:"listen_addr"`
}

// AuthConfig configures bearer authentication for the MCP endpoint. The
// token may be given in plain text or as a bcrypt hash ($2a$/$2b$/$2y$
// prefix); an empty token disables authentication.
type AuthConfig struct {
	BearerToken string `yaml:"bearer_token"`
}

// LoggingConfig mirrors the global log flags so a config file can set them
// without the command line.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MonitorConfig controls the scheduled connectivity sweep over registered
// devices.
type MonitorConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
}

// AuditConfig controls the persistent tool-call audit trail.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	DataDir string `yaml:"data_dir"`
}

// Load reads and parses the YAML configuration. When path is empty the
// FORTIMCP_CONFIG environment variable is used instead.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return nil, errors.Newf("configuration path must be provided either as parameter or %s environment variable", EnvConfigPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config file %s", path)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "invalid YAML in config file")
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Name == "" {
		c.Server.Name = "fortimcp"
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8814"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Monitor.Schedule == "" {
		c.Monitor.Schedule = "@every 5m"
	}
	if c.Audit.DataDir == "" {
		c.Audit.DataDir = "./data"
	}
}

// Validate checks the server-level sections. At least one device must be
// configured; per-device field validation happens in the registry.
func (c *Config) Validate() error {
	if len(c.Devices) == 0 {
		return errors.New("at least one device must be configured")
	}
	return nil
}
