package config

import (
	"os"
	"path/filepath"
	"testing"
)

// writeConfig writes a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

const validConfig = `
server:
  name: fortimcp-test
  listen_addr: ":9000"
devices:
  primary:
    host: 192.0.2.1
    api_token: secret
  branch:
    host: 192.0.2.2
    port: 8443
    username: admin
    password: pass
    vdom: office
    rate_limit:
      max_calls: 10
      window_seconds: 30
      mode: wait
auth:
  bearer_token: mytoken
logging:
  level: debug
  format: json
monitor:
  enabled: true
  schedule: "@every 1m"
audit:
  enabled: true
  data_dir: /tmp/fortimcp-test
`

func TestLoad(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Name != "fortimcp-test" {
		t.Errorf("Server.Name = %s", cfg.Server.Name)
	}
	if cfg.Server.ListenAddr != ":9000" {
		t.Errorf("Server.ListenAddr = %s", cfg.Server.ListenAddr)
	}
	if len(cfg.Devices) != 2 {
		t.Fatalf("Devices = %d, want 2", len(cfg.Devices))
	}

	primary := cfg.Devices["primary"]
	if primary.Host != "192.0.2.1" || primary.APIToken != "secret" {
		t.Errorf("primary device = %+v", primary)
	}

	branch := cfg.Devices["branch"]
	if branch.Port != 8443 || branch.VDOM != "office" {
		t.Errorf("branch device = %+v", branch)
	}
	if branch.RateLimit.MaxCalls != 10 || branch.RateLimit.WindowSeconds != 30 {
		t.Errorf("branch rate limit = %+v", branch.RateLimit)
	}
	if string(branch.RateLimit.Mode) != "wait" {
		t.Errorf("branch rate limit mode = %s", branch.RateLimit.Mode)
	}

	if cfg.Auth.BearerToken != "mytoken" {
		t.Errorf("Auth.BearerToken = %s", cfg.Auth.BearerToken)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if !cfg.Monitor.Enabled || cfg.Monitor.Schedule != "@every 1m" {
		t.Errorf("Monitor = %+v", cfg.Monitor)
	}
	if !cfg.Audit.Enabled || cfg.Audit.DataDir != "/tmp/fortimcp-test" {
		t.Errorf("Audit = %+v", cfg.Audit)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
devices:
  fw1:
    host: 192.0.2.1
    api_token: t
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Name != "fortimcp" {
		t.Errorf("default Server.Name = %s", cfg.Server.Name)
	}
	if cfg.Server.ListenAddr != ":8814" {
		t.Errorf("default Server.ListenAddr = %s", cfg.Server.ListenAddr)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("default Logging = %+v", cfg.Logging)
	}
	if cfg.Monitor.Schedule != "@every 5m" {
		t.Errorf("default Monitor.Schedule = %s", cfg.Monitor.Schedule)
	}
	if cfg.Monitor.Enabled {
		t.Error("monitor must be disabled by default")
	}
	if cfg.Audit.DataDir != "./data" {
		t.Errorf("default Audit.DataDir = %s", cfg.Audit.DataDir)
	}
	if cfg.Auth.BearerToken != "" {
		t.Error("auth must be disabled by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	path := writeConfig(t, validConfig)
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() with env fallback error = %v", err)
	}
	if cfg.Server.Name != "fortimcp-test" {
		t.Errorf("Server.Name = %s", cfg.Server.Name)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("no path and no env", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "")
		if _, err := Load(""); err == nil {
			t.Error("expected error without a path")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeConfig(t, "devices: [not: a: map")
		if _, err := Load(path); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("no devices", func(t *testing.T) {
		path := writeConfig(t, "server:\n  name: x\n")
		if _, err := Load(path); err == nil {
			t.Error("expected error when no devices are configured")
		}
	})
}
