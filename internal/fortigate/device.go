package fortigate

import (
	"fmt"
	"time"
)

// Defaults applied to device records that omit optional fields.
const (
	DefaultPort          = 443
	DefaultVDOM          = "root"
	DefaultTimeout       = 30 * time.Second
	DefaultMaxRetries    = 3
	DefaultMaxCalls      = 60
	DefaultWindowSeconds = 60
)

// DeviceConfig holds the connection parameters for one FortiGate appliance.
// It is immutable once a client has been built from it; a per-call vdom
// override never mutates the stored value.
type DeviceConfig struct {
	Host      string `yaml:"host" json:"host"`
	Port      int    `yaml:"port" json:"port"`
	VDOM      string `yaml:"vdom" json:"vdom"`
	APIToken  string `yaml:"api_token" json:"-"`
	Username  string `yaml:"username" json:"username,omitempty"`
	Password  string `yaml:"password" json:"-"`
	VerifySSL bool   `yaml:"verify_ssl" json:"verify_ssl"`

	// Timeout is the absolute per-attempt deadline in seconds.
	Timeout int `yaml:"timeout" json:"timeout"`

	// MaxRetries is the internal retry budget for retryable failures.
	// Zero means the default; -1 disables retries entirely.
	MaxRetries int `yaml:"max_retries" json:"max_retries"`

	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Optional SNMP settings consumed by the health monitor only.
	SNMPCommunity string `yaml:"snmp_community,omitempty" json:"-"`
	SNMPPort      uint16 `yaml:"snmp_port,omitempty" json:"snmp_port,omitempty"`
}

// withDefaults returns a copy with unset optional fields filled in.
func (c DeviceConfig) withDefaults() DeviceConfig {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.VDOM == "" {
		c.VDOM = DefaultVDOM
	}
	if c.Timeout == 0 {
		c.Timeout = int(DefaultTimeout / time.Second)
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	} else if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RateLimit.MaxCalls == 0 {
		c.RateLimit.MaxCalls = DefaultMaxCalls
	}
	if c.RateLimit.WindowSeconds == 0 {
		c.RateLimit.WindowSeconds = DefaultWindowSeconds
	}
	if c.RateLimit.Mode == "" {
		c.RateLimit.Mode = LimitReject
	}
	if c.SNMPPort == 0 {
		c.SNMPPort = 161
	}
	return c
}

// validate checks the record after defaults have been applied. All
// violations surface as config-kind errors.
func (c DeviceConfig) validate() error {
	if c.Host == "" {
		return newAPIError(KindConfig, 0, "device must have a host")
	}
	if c.APIToken == "" && (c.Username == "" || c.Password == "") {
		return newAPIError(KindConfig, 0, "either api_token or username/password must be provided")
	}
	if c.Port < 1 || c.Port > 65535 {
		return newAPIError(KindConfig, 0, fmt.Sprintf("invalid port %d", c.Port))
	}
	if c.Timeout <= 0 {
		return newAPIError(KindConfig, 0, "timeout must be positive")
	}
	if c.RateLimit.MaxCalls < 0 {
		return newAPIError(KindConfig, 0, "rate limit max_calls must not be negative")
	}
	if c.RateLimit.WindowSeconds <= 0 {
		return newAPIError(KindConfig, 0, "rate limit window must be positive")
	}
	if c.RateLimit.Mode != LimitReject && c.RateLimit.Mode != LimitWait {
		return newAPIError(KindConfig, 0, fmt.Sprintf("invalid rate limit mode %q", c.RateLimit.Mode))
	}
	return nil
}
