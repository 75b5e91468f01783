package fortigate

import "net/http"

// authStrategy injects credentials into an outgoing request. The strategy
// is chosen once at client construction and never changes afterwards.
type authStrategy interface {
	apply(req *http.Request)
	method() string
}

// tokenAuth sends the FortiGate REST API token as a bearer header.
type tokenAuth struct {
	token string
}

func (a tokenAuth) apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.token)
}

func (a tokenAuth) method() string { return "token" }

// basicAuth sends HTTP basic credentials.
type basicAuth struct {
	username string
	password string
}

func (a basicAuth) apply(req *http.Request) {
	req.SetBasicAuth(a.username, a.password)
}

func (a basicAuth) method() string { return "basic" }

// newAuthStrategy selects the auth strategy for a device. An API token
// always wins over username/password; basic credentials are never sent
// when a token is configured.
func newAuthStrategy(cfg DeviceConfig) (authStrategy, error) {
	if cfg.APIToken != "" {
		return tokenAuth{token: cfg.APIToken}, nil
	}
	if cfg.Username != "" && cfg.Password != "" {
		return basicAuth{username: cfg.Username, password: cfg.Password}, nil
	}
	return nil, newAPIError(KindConfig, 0, "either api_token or username/password must be provided")
}
