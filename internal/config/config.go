// Package config loads the relay's environment-derived configuration once at
// process start. Handlers receive the resulting struct; absence checks happen
// here at construction time, not scattered through request paths.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
)

const (
	clientIDEnvVar     = "CANVA_CLIENT_ID"
	clientSecretEnvVar = "CANVA_CLIENT_SECRET"
	baseURLEnvVar      = "RELAY_BASE_URL"
	scopesEnvVar       = "CANVA_SCOPES"
	redisURLEnvVar     = "REDIS_URL"
	portEnvVar         = "PORT"
	envEnvVar          = "ENV"

	DefaultScopes = "design:content:read design:content:write"

	// Upstream provider endpoints. Overridable for staging environments.
	defaultAuthorizeURL = "https://www.canva.com/api/oauth/authorize"
	defaultTokenURL     = "https://api.canva.com/rest/v1/oauth/token"
	defaultAPIBaseURL   = "https://api.canva.com/rest/v1"
)

// Config holds everything the relay needs at runtime. Constructed by Load and
// validated before any listener starts; a missing required value is a fatal
// configuration error for the whole process.
type Config struct {
	// Upstream OAuth client registration.
	ClientID     string
	ClientSecret string
	Scopes       string

	// BaseURL is the relay's own externally reachable base URL, used to
	// derive the upstream-facing callback redirect URI.
	BaseURL string

	// Upstream provider endpoints.
	AuthorizeURL string
	TokenURL     string
	APIBaseURL   string

	// RedisURL is the session-store connection string.
	RedisURL string

	Port    string
	AppName string
	Env     string
}

// Load reads the environment into a Config. It does not validate; call
// Validate before use so the caller controls how fatal errors surface.
func Load() Config {
	return Config{
		ClientID:     os.Getenv(clientIDEnvVar),
		ClientSecret: os.Getenv(clientSecretEnvVar),
		Scopes:       GetEnv(scopesEnvVar, DefaultScopes),
		BaseURL:      strings.TrimSuffix(os.Getenv(baseURLEnvVar), "/"),
		AuthorizeURL: GetEnv("CANVA_AUTHORIZE_URL", defaultAuthorizeURL),
		TokenURL:     GetEnv("CANVA_TOKEN_URL", defaultTokenURL),
		APIBaseURL:   strings.TrimSuffix(GetEnv("CANVA_API_BASE_URL", defaultAPIBaseURL), "/"),
		RedisURL:     os.Getenv(redisURLEnvVar),
		Port:         listenAddr(),
		AppName:      GetEnv("APP_NAME", "Canva OAuth Relay"),
		Env:          GetEnv(envEnvVar, "DEV"),
	}
}

// Validate reports every missing or malformed required value at once.
func (c Config) Validate() error {
	var errs []error
	if c.ClientID == "" {
		errs = append(errs, fmt.Errorf("%s is required", clientIDEnvVar))
	}
	if c.ClientSecret == "" {
		errs = append(errs, fmt.Errorf("%s is required", clientSecretEnvVar))
	}
	if c.BaseURL == "" {
		errs = append(errs, fmt.Errorf("%s is required", baseURLEnvVar))
	} else if u, err := url.Parse(c.BaseURL); err != nil || !u.IsAbs() {
		errs = append(errs, fmt.Errorf("%s must be an absolute URL", baseURLEnvVar))
	}
	if c.RedisURL == "" {
		errs = append(errs, fmt.Errorf("%s is required", redisURLEnvVar))
	}
	return errors.Join(errs...)
}

// Presence reports which configuration values are set, without exposing them.
// Serves the /health/env diagnostic endpoint.
func (c Config) Presence() map[string]bool {
	return map[string]bool{
		clientIDEnvVar:     c.ClientID != "",
		clientSecretEnvVar: c.ClientSecret != "",
		baseURLEnvVar:      c.BaseURL != "",
		scopesEnvVar:       c.Scopes != "",
		redisURLEnvVar:     c.RedisURL != "",
	}
}

// CallbackURL is the relay-owned redirect URI registered with the upstream
// provider.
func (c Config) CallbackURL() string {
	return c.BaseURL + "/callback"
}

func listenAddr() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

// GetEnv returns the environment variable's value, or defaultValue when unset.
func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
