// Package config builds the process configuration from environment variables
// so main stays lean. JUPYTERHUB_* variables follow the contract the Hub sets
// for its services; OIDCP_* variables are this provider's own.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	dErrors "oidcp/pkg/domain-errors"
)

// Config captures everything the provider needs at startup.
type Config struct {
	Addr            string
	BaseURL         string
	ServicePrefix   string
	Issuer          string
	ServicesJSON    string
	VaultPath       string
	InternalBaseURL string
	RedisURL        string

	EmailPattern      string
	AdminEmailPattern string
	UserEmailPattern  string

	CodeTTL  time.Duration
	TokenTTL time.Duration
}

// FromEnv reads the environment. Missing JUPYTERHUB_BASE_URL is a fatal
// configuration error; everything else has a usable default.
func FromEnv() (Config, error) {
	baseURL := os.Getenv("JUPYTERHUB_BASE_URL")
	if baseURL == "" {
		return Config{}, dErrors.New(dErrors.CodeConfiguration, "JUPYTERHUB_BASE_URL is required")
	}

	prefix := os.Getenv("JUPYTERHUB_SERVICE_PREFIX")
	if prefix == "" {
		prefix = "/services/oidcp/"
	}

	addr := os.Getenv("OIDCP_ADDR")
	if addr == "" {
		port := os.Getenv("OIDCP_PORT")
		if port == "" {
			port = "8888"
		}
		addr = ":" + port
	}

	services := os.Getenv("OIDCP_SERVICES")
	if services == "" {
		services = "[]"
	}

	cfg := Config{
		Addr:              addr,
		BaseURL:           baseURL,
		ServicePrefix:     prefix,
		Issuer:            os.Getenv("OIDCP_ISSUER"),
		ServicesJSON:      services,
		VaultPath:         os.Getenv("OIDCP_VAULT_PATH"),
		InternalBaseURL:   os.Getenv("OIDCP_INTERNAL_BASE_URL"),
		RedisURL:          os.Getenv("OIDCP_REDIS_URL"),
		EmailPattern:      os.Getenv("OIDCP_EMAIL_PATTERN"),
		AdminEmailPattern: os.Getenv("OIDCP_ADMIN_EMAIL_PATTERN"),
		UserEmailPattern:  os.Getenv("OIDCP_USER_EMAIL_PATTERN"),
	}

	var err error
	if cfg.CodeTTL, err = durationEnv("OIDCP_CODE_TTL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = durationEnv("OIDCP_TOKEN_TTL", time.Hour); err != nil {
		return Config{}, err
	}

	if cfg.Issuer == "" {
		cfg.Issuer = cfg.PublicBaseURL()
	}
	return cfg, nil
}

func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeConfiguration,
			fmt.Sprintf("%s must be a duration", name))
	}
	return d, nil
}

// PublicBaseURL joins the Hub base URL with the service prefix, trailing
// slash trimmed. All OIDC endpoint URLs hang off this.
func (c Config) PublicBaseURL() string {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	joined := base.JoinPath(c.ServicePrefix)
	return strings.TrimSuffix(joined.String(), "/")
}
