package config

import (
	"fmt"
	"time"
)

// Config holds runtime settings for the client.
//
// Units: OnlineCheckInterval and RequestTimeout are time.Duration values;
// the environment accepts Go duration strings such as "3s".
type Config struct {
	// APIURL is the base address of the authentication API.
	APIURL string `env:"API_URL"`
	// DBPath is the local SQLite file holding the stored token.
	DBPath              string        `env:"AUTHCLIENT_DB"`
	OnlineCheckInterval time.Duration `env:"AUTHCLIENT_ONLINE_CHECK_INTERVAL"`
	RequestTimeout      time.Duration `env:"AUTHCLIENT_REQUEST_TIMEOUT"`
	LogLevel            string        `env:"AUTHCLIENT_LOG_LEVEL"`
	LogFormat           string        `env:"AUTHCLIENT_LOG_FORMAT"`
	// MetricsAddr enables the /metrics listener when non-empty.
	MetricsAddr string `env:"AUTHCLIENT_METRICS_ADDR"`
}

// DotEnvFile is read from the working directory when present.
const DotEnvFile = ".env"

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIURL = "http://localhost:8000"
	c.DBPath = "authclient.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.MetricsAddr = ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// .env and the environment, a JSON file (if requested) and command-line
// flags. Later sources take precedence over earlier ones. args excludes the
// program name. The merged result must pass Validate.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	if c.OnlineCheckInterval <= 0 {
		return fmt.Errorf("online check interval must be positive, got %s", c.OnlineCheckInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}
