package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

var baseURLs = map[string]string{
	EnvDevelopment: "http://localhost:4000/api",
	EnvProduction:  "https://api.miarbolenelmundo.com/api",
}

// Config holds runtime settings for the Mi Árbol CLI.
//
// APIBaseURL, when set, wins over the address implied by Environment.
// MetricsAddr empty means no metrics endpoint.
type Config struct {
	Environment    string
	APIBaseURL     string
	RequestTimeout time.Duration
	StoreBackend   string
	DataDir        string
	RedisAddr      string
	LogLevel       string
	OutputFormat   string
	MetricsAddr    string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Environment = EnvDevelopment
	c.APIBaseURL = ""
	c.RequestTimeout = 15 * time.Second
	c.StoreBackend = StoreSQLite
	c.DataDir = "~/.miarbol"
	c.RedisAddr = "127.0.0.1:6379"
	c.LogLevel = "warn"
	c.OutputFormat = "table"
	c.MetricsAddr = ""
}

// BaseURL is the backend root for the configured environment.
func (c *Config) BaseURL() string {
	if c.APIBaseURL != "" {
		return c.APIBaseURL
	}
	return baseURLs[c.Environment]
}

func (c *Config) Validate() error {
	if _, ok := baseURLs[c.Environment]; !ok && c.APIBaseURL == "" {
		return fmt.Errorf("unknown environment %q", c.Environment)
	}
	if c.StoreBackend != StoreSQLite && c.StoreBackend != StoreRedis {
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// LoadConfig builds a Config from os.Args: defaults, then the JSON file
// named by -c/-config, then flags. Later sources take precedence.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load is LoadConfig over an explicit argument list.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
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
