package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/miarbol/internal/flagx"
	"github.com/dmitrijs2005/miarbol/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations use
// timex.Duration so the file may say "15s" or give nanoseconds.
type JsonConfig struct {
	Environment    string         `json:"environment"`
	APIBaseURL     string         `json:"api_base_url"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	StoreBackend   string         `json:"store_backend"`
	DataDir        string         `json:"data_dir"`
	RedisAddr      string         `json:"redis_addr"`
	LogLevel       string         `json:"log_level"`
	OutputFormat   string         `json:"output_format"`
	MetricsAddr    string         `json:"metrics_addr"`
}

// parseJson overlays cfg with the JSON file given by -c/-config in args.
// Fields absent from the file keep their current values.
func parseJson(cfg *Config, args []string) error {

	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.Environment, jc.Environment)
	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.StoreBackend, jc.StoreBackend)
	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.OutputFormat, jc.OutputFormat)
	setString(&cfg.MetricsAddr, jc.MetricsAddr)
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
