package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/miarbol/internal/flagx"
)

var knownFlags = []string{"-e", "-a", "-t", "-s", "-d", "-r", "-l", "-o", "-m"}

// parseFlags populates Config fields from command-line flags.
//
//	-e string   environment: development or production
//	-a string   API base URL, overrides the environment
//	-t int      request timeout (in seconds)
//	-s string   local store: sqlite or redis
//	-d string   data directory for the SQLite store
//	-r string   redis address (host:port)
//	-l string   log level
//	-o string   output format: table, json or yaml
//	-m string   address to expose /metrics on, empty to disable
//
// args are filtered with flagx.FilterArgs so -c/-config and unknown flags
// do not get in the way.
func parseFlags(cfg *Config, args []string) error {

	fs := flag.NewFlagSet("miarbol", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Environment, "e", cfg.Environment, "environment (development|production)")
	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "API base URL")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.StoreBackend, "s", cfg.StoreBackend, "local store (sqlite|redis)")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "redis address")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.OutputFormat, "o", cfg.OutputFormat, "output format (table|json|yaml)")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "metrics listen address")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	return nil
}
