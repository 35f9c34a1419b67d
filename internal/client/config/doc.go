// Package config loads runtime configuration for the Mi Árbol CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// # JSON schema
//
//	{
//	  "environment": "production",
//	  "api_base_url": "",
//	  "request_timeout": "15s",
//	  "store_backend": "sqlite",
//	  "data_dir": "~/.miarbol",
//	  "redis_addr": "127.0.0.1:6379",
//	  "log_level": "info",
//	  "output_format": "table",
//	  "metrics_addr": ":9102"
//	}
//
// The package does not read environment variables.
package config
