// Package config loads runtime configuration for the client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A .env file in the working directory, if present, and the process
//     environment (API_URL, AUTHCLIENT_DB, AUTHCLIENT_LOG_LEVEL, ...).
//  3. Optional JSON file selected via -c or -config.
//  4. Command-line flags, which override earlier values. -i and -t only
//     apply when passed.
//
// The merged Config must have a positive check interval and request timeout.
//
// Supported flags
//
//	-a string   base URL of the authentication API
//	-d string   path of the local database file
//	-i int      online status check interval (seconds)
//	-t int      request timeout (seconds)
//	-m string   listen address for /metrics
//
// # JSON schema
//
// Intervals use timex.Duration, so values can be either strings like "3s"
// or integer nanoseconds:
//
//	{
//	  "api_url": "http://localhost:8000",
//	  "db_path": "authclient.db",
//	  "online_check_interval": "3s",
//	  "request_timeout": "10s",
//	  "log_level": "info",
//	  "log_format": "text",
//	  "metrics_addr": ":9100"
//	}
package config
