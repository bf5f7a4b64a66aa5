package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/authclient/internal/flagx"
	"github.com/dmitrijs2005/authclient/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds.
type JsonConfig struct {
	APIURL              string         `json:"api_url"`
	DBPath              string         `json:"db_path"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	LogLevel            string         `json:"log_level"`
	LogFormat           string         `json:"log_format"`
	MetricsAddr         string         `json:"metrics_addr"`
}

// parseJson overlays cfg with the JSON file named by -c or -config. Only
// fields present in the file are copied.
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

	setString(&cfg.APIURL, jc.APIURL)
	setString(&cfg.DBPath, jc.DBPath)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.MetricsAddr, jc.MetricsAddr)
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
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
