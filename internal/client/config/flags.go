package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/authclient/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the authentication API
//	-d string   path of the local database file
//	-i int      online check interval in seconds
//	-t int      request timeout in seconds
//	-m string   listen address for /metrics
//
// Only the flags above are picked out of args (flagx.FilterArgs), so other
// components may define their own.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-i", "-t", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIURL, "a", cfg.APIURL, "base URL of the authentication API")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "path of the local database file")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "listen address for /metrics (empty disables)")
	onlineCheckInterval := fs.Int("i", 0, "online check interval (in seconds)")
	requestTimeout := fs.Int("t", 0, "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// -i and -t only override when given, so sub-second values from the
	// environment or JSON are kept.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
		case "t":
			cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
		}
	})
	return nil
}
