package main

import (
	"flag"

	"github.com/BurntSushi/toml"
)

// config holds the settings for the server. They may come from a TOML file
// and from the command line, with the command line taking precedence.
type config struct {
	Port           string `toml:"port"`
	PProfPort      string `toml:"pprof_port"`
	APIURL         string `toml:"api_url"`
	Tokens         string `toml:"tokens"`   // file of user tokens
	Metadata       string `toml:"metadata"` // location of fragment metadata
	Data           string `toml:"data"`     // location of fragment data
	CacheDir       string `toml:"cache_dir"`
	CacheSize      int64  `toml:"cache_size"` // in megabytes
	SentryDSN      string `toml:"sentry_dsn"`
	MaxConversions int    `toml:"max_conversions"`
}

func defaultConfig() config {
	return config{
		Port:           "8080",
		MaxConversions: 4,
	}
}

// bindFlags attaches a flag for every setting in c to fs.
func (c *config) bindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Port, "port", c.Port, "Port to listen on")
	fs.StringVar(&c.PProfPort, "pprof-port", c.PProfPort, "Port for the pprof server, if any")
	fs.StringVar(&c.APIURL, "api-url", c.APIURL, "Public URL of the server, used in Location headers")
	fs.StringVar(&c.Tokens, "tokens", c.Tokens, "File of user tokens. If empty, everyone is an admin")
	fs.StringVar(&c.Metadata, "metadata", c.Metadata, "Location of fragment metadata")
	fs.StringVar(&c.Data, "data", c.Data, "Location of fragment data")
	fs.StringVar(&c.CacheDir, "cache-dir", c.CacheDir, "Directory for the conversion cache. If empty, it is kept in memory")
	fs.Int64Var(&c.CacheSize, "cache-size", c.CacheSize, "Size of the conversion cache in megabytes. 0 disables it")
	fs.StringVar(&c.SentryDSN, "sentry-dsn", c.SentryDSN, "Sentry DSN for error reporting")
	fs.IntVar(&c.MaxConversions, "max-conversions", c.MaxConversions, "Number of image conversions to run at once")
}

// loadConfig reads the settings from args. If a file is given with the
// "-config" flag it is read first and then any flags given on the command
// line override it.
func loadConfig(args []string) (config, error) {
	c := defaultConfig()
	configFile, err := parseFlags(&c, args)
	if err != nil || configFile == "" {
		return c, err
	}
	c = defaultConfig()
	if _, err := toml.DecodeFile(configFile, &c); err != nil {
		return c, err
	}
	_, err = parseFlags(&c, args)
	return c, err
}

// parseFlags sets the fields of c from args and returns the name of the
// config file given, if any.
func parseFlags(c *config, args []string) (string, error) {
	fs := flag.NewFlagSet("fragments", flag.ContinueOnError)
	configFile := fs.String("config", "", "TOML configuration file")
	c.bindFlags(fs)
	err := fs.Parse(args)
	return *configFile, err
}
