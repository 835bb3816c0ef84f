package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/safelocker/internal/common"
	"github.com/dmitrijs2005/safelocker/internal/configx"
	"github.com/dmitrijs2005/safelocker/internal/logging"
)

// Backends the client can talk to.
const (
	BackendGRPC   = "grpc"
	BackendMemory = "memory"
)

// Config holds runtime settings for the Safe Locker client.
type Config struct {
	ServerEndpointAddr string        `mapstructure:"server_endpoint_addr"`
	Backend            string        `mapstructure:"backend"`
	LogFormat          string        `mapstructure:"log_format"`
	Debug              bool          `mapstructure:"debug"`
	Demo               bool          `mapstructure:"demo"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.Backend = BackendGRPC
	c.LogFormat = logging.FormatText
	c.Debug = false
	c.Demo = false
	c.RequestTimeout = 30 * time.Second
}

// Validate reports settings that can not work.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendGRPC, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	switch c.LogFormat {
	case logging.FormatSlog, logging.FormatText, logging.FormatZap:
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a config file, the environment and command-line flags. Later sources take
// precedence over earlier ones. Invalid input panics.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

func parseEnv(cfg *Config) {
	if err := configx.LoadDotEnv(); err != nil {
		panic(err)
	}
	if err := configx.LoadEnv(common.EnvPrefix, cfg); err != nil {
		panic(err)
	}
}

// parseFile overlays cfg with the file named by -c/-config, if any.
func parseFile(cfg *Config) {
	path := configFileFlag(os.Args[1:])
	if path == "" {
		return
	}
	if err := configx.LoadFile(path, cfg); err != nil {
		panic(err)
	}
}
