package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/safelocker/internal/flagx"
)

var configFileFlag = flagx.ConfigFileFlag

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   address and port of the backend server
//	-b string   backend, grpc or memory
//	-l string   log format
//	-demo       seed the memory backend with demo data
//	-debug      debug logging
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-b", "-l", "-demo", "-debug"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "backend: grpc or memory")
	fs.StringVar(&cfg.LogFormat, "l", cfg.LogFormat, "log format: slog, text or zap")
	fs.BoolVar(&cfg.Demo, "demo", cfg.Demo, "seed the memory backend with the demo account")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
