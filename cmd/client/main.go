package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/safelocker/internal/client/cli"
	"github.com/dmitrijs2005/safelocker/internal/client/config"
	"github.com/dmitrijs2005/safelocker/internal/logging"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger, err := logging.New(cfg.LogFormat, os.Stderr, cfg.Debug)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}
