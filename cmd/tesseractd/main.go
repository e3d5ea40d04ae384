package main

import (
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/tesseract-network/tesseractd/internal/config"
	"github.com/tesseract-network/tesseractd/internal/interface/web"
	"github.com/urfave/cli/v2"
)

//nolint:all
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	app := &cli.App{
		Name:   "tesseractd",
		Usage:  "cross-chain transaction buffer and swap coordinator daemon",
		Action: daemonAction,
		Commands: append(
			cli.Commands{},
			statusCmd,
			adminCmd,
			rolesCmd,
		),
		Flags: []cli.Flag{urlFlag, callerFlag},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func daemonAction(_ *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	log.SetLevel(log.Level(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	buffer, err := cfg.BufferService()
	if err != nil {
		log.Fatal(err)
	}
	coordinator, err := cfg.CoordinatorService()
	if err != nil {
		log.Fatal(err)
	}

	gateway := web.NewGateway(buffer, coordinator, cfg.GatewayAddr)

	log.RegisterExitHandler(func() {
		// nolint:errcheck
		gateway.Close()
		buffer.Stop()
		cfg.RepoManager().Close()
	})

	log.Info("starting service...")
	go func() {
		if err := gateway.Serve(); err != nil {
			log.Fatal(err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT, os.Interrupt)
	<-sigChan

	log.Info("shutting down service...")
	log.Exit(0)
	return nil
}
