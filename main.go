package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"socialnet/config"
	"socialnet/internal/database"
	"socialnet/internal/logging"
	"socialnet/internal/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML or .env config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("loading configuration")
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database.DSN, log)
	if err != nil {
		log.WithError(err).Fatal("opening database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Error("closing database")
		}
	}()

	if err := server.Run(ctx, cfg, db, log); err != nil {
		log.WithError(err).Error("server stopped")
		return
	}
	log.Info("server stopped")
}
