// Command admin grants or revokes the admin flag of a user.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"socialnet/config"
	"socialnet/internal/database"
	"socialnet/internal/logging"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML or .env config file")
	username := flag.String("username", "", "user to update")
	revoke := flag.Bool("revoke", false, "remove the admin flag instead of granting it")
	flag.Parse()

	if *username == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("loading configuration")
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.Database.DSN, log)
	if err != nil {
		log.WithError(err).Fatal("opening database")
	}
	defer db.Close()

	if err := database.NewUserStore(db).SetAdmin(ctx, *username, !*revoke); err != nil {
		log.WithError(err).WithField("username", *username).Error("updating admin flag")
		db.Close()
		os.Exit(1)
	}
	log.WithFields(logrus.Fields{"username": *username, "admin": !*revoke}).Info("admin flag updated")
}
