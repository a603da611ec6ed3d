package main

import (
	"flag"
	"os"
	"timeoff/cmd/migration/initialize"
	"timeoff/cmd/migration/seed"
	"timeoff/config"
	"timeoff/internal/database"
	"timeoff/internal/logger"
)

func main() {
	runSeed := flag.Bool("seed", false, "seed development data after migrating")
	flag.Parse()

	log := logger.New("migration")

	cfg, err := config.InitConfig()
	if err != nil {
		log.Er("failed to initialize config", err)
		os.Exit(1)
	}

	logger.Init(cfg.Environment)

	db, err := database.New(cfg)
	if err != nil {
		log.Er("failed to create database", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Er("failed to close database", err)
		}
	}()

	if err := initialize.InitializeTables(db.SQL, cfg, log); err != nil {
		log.Er("failed to initialize tables", err)
		os.Exit(1)
	}

	// Cached entities may predate the schema change.
	if err := db.FlushAllCaches(); err != nil {
		log.Er("failed to flush caches", err)
	}

	if *runSeed {
		if err := seed.Seed(db, cfg, log); err != nil {
			log.Er("failed to seed data", err)
			os.Exit(1)
		}
	}
}
