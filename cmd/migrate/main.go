package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/responsainveniree/student-info-api/pkg/config"
	"github.com/responsainveniree/student-info-api/pkg/database"
	"github.com/responsainveniree/student-info-api/pkg/logger"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s up|down|status\n", os.Args[0])
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	cmd := flag.Arg(0)
	switch cmd {
	case "up":
		err = database.Migrate(db)
	case "down":
		err = database.Rollback(db)
	case "status":
		err = database.MigrationStatus(db)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logr.Sugar().Fatalw("migration failed", "command", cmd, "error", err)
	}
	logr.Sugar().Infow("migration finished", "command", cmd)
}
