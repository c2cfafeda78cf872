package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/adamanr/worklog_service/internal/config"
	"github.com/adamanr/worklog_service/internal/database"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or configs/config.toml)")
	flag.Parse()

	action := "up"
	if flag.NArg() > 0 {
		action = flag.Arg(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg, err := config.GetConfig(config.Path(*configPath), logger)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := runMigration(action, cfg.Database.DSN(), logger); err != nil {
		log.Fatalf("migration %s failed: %v", action, err)
	}

	logger.Info("Migration completed", slog.String("action", action))
}

func runMigration(action, dsn string, logger *slog.Logger) error {
	m, err := database.NewMigrator(dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	switch action {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "drop":
		return m.Drop()
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		logger.Info("Schema version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
		return nil
	default:
		return fmt.Errorf("unsupported action %q", action)
	}
}
