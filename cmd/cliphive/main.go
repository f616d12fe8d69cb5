package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/cliphive/cliphive/cache/ristretto"
	"github.com/cliphive/cliphive/config"
	"github.com/cliphive/cliphive/core"
	"github.com/cliphive/cliphive/db/zombiezen"
	"github.com/cliphive/cliphive/mail"
	"github.com/cliphive/cliphive/migrations"
	"github.com/cliphive/cliphive/router"
	"github.com/cliphive/cliphive/server"
	"zombiezen.com/go/sqlite/sqlitex"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file (defaults apply when empty)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(*configPath, logger); err != nil {
		logger.Error("startup failed", "err", err)
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	var cfg *config.Config
	if configPath != "" {
		loaded, err := config.Load(configPath, logger)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		logger.Info("no config file given, using generated defaults")
		cfg = config.NewDefaultConfig()
	}

	pool, err := sqlitex.NewPool(cfg.DBFile, sqlitex.PoolOptions{})
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", cfg.DBFile, err)
	}
	defer pool.Close()

	conn, err := pool.Take(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	if err := zombiezen.ApplyMigrations(conn, migrations.Schema()); err != nil {
		pool.Put(conn)
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	pool.Put(conn)

	store, err := zombiezen.New(pool)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}

	cooldowns, err := ristretto.New[bool]()
	if err != nil {
		return fmt.Errorf("failed to create cooldown cache: %w", err)
	}

	provider := config.NewProvider(cfg)
	if configPath != "" {
		// With generated defaults there is no file to re-read, so SIGHUP
		// is left alone.
		config.ListenReload(configPath, provider, logger)
	}

	mailer := newMailer(cfg.Smtp, logger)
	app := core.NewApp(store, store, cooldowns, provider, logger, mailer)

	rt := router.New()
	if err := registerRoutes(rt, cfg, app); err != nil {
		return err
	}

	server.New(cfg.Server, rt, logger).Run()
	return nil
}

// newMailer picks the delivery backend. Without SMTP the codes still have
// to go somewhere, so they land in the log.
func newMailer(cfg config.Smtp, logger *slog.Logger) mail.Sender {
	if !cfg.Enabled {
		logger.Info("smtp disabled, one time codes are logged only")
		return &mail.LogSender{Logger: logger}
	}
	return mail.New(cfg, logger)
}
