// Command migrate applies database migrations and seeds the plan catalog.
//
//	migrate                          # apply migrations only
//	migrate -seed configs/plans.yaml # apply migrations, then upsert plans
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/restokit/migrations"
	"github.com/dmitrymomot/restokit/pkg/config"
	"github.com/dmitrymomot/restokit/pkg/limits"
	"github.com/dmitrymomot/restokit/pkg/logger"
	"github.com/dmitrymomot/restokit/pkg/pg"
	"github.com/dmitrymomot/restokit/pkg/store"
)

type seedConfig struct {
	PlansFile string `env:"PLANS_FILE"`
}

func main() {
	seed := flag.String("seed", "", "plan catalog YAML to upsert after migrating (default $PLANS_FILE)")
	envFile := flag.String("env", "", "optional .env file to load first")
	flag.Parse()

	if *envFile != "" {
		if err := config.LoadEnv(*envFile); err != nil {
			panic(err)
		}
	}

	var (
		logCfg  logger.Config
		pgCfg   pg.Config
		seedCfg seedConfig
	)
	config.MustLoad(&logCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&seedCfg)
	if *seed == "" {
		*seed = seedCfg.PlansFile
	}

	log := logger.New(logger.FromConfig(logCfg), logger.WithAttr(logger.Component("migrate")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, pgCfg, *seed, log); err != nil {
		log.ErrorContext(ctx, "migration failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, pgCfg pg.Config, seedPath string, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	version, err := pg.Migrate(ctx, pool, pgCfg, migrations.FS, log)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "migrations applied", "version", version)

	if seedPath == "" {
		return nil
	}

	src, err := limits.NewYAMLFileSource(seedPath)
	if err != nil {
		return err
	}
	// Validates the file the same way the service will.
	catalog, err := limits.NewCatalog(ctx, src)
	if err != nil {
		return err
	}
	plans := catalog.Plans()
	if err := store.NewPlanSource(pool).UpsertPlans(ctx, plans...); err != nil {
		return err
	}
	log.InfoContext(ctx, "plan catalog seeded", "file", seedPath, "plans", len(plans))
	return nil
}
