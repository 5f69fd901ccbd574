// Command quotacheck checks that Postgres and Redis are reachable, then
// prints the plan usage and limit warnings of one tenant.
//
//	quotacheck -tenant cantina-centro
//	quotacheck -tenant cantina-centro -env .env
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/restokit/pkg/config"
	"github.com/dmitrymomot/restokit/pkg/limits"
	"github.com/dmitrymomot/restokit/pkg/logger"
	"github.com/dmitrymomot/restokit/pkg/pg"
	"github.com/dmitrymomot/restokit/pkg/redis"
	"github.com/dmitrymomot/restokit/pkg/store"
	"github.com/dmitrymomot/restokit/pkg/tenant"
	"github.com/dmitrymomot/restokit/pkg/usage"
	"github.com/dmitrymomot/restokit/svc/quota"
)

const healthcheckTimeout = 5 * time.Second

func main() {
	slug := flag.String("tenant", "", "tenant slug to report on")
	envFile := flag.String("env", "", "optional .env file to load first")
	flag.Parse()

	if *envFile != "" {
		if err := config.LoadEnv(*envFile); err != nil {
			panic(err)
		}
	}

	var (
		logCfg   logger.Config
		pgCfg    pg.Config
		redisCfg redis.Config
		quotaCfg quota.Config
	)
	config.MustLoad(&logCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&quotaCfg)

	log := logger.New(logger.FromConfig(logCfg),
		logger.WithAttr(logger.Component("quotacheck")),
		logger.WithContextExtractors(tenant.LoggerExtractor(), tenant.PlanExtractor()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *slug, pgCfg, redisCfg, quotaCfg, log); err != nil {
		log.ErrorContext(ctx, "quota check failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, slug string, pgCfg pg.Config, redisCfg redis.Config, quotaCfg quota.Config, log *slog.Logger) error {
	if slug == "" {
		return errors.New("-tenant is required")
	}

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	rdb, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	checks := []struct {
		name  string
		check func(context.Context) error
	}{
		{"postgres", pg.Healthcheck(pool)},
		{"redis", redis.Healthcheck(rdb)},
	}
	for _, c := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, healthcheckTimeout)
		err := c.check(checkCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
		log.DebugContext(ctx, "dependency healthy", "dependency", c.name)
	}

	catalog, err := limits.NewCatalog(ctx, store.NewPlanSource(pool))
	if err != nil {
		return err
	}

	tenants := store.NewTenantStore(pool)
	t, err := tenants.GetBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("tenant %q: %w", slug, err)
	}
	ctx = tenant.WithTenant(ctx, t)

	locker := quota.NewRedisLockerFromConfig(rdb, redisCfg.Key("quota", "lock"), quotaCfg)
	svc := quota.NewService(catalog, usage.FromRepository(store.NewUsageRepository(pool)),
		quota.WithTenantStore(tenants),
		quota.WithLocker(locker),
		quota.WithLogger(log),
		quota.WithConfig(quotaCfg),
	)

	// A lock round trip proves reservations can be serialized across instances.
	release, err := locker.Lock(ctx, "quotacheck:"+t.ID.String())
	if err != nil {
		return fmt.Errorf("reservation lock: %w", err)
	}
	if err := release(ctx); err != nil {
		return fmt.Errorf("reservation unlock: %w", err)
	}

	if err := t.Access(time.Now()); err != nil {
		log.WarnContext(ctx, "tenant has no access", logger.Error(err))
	}

	report, err := svc.Usage(ctx, t)
	if err != nil {
		return err
	}
	for _, res := range limits.AllResources() {
		info, ok := report[res]
		if !ok {
			continue
		}
		if info.Unlimited() {
			log.InfoContext(ctx, res.Label(), logger.Resource(res), "current", info.Current, "limit", "unlimited")
			continue
		}
		log.InfoContext(ctx, res.Label(), logger.Resource(res), logger.Usage(info.Current, info.Limit))
	}

	warnings, err := svc.ResourceWarnings(ctx, t)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		log.WarnContext(ctx, "resource near limit",
			logger.Resource(w.Resource),
			logger.Usage(w.Current, w.Limit),
			"percent", w.Percent,
		)
	}
	return nil
}
