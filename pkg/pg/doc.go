// Package pg bootstraps PostgreSQL access over pgx/v5.
//
// Connect opens a *pgxpool.Pool from an env-populated Config and retries
// until the database answers or the context is done. Migrate applies goose
// migrations from an fs.FS, usually an embed.FS compiled into the binary:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	version, err := pg.Migrate(ctx, pool, cfg, migrations.FS, logger)
//
// The Is* helpers classify *pgconn.PgError values by SQLSTATE so callers can
// map them to domain errors without importing pgconn.
package pg
