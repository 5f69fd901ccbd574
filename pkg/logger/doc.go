// Package logger builds the *slog.Logger used across restokit and provides
// attribute helpers with stable keys.
//
// Binaries configure it from the environment:
//
//	var cfg logger.Config
//	config.MustLoad(&cfg)
//	log := logger.New(
//	    logger.FromConfig(cfg),
//	    logger.WithContextExtractors(tenant.LoggerExtractor()),
//	)
//
// Development uses text output at DEBUG, staging and production use JSON at
// INFO. LOG_LEVEL overrides the level.
//
// Context extractors add request-scoped attributes such as tenant_id to every
// record logged with a context. An attribute passed explicitly at the call
// site wins over the extracted one:
//
//	log.InfoContext(ctx, "limit reached",
//	    logger.TenantID(t.ID),
//	    logger.Resource(limits.ResourceProducts),
//	    logger.Usage(15, 15),
//	)
//
// Error and Errors return an empty attribute for nil errors, so they can be
// passed unconditionally.
package logger
