// Package logging provides structured logging using uber/zap.
//
// This package offers production-ready logging with two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components receive a *zap.Logger named after themselves (policy,
// session, credential, gateway, http). Secrets are never passed to the
// logger; callers log lengths and environment variable names instead.
//
// Example Usage:
//
//	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)
//	logger.Info("Gateway starting", zap.String("port", cfg.Server.Port))
//	logger.Error("Launch failed", zap.Error(err))
package logging
