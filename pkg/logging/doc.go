// Package logging wraps the standard library slog package with sgctl
// defaults: structured JSON output to stderr, module/version context on
// every record, environment-based level configuration (LOG_LEVEL), and
// source location tracking for debug logs.
//
// Set the default logger early in main:
//
//	logging.SetDefaultStructuredLogger("sgctl", version)
//	slog.Info("validating account", "account", accountID)
//
// Supported levels (case-insensitive): DEBUG, INFO (default), WARN/WARNING,
// ERROR.
package logging
