// Package logging provides structured logging utilities for nscrawler.
//
// # Overview
//
// This package wraps the standard library slog package with crawler defaults
// so every component logs the same way. It supports environment-based log
// level configuration, module/version context injection, and source location
// tracking for debug logs.
//
// # Log Levels
//
// Supported log levels (case-insensitive):
//   - DEBUG: Detailed diagnostic information with source location
//   - INFO: General informational messages (default)
//   - WARN/WARNING: Potentially problematic situations
//   - ERROR: Failures requiring attention
//
// # Usage
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("nscrawler", "v1.0.0")
//	    slog.Info("crawl started", "targets", 3)
//	}
//
// Setting an explicit level:
//
//	logging.SetDefaultStructuredLoggerWithLevel("nscrawler", "v1.0.0", "warn")
//
// # Environment Configuration
//
// The LOG_LEVEL environment variable controls verbosity when no explicit
// level is provided:
//
//	LOG_LEVEL=debug nscrawler crawl --mode host
//
// # Output Format
//
// All logs are written to stderr in JSON format:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "INFO",
//	    "msg": "crawl complete",
//	    "module": "nscrawler",
//	    "version": "v1.0.0",
//	    "records": 12
//	}
package logging
