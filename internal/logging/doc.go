// Package logging assembles structured slog loggers and formatting helpers used
// across Salient.
//
// It owns the console and JSON handlers, level and output plumbing, log
// retention, and context-aware helpers so stage code automatically tags log
// lines with job IDs, stages, and correlation IDs. A no-op logger is provided
// for tests and wiring code that cannot fail.
package logging
