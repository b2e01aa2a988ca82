// Package logging assembles structured slog loggers and formatting helpers used
// across modsuite.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so recipe steps automatically
// tag log lines with run IDs, step indexes, and action names. Per-run JSON log
// files are teed from the main logger and pruned by age. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
