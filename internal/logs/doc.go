// Package logs reads the per-run JSON-lines logs written during recipe runs.
//
// Tail streams a log file with bounded memory: a negative offset returns the
// last N lines, a non-negative one resumes where a previous call stopped, and
// Follow waits for new lines until the caller's context ends. Find and FindRun
// locate run logs on disk; ParseEvent decodes one line for display by
// `modsuite logs`.
package logs
