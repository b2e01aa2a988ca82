// Package main hosts the modsuite CLI entrypoint and command graph.
//
// The Cobra-based command tree runs recipes, builds and inspects provenance
// sidecars, scans existing assets, and reports run history from the ledger.
// It centralizes configuration resolution and logger setup so subcommands can
// focus on presentation.
//
// Keep this package lean: add functionality to the internal packages first,
// then surface it through a dedicated command or flag here.
package main
