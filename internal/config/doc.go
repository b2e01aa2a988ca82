// Package config loads, normalizes, and validates modsuite configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MODSUITE_SCALE_PROFILE. The Config type centralizes the knobs the CLI and
// recipe runner need: workspace and ledger locations, the default unit
// profile, sidecar options, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a registered default profile, and clear validation errors.
package config
