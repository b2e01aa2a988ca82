// Package services defines shared utilities consumed by the manifest, sidecar,
// and recipe workflow packages.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, step indexes, and action
//     names for logging.
//   - Structured error markers plus the Wrap helper that keep the failure
//     taxonomy (io failure, unknown profile, malformed recipe, corrupt sidecar,
//     validation, dispatch) classifiable with errors.Is.
//
// Use these helpers when wiring new actions so failures stay uniform across
// the recipe engine and the inspection tooling.
package services
