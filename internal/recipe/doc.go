// Package recipe parses declarative workflow documents.
//
// A recipe is a JSON or YAML keyed record with a required steps sequence and
// an optional scale_profile. Parsing checks only the document shape; per-step
// parameters are checked by the registered action when the runner compiles
// the document.
package recipe
